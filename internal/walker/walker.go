package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fwdiff/internal/hash"
	"fwdiff/internal/progress"
)

// FileInfo describes one regular file discovered under a root. Rel is the
// path relative to the walked root and is the key used to match files
// between the two trees.
type FileInfo struct {
	Path string
	Rel  string
	Size int64
}

type WalkResult struct {
	Files     []FileInfo
	TotalSize int64
}

// Walk collects every regular file reachable under rootPath. Symbolic links
// are skipped outright, whether they point at files or directories, and
// other non-regular entries (devices, sockets, FIFOs) are ignored. Any
// unreadable entry aborts the walk with an error; there is no
// skip-and-continue mode.
func Walk(rootPath string, exclusions []string) (*WalkResult, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", rootPath)
	}

	result := &WalkResult{
		Files: make([]FileInfo, 0),
	}

	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == rootPath {
			return nil
		}

		// Symlinks are tested before the file/dir checks so a link to a
		// directory is never descended and a link to a file is never hashed.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}

		if shouldExclude(relPath, exclusions) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		result.Files = append(result.Files, FileInfo{
			Path: path,
			Rel:  relPath,
			Size: fi.Size(),
		})
		result.TotalSize += fi.Size()

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return result, nil
}

func shouldExclude(relPath string, exclusions []string) bool {
	for _, pattern := range exclusions {
		// Handle directory exclusions (patterns ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			// Check if the current path or any parent matches the directory pattern
			parts := strings.Split(relPath, string(filepath.Separator))
			for _, part := range parts {
				if matched, _ := filepath.Match(dirPattern, part); matched {
					return true
				}
				// Also check exact match
				if part == dirPattern {
					return true
				}
			}
		} else {
			// Handle file pattern exclusions
			matched, err := filepath.Match(pattern, filepath.Base(relPath))
			if err == nil && matched {
				return true
			}
			// Also try matching against the full relative path for patterns with /
			if strings.Contains(pattern, "/") {
				matched, err := filepath.Match(pattern, relPath)
				if err == nil && matched {
					return true
				}
			}
		}
	}
	return false
}

type hashJob struct {
	fileInfo FileInfo
}

type hashJobResult struct {
	rel    string
	digest string
	err    error
}

// HashFiles computes the content digest of every file using a pool of
// numWorkers goroutines and returns the digests keyed by root-relative path.
// Relative paths are unique within a walk, so the keys never collide. The
// map is only returned fully populated: any hashing error fails the whole
// batch.
func HashFiles(files []FileInfo, numWorkers int, bar *progress.Bar) (map[string]string, error) {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	digests := make(map[string]string, len(files))

	if len(files) == 0 {
		return digests, nil
	}

	jobs := make(chan hashJob, len(files))
	results := make(chan hashJobResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				digest, err := hash.HashFile(job.fileInfo.Path)
				results <- hashJobResult{
					rel:    job.fileInfo.Rel,
					digest: digest,
					err:    err,
				}
			}
		}()
	}

	go func() {
		for _, fileInfo := range files {
			jobs <- hashJob{fileInfo: fileInfo}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Drain every result so the workers can finish even when one fails.
	var firstErr error
	for jobResult := range results {
		if jobResult.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", jobResult.rel, jobResult.err)
			}
			continue
		}
		digests[jobResult.rel] = jobResult.digest

		if bar != nil {
			bar.Increment()
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return digests, nil
}
