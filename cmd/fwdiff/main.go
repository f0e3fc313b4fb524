package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fwdiff/internal/compare"
	"fwdiff/internal/config"
	"fwdiff/internal/progress"
	"fwdiff/internal/snapshot"
	"fwdiff/internal/walker"
)

var (
	configPath       string
	workers          int
	jsonOutput       bool
	includeUnchanged bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fwdiff <old-root> <new-root>",
		Short: "Compare two firmware filesystem trees by content hash",
		Long: `fwdiff walks two directory trees (for example, two firmware filesystem
extractions), hashes every regular file, and reports which files were
added, removed, or modified between them. Symlinks are skipped, file
contents alone decide equality, and unchanged files are omitted from
the report.

Exit codes: 0 no changes, 1 changes detected, 2 error.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".fwdiff.yaml", "Config file path")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU()*2, "Number of hash worker goroutines per tree")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")
	cmd.Flags().BoolVarP(&includeUnchanged, "include-unchanged", "u", false, "Also list unchanged files")

	return cmd
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func run(oldRoot, newRoot string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	absOld, err := filepath.Abs(oldRoot)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	absNew, err := filepath.Abs(newRoot)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	// The two trees are independent, walk them in parallel
	var oldWalk, newWalk *walker.WalkResult
	var g errgroup.Group
	g.Go(func() error {
		var err error
		oldWalk, err = walker.Walk(absOld, cfg.Exclude)
		if err != nil {
			return fmt.Errorf("old root %s: %w", absOld, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		newWalk, err = walker.Walk(absNew, cfg.Exclude)
		if err != nil {
			return fmt.Errorf("new root %s: %w", absNew, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	bar := progress.New(int64(len(oldWalk.Files) + len(newWalk.Files)))

	// Hash both trees in parallel, each over its own worker pool. The diff
	// only runs once both digest maps are complete.
	var oldDigests, newDigests map[string]string
	var h errgroup.Group
	h.Go(func() error {
		var err error
		oldDigests, err = walker.HashFiles(oldWalk.Files, workers, bar)
		if err != nil {
			return fmt.Errorf("failed to hash old tree: %w", err)
		}
		return nil
	})
	h.Go(func() error {
		var err error
		newDigests, err = walker.HashFiles(newWalk.Files, workers, bar)
		if err != nil {
			return fmt.Errorf("failed to hash new tree: %w", err)
		}
		return nil
	})
	if err := h.Wait(); err != nil {
		return err
	}

	bar.Finish()

	oldTreeDigest, err := snapshot.RootDigest(oldDigests)
	if err != nil {
		return fmt.Errorf("failed to compute old tree digest: %w", err)
	}
	newTreeDigest, err := snapshot.RootDigest(newDigests)
	if err != nil {
		return fmt.Errorf("failed to compute new tree digest: %w", err)
	}

	result := compare.Compare(oldDigests, newDigests, includeUnchanged)

	if jsonOutput {
		data, err := compare.FormatJSON(&compare.Report{
			Generator: "fwdiff",
			OldRoot:   absOld,
			NewRoot:   absNew,
			OldDigest: oldTreeDigest,
			NewDigest: newTreeDigest,
			Changes:   result,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("Old tree: %s (%d files, %s, tree digest %s)\n",
			absOld, len(oldDigests), formatSize(oldWalk.TotalSize), oldTreeDigest)
		fmt.Printf("New tree: %s (%d files, %s, tree digest %s)\n\n",
			absNew, len(newDigests), formatSize(newWalk.TotalSize), newTreeDigest)
		fmt.Println(compare.FormatReport(result))
	}

	if result.HasChanges() {
		os.Exit(1)
	}

	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'fwdiff --help' for usage.")
		os.Exit(2)
	}
}
