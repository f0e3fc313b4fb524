package snapshot

import (
	"encoding/hex"
	"fmt"
	"sort"

	mt "github.com/txaty/go-merkletree"

	"fwdiff/internal/hash"
)

type leaf struct {
	data []byte
}

func (l *leaf) Serialize() ([]byte, error) {
	return l.data, nil
}

// RootDigest condenses a per-file digest map into one digest for the whole
// tree: a merkle root over (relative path, digest) leaves, sorted by path
// for determinism. Two trees with identical content at identical relative
// paths produce the same root digest.
func RootDigest(digests map[string]string) (string, error) {
	if len(digests) == 0 {
		sum, err := hash.XXHashFunc([]byte("empty-tree"))
		if err != nil {
			return "", fmt.Errorf("failed to hash empty tree marker: %w", err)
		}
		return hex.EncodeToString(sum), nil
	}

	paths := make([]string, 0, len(digests))
	for path := range digests {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	blocks := make([]mt.DataBlock, 0, len(paths))
	for _, path := range paths {
		// NUL joins path and digest; neither side can contain it
		blocks = append(blocks, &leaf{data: []byte(path + "\x00" + digests[path])})
	}

	// go-merkletree requires at least two blocks
	if len(blocks) == 1 {
		data, err := blocks[0].Serialize()
		if err != nil {
			return "", fmt.Errorf("failed to serialize leaf: %w", err)
		}
		sum, err := hash.XXHashFunc(data)
		if err != nil {
			return "", fmt.Errorf("failed to hash leaf: %w", err)
		}
		return hex.EncodeToString(sum), nil
	}

	tree, err := mt.New(&mt.Config{
		HashFunc: hash.XXHashFunc,
		Mode:     mt.ModeTreeBuild,
	}, blocks)
	if err != nil {
		return "", fmt.Errorf("failed to build merkle tree: %w", err)
	}

	return hex.EncodeToString(tree.Root), nil
}
