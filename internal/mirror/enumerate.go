package mirror

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/vigenere-go/internal/errors"
)

// Unbounded walks the whole tree
const Unbounded = math.MaxInt

// Kind classifies an enumerated path
type Kind uint8

const (
	// KindDir is a directory, or a symlink to one
	KindDir Kind = iota
	// KindFile is a regular file, or a symlink to one
	KindFile
	// KindOther is a socket, device, pipe or similar; it is skipped
	KindOther
	// KindError is a path that could not be listed or resolved
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindOther:
		return "other"
	default:
		return "error"
	}
}

// Entry is one path found under a source root
type Entry struct {
	Path  string // absolute source path
	Rel   string // path relative to the root, "." for the root itself
	Depth int
	Kind  Kind
	Err   error
}

// resolveRoot makes src absolute and checks it is a listable directory. The
// returned walk path has symlinks resolved so a linked root is still walked.
func resolveRoot(src string) (abs, walk string, err error) {
	if src == "" {
		return "", "", apperrors.NewInvalidArgument("source directory must not be empty")
	}

	abs, err = filepath.Abs(src)
	if err != nil {
		return "", "", apperrors.NewEnumeration("failed to resolve source directory", src, err)
	}
	if filepath.Dir(abs) == abs {
		return "", "", apperrors.NewInvalidArgument("cannot mirror a filesystem root: " + abs)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", "", apperrors.NewEnumeration("failed to stat source directory", abs, err)
	}
	if !info.IsDir() {
		return "", "", apperrors.NewEnumeration("source is not a directory", abs, nil)
	}

	walk, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", "", apperrors.NewEnumeration("failed to resolve source directory", abs, err)
	}
	return abs, walk, nil
}

// Enumerate lists every path under root down to maxDepth, root included at
// depth 0. Entries that cannot be read below the root come back as KindError
// and the walk goes on; failure to list the root itself aborts with an
// EnumerationError.
func Enumerate(root string, maxDepth int) ([]Entry, error) {
	if maxDepth < 0 {
		return nil, apperrors.NewInvalidArgument("max depth must not be negative")
	}

	abs, walkRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		rel, relErr := filepath.Rel(walkRoot, path)
		if relErr != nil {
			return relErr
		}
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}
		srcPath := filepath.Join(abs, rel)

		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			entries = append(entries, Entry{Path: srcPath, Rel: rel, Depth: depth, Kind: KindError, Err: walkErr})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		kind, statErr := classify(path, d)
		entries = append(entries, Entry{Path: srcPath, Rel: rel, Depth: depth, Kind: kind, Err: statErr})

		if d.IsDir() && depth >= maxDepth {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewEnumeration("failed to list source directory", abs, err)
	}

	return entries, nil
}

// classify resolves symlinks so a link is mirrored as whatever it points to.
func classify(path string, d fs.DirEntry) (Kind, error) {
	mode := d.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			return KindError, err
		}
		mode = info.Mode().Type()
	}

	switch {
	case mode.IsDir():
		return KindDir, nil
	case mode.IsRegular():
		return KindFile, nil
	default:
		return KindOther, nil
	}
}
