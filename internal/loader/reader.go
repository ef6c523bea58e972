package loader

import (
	"context"
	"os"
	"path/filepath"
)

// FilePath is one file discovered under a directory walk, relative to the
// walk root.
type FilePath struct {
	Path string // walk root joined with Rel (absolute when the root is), suitable for Load
	Rel  string // path relative to the walk root
}

// DirWalker enumerates files under a directory tree whose extension is
// recognized by classOf, so a caller can batch-ingest a directory by
// feeding each result into Load. Grounded on the teacher's FileReader
// (internal/documents/reader.go), generalized from "stream all text files"
// to "stream files this loader knows how to format-detect".
type DirWalker struct {
	root string
}

// NewDirWalker creates a walker rooted at root.
func NewDirWalker(root string) *DirWalker {
	return &DirWalker{root: root}
}

// Walk sends a FilePath for every file under the root whose extension has a
// registered strategy cascade.
func (w *DirWalker) Walk(ctx context.Context, out chan<- FilePath) error {
	return filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, ok := classOf(filepath.Ext(path)); !ok {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			rel = path
		}
		out <- FilePath{Path: path, Rel: rel}
		return nil
	})
}
