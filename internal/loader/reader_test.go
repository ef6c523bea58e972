package loader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDirWalkerFiltersUnknownExtensions(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644)
	os.WriteFile(filepath.Join(dir, "b.md"), []byte("# hi"), 0644)
	os.WriteFile(filepath.Join(dir, "c.bin"), []byte("\x00\x01"), 0644)

	w := NewDirWalker(dir)
	ch := make(chan FilePath, 10)
	if err := w.Walk(context.Background(), ch); err != nil {
		t.Fatal(err)
	}
	close(ch)

	var rels []string
	for f := range ch {
		rels = append(rels, f.Rel)
	}
	sort.Strings(rels)
	if len(rels) != 2 || rels[0] != "a.txt" || rels[1] != "b.md" {
		t.Fatalf("unexpected files %v", rels)
	}
}
