package objectstore

import (
	"context"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vellum/internal/config"
)

// FSStore implements ObjectStore over a local directory tree, the default
// backend for converted_docs/ persistence when no object-storage credentials
// are configured.
type FSStore struct {
	root string
}

// NewFSStore creates an ObjectStore rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: dir}, nil
}

func (f *FSStore) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

func (f *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectAttrs, error) {
	p := f.path(key)
	file, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, ObjectAttrs{}, ErrNotFound
	}
	if err != nil {
		return nil, ObjectAttrs{}, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ObjectAttrs{}, err
	}
	return file, ObjectAttrs{Key: key, Size: info.Size(), LastModified: info.ModTime()}, nil
}

func (f *FSStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (string, error) {
	p := f.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	if _, err := io.Copy(tmp, io.TeeReader(r, h)); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", err
	}
	return contentETag(h.Sum(nil)), nil
}

func (f *FSStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FSStore) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	var objects []ObjectAttrs
	err := filepath.Walk(f.root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			return nil
		}
		objects = append(objects, ObjectAttrs{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return ListResult{}, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	if opts.MaxKeys > 0 && len(objects) > opts.MaxKeys {
		return ListResult{Objects: objects[:opts.MaxKeys], IsTruncated: true}, nil
	}
	return ListResult{Objects: objects}, nil
}

func (f *FSStore) Head(ctx context.Context, key string) (ObjectAttrs, error) {
	info, err := os.Stat(f.path(key))
	if os.IsNotExist(err) {
		return ObjectAttrs{}, ErrNotFound
	}
	if err != nil {
		return ObjectAttrs{}, err
	}
	return ObjectAttrs{Key: key, Size: info.Size(), LastModified: info.ModTime()}, nil
}

func (f *FSStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	r, _, err := f.Get(ctx, srcKey)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = f.Put(ctx, dstKey, r, PutOptions{})
	return err
}

func (f *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(f.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

var _ ObjectStore = (*FSStore)(nil)

// NewFromConfig builds the configured ObjectStore backend (spec §6's
// converted_docs/ persistence): "fs" (default) rooted at dir, "memory" for
// ephemeral/testing use, or "s3" against an S3-compatible endpoint.
func NewFromConfig(ctx context.Context, cfg config.ObjectStoreConfig, dir string) (ObjectStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "fs":
		return NewFSStore(dir)
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return NewFSStore(dir)
	}
}
