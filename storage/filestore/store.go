package filestore

import (
	"context"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
)

// Store keeps one file per key under a directory. Writes are atomic (temp file + rename),
// so concurrent processes sharing the directory see whole snapshots, last writer wins.
type Store struct {
	dir string
}

var _ core.Storage = (*Store)(nil)

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage directory")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := ioutil.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, core.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", key)
	}
	return data, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	tmp, err := ioutil.TempFile(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "writing %q", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %q", key)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing %q", key)
	}
	if err = os.Rename(tmp.Name(), s.path(key)); err != nil {
		return errors.Wrapf(err, "writing %q", key)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %q", key)
	}
	return nil
}
