// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package fsys provides the file access capability used by the sync pipeline.

All catalog output goes through an [afero.Fs] so that callers decide where
files land: [New] roots an OS filesystem at the configured languages
directory, and tests use [afero.NewMemMapFs].
*/
package fsys

import (
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/spf13/afero"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// New returns a filesystem rooted at dir on the host OS.
func New(dir string) (afero.Fs, error) {
	osFs := afero.NewOsFs()

	if err := osFs.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create languages directory %s: %w", dir, err)
	}

	return afero.NewBasePathFs(osFs, dir), nil
}

// WriteFile writes data to name, creating parent directories as needed.
func WriteFile(fs afero.Fs, name string, data []byte) error {
	if dir := path.Dir(name); dir != "." && dir != "/" {
		if err := fs.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := afero.WriteFile(fs, name, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}

// ReadFileIfExists returns the contents of name, or nil without error when
// the file does not exist.
func ReadFileIfExists(fs afero.Fs, name string) ([]byte, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return data, nil
}

// Locker hands out one mutex per path.
//
// It serialises read-modify-write cycles on the same file within one process.
// The zero value is ready for use.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	sync.Mutex

	refs int
}

// Lock blocks until name is available and returns the function that releases it.
func (l *Locker) Lock(name string) (unlock func()) {
	l.mu.Lock()

	if l.locks == nil {
		l.locks = make(map[string]*pathLock)
	}

	pl, ok := l.locks[name]
	if !ok {
		pl = &pathLock{}
		l.locks[name] = pl
	}

	pl.refs++

	l.mu.Unlock()

	pl.Lock()

	return func() {
		pl.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, name)
		}
	}
}
