// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package fsys

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRead(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	data, err := ReadFileIfExists(fs, "plugins/missing.json")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, WriteFile(fs, "plugins/hello-pt_PT.json", []byte("{}")))

	data, err = ReadFileIfExists(fs, "plugins/hello-pt_PT.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), data)
}

func TestNew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	fs, err := New(dir + "/languages")
	require.NoError(t, err)

	require.NoError(t, WriteFile(fs, "pt_PT.mo", []byte("x")))

	exists, err := afero.Exists(afero.NewOsFs(), dir+"/languages/pt_PT.mo")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocker_SerialisesSamePath(t *testing.T) {
	t.Parallel()

	var (
		l       Locker
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := l.Lock("a.json")
			defer unlock()

			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.locks, "released locks are dropped")
}

func TestLocker_DistinctPathsDoNotBlock(t *testing.T) {
	t.Parallel()

	var l Locker

	unlockA := l.Lock("a.json")
	defer unlockA()

	done := make(chan struct{})

	go func() {
		unlock := l.Lock("b.json")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different path blocked")
	}
}
