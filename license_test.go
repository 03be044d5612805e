// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var licenseHeader = []string{
	"// Copyright 2025, the ttsync contributors",
	"// SPDX-License-Identifier: AGPL-3.0-only",
}

func TestSourceHeaders(t *testing.T) {
	t.Parallel()

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() && path != "." && strings.HasPrefix(d.Name(), "_") {
			return filepath.SkipDir
		}

		if d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		var head []string

		sc := bufio.NewScanner(f)
		for len(head) < len(licenseHeader) && sc.Scan() {
			head = append(head, sc.Text())
		}

		assert.Equal(t, licenseHeader, head, path)

		return sc.Err()
	})
	require.NoError(t, err)
}
