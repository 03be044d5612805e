// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/ttools/ttsync/core/outcome"
)

func TestRegisterFlags(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	o := registerFlags(fs)
	require.NoError(t, fs.Parse([]string{"-type", "themes", "-slug", "twentytwenty", "-locale", "pt_PT", "-json=false", "-php"}))

	assert.Equal(t, "themes", o.typ)
	assert.Equal(t, "twentytwenty", o.slug)
	assert.Equal(t, "pt_PT", o.locales)
	assert.True(t, o.compiled)
	assert.False(t, o.json)
	assert.True(t, o.php)
	assert.True(t, o.includeDomain)
	assert.False(t, o.core)
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	ok := printResult(&out, outcome.Result{Log: outcome.Log{"Nothing to do."}})
	assert.True(t, ok)
	assert.Equal(t, "Nothing to do.\n", out.String())

	out.Reset()

	ok = printResult(&out, outcome.Result{
		Log: outcome.Log{"Saving file a.po…"},
		Err: outcome.New(outcome.KindGeneratePO, "Could not create file.", errors.New("disk full")),
	})
	assert.False(t, ok)
	assert.Equal(t, "Saving file a.po…\nError [generate-po]: Could not create file.\n", out.String())
}

func TestRun_MissingLocale(t *testing.T) {
	t.Parallel()

	err := run(t.Context(), nil, nil, &options{typ: "plugins", slug: "hello"}, io.Discard)
	require.ErrorIs(t, err, errMissingLocale)
}
