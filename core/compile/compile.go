// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package compile serialises a catalog into the files WordPress loads: the raw
.po text, the binary .mo catalog and the optional .l10n.php array.
*/
package compile

import (
	"github.com/spf13/afero"

	"codeberg.org/ttools/ttsync/core/fsys"
)

// File extensions written by this package.
const (
	ExtPO  = "po"
	ExtMO  = "mo"
	ExtPHP = "l10n.php"
)

// FileName returns "{domain}-{locale}.{ext}", or "{locale}.{ext}" when domain is empty.
func FileName(domain, locale, ext string) string {
	return BaseName(domain, locale) + "." + ext
}

// BaseName returns "{domain}-{locale}", or "{locale}" when domain is empty.
func BaseName(domain, locale string) string {
	if domain == "" {
		return locale
	}

	return domain + "-" + locale
}

// WriteRaw stores the downloaded catalog bytes unchanged.
func WriteRaw(fs afero.Fs, name string, body []byte) error {
	return fsys.WriteFile(fs, name, body)
}
