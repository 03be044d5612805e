// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ErrFileNotFound is returned by [Load] when the catalog file does not exist.
var ErrFileNotFound = errors.New("file not found")

const utf8BOM = "\ufeff"

// ParseError describes malformed gettext input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid gettext catalog at line %d: %s", e.Line, e.Msg)
}

// Load reads and parses the catalog stored at path on fsys.
func Load(fsys afero.Fs, path string) (*Catalog, error) {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Parse(data)
}

// field identifies which string a continuation line extends.
type field int

const (
	fieldNone field = iota
	fieldContext
	fieldID
	fieldPlural
	fieldStr
)

// pending accumulates the lines of the entry being parsed.
type pending struct {
	context, id, plural string
	strs                []string

	hasContext, hasID, hasPlural, hasStr bool

	refs     []Reference
	flags    []string
	obsolete bool

	// line where the entry's first keyword appeared
	start int
}

func (p *pending) hasKeywords() bool {
	return p.hasContext || p.hasID || p.hasPlural || p.hasStr
}

type parser struct {
	cat     *Catalog
	cur     pending
	target  field
	strIdx  int
	lineNum int

	// obsolete is set while handling a "#~" line
	obsolete bool
}

// Parse decodes gettext catalog text.
//
// Obsolete ("#~") entries are kept and marked disabled. Translator and
// extracted comments are dropped. The header entry is decoded into the
// catalog headers.
func Parse(data []byte) (*Catalog, error) {
	text := strings.TrimPrefix(string(data), utf8BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	p := &parser{cat: New()}

	for rawLine := range strings.SplitSeq(text, "\n") {
		p.lineNum++

		if err := p.line(strings.TrimSpace(rawLine)); err != nil {
			return nil, err
		}
	}

	if err := p.flush(); err != nil {
		return nil, err
	}

	return p.cat, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.lineNum, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) line(line string) error {
	if line == "" {
		// A blank line ends a complete entry. Comments seen so far stay
		// attached to the next one.
		if p.cur.hasStr {
			return p.flush()
		}

		return nil
	}

	obsolete := false

	if rest, ok := strings.CutPrefix(line, "#~"); ok {
		if strings.HasPrefix(rest, "|") {
			// previous-msgid of an obsolete entry
			return nil
		}

		obsolete = true
		line = strings.TrimSpace(rest)

		if line == "" {
			return nil
		}
	}

	if !obsolete && strings.HasPrefix(line, "#") {
		return p.comment(line)
	}

	p.obsolete = obsolete

	if strings.HasPrefix(line, `"`) {
		return p.continuation(line)
	}

	return p.keyword(line)
}

func (p *parser) comment(line string) error {
	// A comment after msgstr starts the next entry.
	if p.cur.hasStr {
		if err := p.flush(); err != nil {
			return err
		}
	}

	switch {
	case strings.HasPrefix(line, "#:"):
		for token := range strings.FieldsSeq(line[2:]) {
			p.cur.refs = append(p.cur.refs, parseReference(token))
		}
	case strings.HasPrefix(line, "#,"):
		for flag := range strings.SplitSeq(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				p.cur.flags = append(p.cur.flags, flag)
			}
		}
	}

	p.target = fieldNone

	return nil
}

func (p *parser) keyword(line string) error {
	keyword, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		keyword, rest = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch {
	case keyword == "msgctxt":
		if p.cur.hasStr {
			if err := p.flush(); err != nil {
				return err
			}
		}

		if p.cur.hasContext || p.cur.hasID {
			return p.errorf("unexpected msgctxt")
		}

		p.begin()
		p.cur.hasContext = true
		p.target = fieldContext

		return p.assign(rest)

	case keyword == "msgid":
		if p.cur.hasStr {
			if err := p.flush(); err != nil {
				return err
			}
		}

		if p.cur.hasID {
			return p.errorf("duplicate msgid")
		}

		p.begin()
		p.cur.hasID = true
		p.target = fieldID

		return p.assign(rest)

	case keyword == "msgid_plural":
		if !p.cur.hasID || p.cur.hasPlural || p.cur.hasStr {
			return p.errorf("unexpected msgid_plural")
		}

		p.cur.hasPlural = true
		p.target = fieldPlural

		return p.assign(rest)

	case keyword == "msgstr":
		if !p.cur.hasID {
			return p.errorf("msgstr without msgid")
		}

		if p.cur.hasStr || p.cur.hasPlural {
			return p.errorf("unexpected msgstr")
		}

		p.cur.hasStr = true
		p.cur.strs = append(p.cur.strs, "")
		p.strIdx = 0
		p.target = fieldStr

		return p.assign(rest)

	case strings.HasPrefix(keyword, "msgstr["):
		return p.pluralStr(keyword, rest)
	}

	return p.errorf("unexpected content %q", truncate(line))
}

func (p *parser) pluralStr(keyword, rest string) error {
	if !p.cur.hasID || !p.cur.hasPlural {
		return p.errorf("%s without msgid_plural", keyword)
	}

	idxText, ok := strings.CutSuffix(strings.TrimPrefix(keyword, "msgstr["), "]")
	if !ok {
		return p.errorf("malformed %s", keyword)
	}

	idx, err := strconv.Atoi(idxText)
	if err != nil || idx != len(p.cur.strs) {
		return p.errorf("%s out of order", keyword)
	}

	p.cur.hasStr = true
	p.cur.strs = append(p.cur.strs, "")
	p.strIdx = idx
	p.target = fieldStr

	return p.assign(rest)
}

func (p *parser) continuation(line string) error {
	if p.target == fieldNone {
		return p.errorf("string continuation without keyword")
	}

	return p.assign(line)
}

// assign appends the decoded quoted string to the current target field.
func (p *parser) assign(quoted string) error {
	s, err := unquote(quoted)
	if err != nil {
		return p.errorf("%v", err)
	}

	switch p.target {
	case fieldContext:
		p.cur.context += s
	case fieldID:
		p.cur.id += s
	case fieldPlural:
		p.cur.plural += s
	case fieldStr:
		p.cur.strs[p.strIdx] += s
	case fieldNone:
	}

	return nil
}

func (p *parser) begin() {
	if !p.cur.hasKeywords() {
		p.cur.start = p.lineNum
		p.cur.obsolete = p.obsolete
	}
}

// flush moves the pending entry into the catalog.
func (p *parser) flush() error {
	cur := p.cur

	p.cur = pending{}
	p.target = fieldNone

	if !cur.hasKeywords() {
		return nil
	}

	if !cur.hasID {
		return &ParseError{Line: cur.start, Msg: "entry without msgid"}
	}

	if !cur.hasStr {
		return &ParseError{Line: cur.start, Msg: "entry without msgstr"}
	}

	if cur.id == "" && !cur.hasContext && !cur.obsolete {
		p.decodeHeaders(cur.strs[0])

		return nil
	}

	if cur.id == "" {
		return &ParseError{Line: cur.start, Msg: "empty msgid"}
	}

	p.cat.Add(&Entry{
		Context:      cur.context,
		Original:     cur.id,
		Plural:       cur.plural,
		Translations: cur.strs,
		References:   cur.refs,
		Flags:        cur.flags,
		Disabled:     cur.obsolete,
	})

	return nil
}

func (p *parser) decodeHeaders(block string) {
	for line := range strings.SplitSeq(block, "\n") {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		if name = strings.TrimSpace(name); name == "" {
			continue
		}

		p.cat.SetHeader(name, strings.TrimSpace(value))
	}
}

// parseReference splits "path/file.js:12" into file and line. Tokens without
// a numeric suffix are taken as a bare file name.
func parseReference(token string) Reference {
	if i := strings.LastIndexByte(token, ':'); i > 0 {
		if n, err := strconv.Atoi(token[i+1:]); err == nil {
			return Reference{File: token[:i], Line: n}
		}
	}

	return Reference{File: token}
}

var (
	errNotQuoted       = errors.New("expected quoted string")
	errUnterminated    = errors.New("unterminated string")
	errTrailingContent = errors.New("unexpected content after string")
)

// unquote decodes a double-quoted gettext string with C escapes.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' {
		return "", errNotQuoted
	}

	var b bytes.Buffer

	for i := 1; i < len(s); i++ {
		c := s[i]

		switch c {
		case '"':
			if strings.TrimSpace(s[i+1:]) != "" {
				return "", errTrailingContent
			}

			return b.String(), nil
		case '\\':
			if i+1 >= len(s) {
				return "", errUnterminated
			}

			i++
			i = unescape(s, i, &b)
		default:
			b.WriteByte(c)
		}
	}

	return "", errUnterminated
}

// unescape writes the escape sequence starting at s[i] (the byte after the
// backslash) and returns the index of its last byte.
func unescape(s string, i int, b *bytes.Buffer) int {
	switch c := s[i]; c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '"', '\\', '\'', '?':
		b.WriteByte(c)
	case 'x':
		j := i + 1
		for j < len(s) && j < i+3 && isHex(s[j]) {
			j++
		}

		if j == i+1 {
			b.WriteString(`\x`)

			return i
		}

		v, _ := strconv.ParseUint(s[i+1:j], 16, 8)
		b.WriteByte(byte(v))

		return j - 1
	case '0', '1', '2', '3', '4', '5', '6', '7':
		j := i
		for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
			j++
		}

		v, _ := strconv.ParseUint(s[i:j], 8, 16)
		b.WriteByte(byte(v))

		return j - 1
	default:
		// Unknown escapes are kept verbatim.
		b.WriteByte('\\')
		b.WriteByte(c)
	}

	return i
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func truncate(s string) string {
	const maxLen = 40

	if len(s) <= maxLen {
		return s
	}

	return s[:maxLen] + "..."
}
