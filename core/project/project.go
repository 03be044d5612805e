// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package project describes the translation projects a sync can target.
package project

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Type is the kind of project on the translate site.
type Type string

const (
	TypeCore    Type = "wp"
	TypePlugins Type = "plugins"
	TypeThemes  Type = "themes"
)

var (
	errUnknownType = errors.New("unknown project type")
	errMissingSlug = errors.New("project slug is required")

	// ErrInvalidDomain rejects a text domain that is not a single file-name token.
	ErrInvalidDomain = errors.New("invalid text domain")

	// ErrInvalidSlug rejects a plugin or theme slug that is not a single
	// path token, or a core slug outside [CoreSubprojects].
	ErrInvalidSlug = errors.New("invalid project slug")
)

// token is what a slug or domain may contain once it ends up in a file path.
var token = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func isToken(s string) bool {
	return token.MatchString(s) && !strings.Contains(s, "..")
}

// ParseType accepts "wp", "plugins" and "themes".
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeCore, TypePlugins, TypeThemes:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownType, s)
	}
}

// Path returns the translate-site path segment: "wp", "wp-plugins" or "wp-themes".
func (t Type) Path() string {
	if t == TypeCore {
		return string(TypeCore)
	}

	return "wp-" + string(t)
}

// Project is one translatable unit.
type Project struct {
	Type Type

	// Slug is the path below the version subproject for core ("admin/")
	// or the plugin/theme slug.
	Slug string

	// Domain is the text domain used in file names. It may be empty.
	Domain string

	Name string
}

// New validates t and, for plugins and themes, that slug is set.
func New(t Type, slug, domain, name string) (Project, error) {
	if _, err := ParseType(string(t)); err != nil {
		return Project{}, err
	}

	switch {
	case t != TypeCore && slug == "":
		return Project{}, errMissingSlug
	case t != TypeCore && !isToken(slug):
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	case t == TypeCore && !isCoreSlug(slug):
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	if domain != "" && !isToken(domain) {
		return Project{}, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	if name == "" {
		name = slug
	}

	return Project{Type: t, Slug: slug, Domain: domain, Name: name}, nil
}

// CoreSubprojects returns the WordPress core projects in update order.
func CoreSubprojects() []Project {
	return []Project{
		{Type: TypeCore, Slug: "", Domain: "", Name: "Development"},
		{Type: TypeCore, Slug: "admin/", Domain: "admin", Name: "Administration"},
		{Type: TypeCore, Slug: "admin/network/", Domain: "admin-network", Name: "Network Admin"},
		{Type: TypeCore, Slug: "cc/", Domain: "continents-cities", Name: "Continents & Cities"},
	}
}

func isCoreSlug(slug string) bool {
	return slices.ContainsFunc(CoreSubprojects(), func(p Project) bool { return p.Slug == slug })
}

// FileBase returns "{domain}-{wpLocale}", or wpLocale when the domain is empty.
func (p Project) FileBase(wpLocale string) string {
	if p.Domain == "" {
		return wpLocale
	}

	return p.Domain + "-" + wpLocale
}

// Dir returns the languages subdirectory for p: "plugins", "themes" or "" for core.
func (p Project) Dir() string {
	if p.Type == TypeCore {
		return ""
	}

	return string(p.Type)
}
