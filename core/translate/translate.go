// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package translate talks to a GlotPress translation site such as
translate.wordpress.org: it builds export URLs, discovers the WordPress core
version subprojects and lists the available locales.

Metadata responses are cached through a [requests.Cache]; every lookup can
be forced to bypass and repopulate the cache.
*/
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"codeberg.org/ttools/ttsync/core/fetch"
	"codeberg.org/ttools/ttsync/core/locale"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/project"
	"codeberg.org/ttools/ttsync/core/requests"
	"codeberg.org/ttools/ttsync/i18n"
)

const (
	DefaultBaseURL      = "https://translate.wordpress.org/"
	DefaultStatusFilter = "current"
	DefaultCacheTTL     = time.Hour

	// DevSlug is the subproject holding the development version of a project.
	DevSlug = "dev"

	coreProjectKey = "wordpress_translation_project"
	languagesKey   = "available_translations"
)

var (
	// ErrUnknownLocale is returned by [Client.Locale] for locales the site does not list.
	ErrUnknownLocale = errors.New("locale is not available on the translation site")
	errNoLocales     = errors.New("no locales found")
)

// SubProject is a versioned subproject of WordPress core, e.g. "6.4.x".
type SubProject struct {
	Name string
	Slug string
}

// Options configures a [Client].
type Options struct {
	BaseURL      string
	StatusFilter string
	Timeout      time.Duration

	// CoreVersion is the installed WordPress version, e.g. "6.4.2".
	CoreVersion string

	CacheTTL time.Duration
}

// Client resolves projects and locales against the translation site.
type Client struct {
	http  *requests.Client
	cache requests.Cache
	opts  Options
	group singleflight.Group
}

// New returns a client. Zero options take their defaults; a nil cache
// disables caching.
func New(client *requests.Client, cache requests.Cache, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}

	if opts.StatusFilter == "" {
		opts.StatusFilter = DefaultStatusFilter
	}

	if opts.Timeout <= 0 {
		opts.Timeout = fetch.DefaultTimeout
	}

	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	if cache == nil {
		cache = requests.NopCache{}
	}

	return &Client{http: client, cache: cache, opts: opts}
}

// TranslateURL returns "{base}projects/{wp|wp-plugins|wp-themes}/".
func (c *Client) TranslateURL(t project.Type) string {
	return c.opts.BaseURL + "projects/" + t.Path() + "/"
}

// APIURL returns "{base}api/projects/{wp|wp-plugins|wp-themes}/".
func (c *Client) APIURL(t project.Type) string {
	return c.opts.BaseURL + "api/projects/" + t.Path() + "/"
}

// LanguagesURL returns "{base}api/languages".
func (c *Client) LanguagesURL() string {
	return c.opts.BaseURL + "api/languages"
}

// MajorVersion returns the first two components of a version: "6.4.2" and
// "6.4.x" both give "6.4".
func MajorVersion(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}

	return parts[0] + "." + parts[1]
}

// CoreProject returns the core subproject matching the configured WordPress
// major version, or nil when none matches.
func (c *Client) CoreProject(ctx context.Context, force bool) (*SubProject, outcome.Log, *outcome.Error) {
	var logs outcome.Log

	body, err := c.cached(ctx, coreProjectKey, c.APIURL(project.TypeCore), force)
	if err != nil {
		logs.Add(i18n.Tr(ctx, "Could not get the WordPress translation project: {{.Error}}", "Error", err.Error()))

		return nil, logs, outcome.New(outcome.KindAPIUnavailable,
			i18n.Tr(ctx, "The WordPress.org Translations API is unavailable."), err)
	}

	want := MajorVersion(c.opts.CoreVersion)

	var match *SubProject

	gjson.GetBytes(body, "sub_projects").ForEach(func(_, sp gjson.Result) bool {
		name := sp.Get("name").String()
		if want != "" && MajorVersion(name) == want {
			match = &SubProject{Name: name, Slug: sp.Get("slug").String()}

			return false
		}

		return true
	})

	if match == nil {
		logs.Add(i18n.Tr(ctx, "No translation project found for WordPress {{.Version}}. Using the development version.",
			"Version", c.opts.CoreVersion))
	}

	return match, logs, nil
}

// Candidates returns the export URLs for p in l, most specific first.
//
// Core projects use the matching version subproject, when there is one,
// followed by development. Plugins and themes use stable then development.
func (c *Client) Candidates(
	ctx context.Context,
	p project.Project,
	l locale.Locale,
	force bool,
) ([]fetch.Candidate, outcome.Log, *outcome.Error) {
	if p.Type != project.TypeCore {
		base := c.TranslateURL(p.Type) + p.Slug + "/"

		return []fetch.Candidate{
			{Label: "stable", URL: c.exportURL(base + "stable/" + l.PathSlug())},
			{Label: "development", URL: c.exportURL(base + DevSlug + "/" + l.PathSlug())},
		}, nil, nil
	}

	sub, logs, oerr := c.CoreProject(ctx, force)
	if oerr != nil {
		return nil, logs, oerr
	}

	var candidates []fetch.Candidate

	if sub != nil && sub.Slug != "" && sub.Slug != DevSlug {
		candidates = append(candidates, fetch.Candidate{
			Label: sub.Name,
			URL:   c.exportURL(c.TranslateURL(project.TypeCore) + sub.Slug + "/" + p.Slug + l.PathSlug()),
		})
	}

	candidates = append(candidates, fetch.Candidate{
		Label: "development",
		URL:   c.exportURL(c.TranslateURL(project.TypeCore) + DevSlug + "/" + p.Slug + l.PathSlug()),
	})

	return candidates, logs, nil
}

func (c *Client) exportURL(path string) string {
	return path + "/export-translations?filters[status]=" + url.QueryEscape(c.opts.StatusFilter) + "&format=po"
}

// Locales lists the locales of the translation site, sorted by WordPress
// locale. Entries without a wp_locale are skipped.
func (c *Client) Locales(ctx context.Context, force bool) ([]locale.Locale, error) {
	body, err := c.cached(ctx, languagesKey, c.LanguagesURL(), force)
	if err != nil {
		return nil, err
	}

	locales := parseLocales(body)
	if len(locales) == 0 {
		c.cache.Delete(languagesKey)

		return nil, errNoLocales
	}

	return locales, nil
}

// Locale returns the record of wpLocale.
func (c *Client) Locale(ctx context.Context, wpLocale string, force bool) (locale.Locale, error) {
	locales, err := c.Locales(ctx, force)
	if err != nil {
		return locale.Locale{}, err
	}

	for _, l := range locales {
		if l.WPLocale == wpLocale {
			return l, nil
		}
	}

	return locale.Locale{}, fmt.Errorf("%w: %s", ErrUnknownLocale, wpLocale)
}

// Check queries the core project API.
func (c *Client) Check(ctx context.Context) *outcome.Error {
	if _, err := c.http.GetJSON(ctx, c.APIURL(project.TypeCore), c.opts.Timeout); err != nil {
		return outcome.New(outcome.KindAPIUnavailable,
			i18n.Tr(ctx, "The WordPress.org Translations API is unavailable."), err)
	}

	return nil
}

// cached returns the JSON body of target, from the cache unless force is set.
// Concurrent misses for the same key share one request.
func (c *Client) cached(ctx context.Context, key, target string, force bool) ([]byte, error) {
	if !force {
		if body, ok := c.cache.Get(key); ok {
			return body, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		body, err := c.http.GetJSON(ctx, target, c.opts.Timeout)
		if err != nil {
			return nil, err
		}

		c.cache.Set(key, body, c.opts.CacheTTL)

		log.Debug().
			Str("sys", "translate").
			Str("key", key).
			Dur("ttl", c.opts.CacheTTL).
			Msg("Cached translation site metadata")

		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil //nolint:forcetypeassert
}

func parseLocales(body []byte) []locale.Locale {
	var out []locale.Locale

	gjson.ParseBytes(body).ForEach(func(_, v gjson.Result) bool {
		wpLocale := v.Get("wp_locale").String()
		if wpLocale == "" {
			return true
		}

		slug, variant, _ := strings.Cut(v.Get("slug").String(), "/")

		l, err := locale.New(wpLocale,
			locale.WithSlug(slug),
			locale.WithVariant(variant),
			locale.WithNames(v.Get("english_name").String(), v.Get("native_name").String()),
			locale.WithPlurals(int(v.Get("nplurals").Int()), v.Get("plural_expression").String()),
		)
		if err != nil {
			log.Debug().Err(err).Str("wp_locale", wpLocale).Msg("Skipping locale")

			return true
		}

		out = append(out, l)

		return true
	})

	slices.SortFunc(out, func(a, b locale.Locale) int {
		return strings.Compare(a.WPLocale, b.WPLocale)
	})

	return out
}
