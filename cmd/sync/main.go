// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
sync runs one sync pass from the command line and prints its log.

	sync -type plugins -slug hello-dolly -domain hello-dolly -locale pt_PT
	sync -core -locale pt_PT,de_DE

The exit status is 1 when any pass fails.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"codeberg.org/ttools/ttsync/config"
	"codeberg.org/ttools/ttsync/core/audit"
	"codeberg.org/ttools/ttsync/core/outcome"
	"codeberg.org/ttools/ttsync/core/project"
	"codeberg.org/ttools/ttsync/core/syncer"
	"codeberg.org/ttools/ttsync/core/translate"
	"codeberg.org/ttools/ttsync/i18n"
	"codeberg.org/ttools/ttsync/po"
)

var (
	errPassFailed    = errors.New("sync failed")
	errMissingLocale = errors.New("-locale is required")
)

type options struct {
	typ           string
	slug          string
	domain        string
	locales       string
	compiled      bool
	json          bool
	php           bool
	includeDomain bool
	force         bool
	core          bool
}

func registerFlags(fs *flag.FlagSet) *options {
	var o options

	fs.StringVar(&o.typ, "type", string(project.TypePlugins), "project type: wp, plugins or themes")
	fs.StringVar(&o.slug, "slug", "", "plugin or theme slug, or core subproject path such as admin/")
	fs.StringVar(&o.domain, "domain", "", "text domain used in file names")
	fs.StringVar(&o.locales, "locale", "", "WordPress locale, comma-separated with -core")
	fs.BoolVar(&o.compiled, "compiled", true, "write .mo files")
	fs.BoolVar(&o.json, "json", true, "write JavaScript .json files")
	fs.BoolVar(&o.php, "php", false, "also write .l10n.php files")
	fs.BoolVar(&o.includeDomain, "include-domain", true, "prefix .json file names with the domain")
	fs.BoolVar(&o.force, "force", false, "bypass cached translation site metadata")
	fs.BoolVar(&o.core, "core", false, "update every WordPress core subproject")

	return &o
}

func main() {
	audit.SetDefaultLogger()

	opts := registerFlags(flag.CommandLine)

	// LoadConfig parses the command line, including the flags above.
	if err := config.Global.LoadConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(2)
	}

	if err := i18n.Setup(po.FS); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize i18n engine:", err)
		os.Exit(2)
	}

	s, client, err := syncer.Setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Log lines follow the locale of the environment, e.g. LANG=pt_PT.UTF-8.
	ctx = i18n.WithTag(ctx, i18n.Match(os.Getenv("LANG")))

	if err := run(ctx, s, client, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the passes selected by o and prints their log to out.
func run(ctx context.Context, s *syncer.Syncer, locales syncer.Locales, o *options, out io.Writer) error {
	if strings.TrimSpace(o.locales) == "" {
		return errMissingLocale
	}

	wpLocales := strings.Split(o.locales, ",")

	if o.core {
		failed := 0

		for _, res := range s.UpdateCore(ctx, wpLocales, syncer.CoreOptions{
			Compiled:     o.compiled,
			JSON:         o.json,
			PHP:          o.php,
			ForceRefresh: o.force,
		}) {
			if !printResult(out, res.Result) {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%w: %d of the core passes failed", errPassFailed, failed)
		}

		return nil
	}

	t, err := project.ParseType(o.typ)
	if err != nil {
		return err
	}

	p, err := project.New(t, o.slug, o.domain, "")
	if err != nil {
		return err
	}

	l, err := locales.Locale(ctx, strings.TrimSpace(wpLocales[0]), o.force)
	if err != nil {
		if errors.Is(err, translate.ErrUnknownLocale) {
			return err
		}

		printResult(out, outcome.Result{Err: outcome.New(outcome.KindAPIUnavailable,
			i18n.Tr(ctx, "The WordPress.org Translations API is unavailable."), err)})

		return errPassFailed
	}

	if !printResult(out, s.Sync(ctx, syncer.Request{
		Project:       p,
		Locale:        l,
		Compiled:      o.compiled,
		JSON:          o.json,
		PHP:           o.php,
		IncludeDomain: o.includeDomain,
		ForceRefresh:  o.force,
	})) {
		return errPassFailed
	}

	return nil
}

// printResult writes the log of res followed by its error, if any, and
// reports whether the pass succeeded.
func printResult(out io.Writer, res outcome.Result) bool {
	for _, line := range res.Log {
		fmt.Fprintln(out, line)
	}

	if res.Err != nil {
		fmt.Fprintf(out, "Error [%s]: %s\n", res.Err.Kind, res.Err.Message)
	}

	return res.OK()
}
