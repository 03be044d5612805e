// Copyright 2025, the ttsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package listen opens the server's listener on either a TCP address or a
// unix domain socket.
package listen

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"

	"github.com/rs/zerolog/log"
)

var (
	errChmodSocket = errors.New("failed to change unix socket permissions")
	errChownSocket = errors.New("failed to change unix socket ownership")
)

// Options selects the listener. A non-empty Socket takes precedence over
// Host and Port.
type Options struct {
	Host string
	Port string

	Socket string
	Mode   os.FileMode
	// Owner and Group accept a name or a numeric id. Empty leaves the
	// socket's ownership unchanged.
	Owner string
	Group string
}

// Open starts listening as configured by o.
func Open(ctx context.Context, o Options) (net.Listener, error) {
	var lc net.ListenConfig

	if o.Socket != "" {
		l, err := lc.Listen(ctx, "unix", o.Socket)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on unix socket %s: %w", o.Socket, err)
		}

		if err := o.prepareSocket(); err != nil {
			_ = l.Close()

			return nil, err
		}

		log.Info().Str("sys", "listen").Str("address", o.Socket).Msg("Listening on Unix domain socket")

		return l, nil
	}

	l, err := lc.Listen(ctx, "tcp", net.JoinHostPort(o.Host, o.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", net.JoinHostPort(o.Host, o.Port), err)
	}

	addr := l.Addr().String()

	if _, port, err := net.SplitHostPort(addr); err == nil {
		log.Info().
			Str("sys", "listen").
			Str("address", addr).
			Str("url", "http://localhost:"+port+"/api/health").
			Msg("Listening on address")
	}

	return l, nil
}

func (o Options) prepareSocket() error {
	uid, err := lookupID(o.Owner, userID)
	if err != nil {
		return err
	}

	gid, err := lookupID(o.Group, groupID)
	if err != nil {
		return err
	}

	if uid != -1 || gid != -1 {
		if err := os.Chown(o.Socket, uid, gid); err != nil {
			return fmt.Errorf("%w: %w", errChownSocket, err)
		}
	}

	if err := os.Chmod(o.Socket, o.Mode); err != nil {
		return fmt.Errorf("%w: %w", errChmodSocket, err)
	}

	return nil
}

func userID(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", err
	}

	return u.Uid, nil
}

func groupID(name string) (string, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return "", err
	}

	return g.Gid, nil
}

// lookupID resolves v to a numeric id. Empty yields -1, which os.Chown
// treats as "leave unchanged".
func lookupID(v string, lookup func(string) (string, error)) (int, error) {
	if v == "" {
		return -1, nil
	}

	if id, err := strconv.Atoi(v); err == nil {
		return id, nil
	}

	raw, err := lookup(v)
	if err != nil {
		return -1, fmt.Errorf("failed to look up %q: %w", v, err)
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return -1, fmt.Errorf("non-numeric id %q for %q: %w", raw, v, err)
	}

	return id, nil
}
