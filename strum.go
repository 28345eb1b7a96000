// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package strum implements a pay-per-chunk media streaming protocol secured
// by an on-chain payment ledger. A listener pays a distributor
// incrementally, one content chunk at a time, and verifies each chunk's
// digest against the ledger before consuming it.
//
// This package is the main entry point into this library: a Client ties a
// ledger account to the listener-side flows. The session, server, buffer,
// and store packages can be used on their own, but that's not a primary
// design goal.
package strum

import (
	"io"
	"log/slog"

	"github.com/blinklabs-io/strum/buffer"
	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/session"
)

// Client wraps a ledger account with the listener-side streaming and
// download flows
type Client struct {
	ledger       ledger.Ledger
	logger       *slog.Logger
	distributor  ledger.Address
	bufferConfig []buffer.BufferOptionFunc
}

// NewClient returns a new Client with the specified options
func NewClient(options ...ClientOptionFunc) (*Client, error) {
	c := &Client{}
	for _, option := range options {
		option(c)
	}
	if c.ledger == nil {
		return nil, ErrNoLedger
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Listen streams a song through the prefetch controller into the given
// player and sink until playback completes or fails. The session is always
// torn down on exit: closed locally, and closed on chain when it was
// created there. The settlement summary reflects everything paid
func (c *Client) Listen(
	song ledger.Song,
	player buffer.Player,
	sink io.Writer,
) (session.Settlement, error) {
	sess := session.New(session.NewConfig(
		session.WithLedger(c.ledger),
		session.WithDistributor(c.distributor),
		session.WithLogger(c.logger),
	))
	defer sess.Close()
	if err := sess.Create(song); err != nil {
		return c.teardown(sess), err
	}
	bufferOpts := append(
		[]buffer.BufferOptionFunc{
			buffer.WithSession(sess),
			buffer.WithPlayer(player),
			buffer.WithSink(sink),
			buffer.WithLogger(c.logger),
		},
		c.bufferConfig...,
	)
	buf := buffer.New(buffer.NewConfig(bufferOpts...))
	buf.Start()
	buf.Wait()
	return c.teardown(sess), buf.Err()
}

// Download fetches and pays for every chunk of a song in order, writing
// the validated bytes to w. Teardown semantics match Listen
func (c *Client) Download(
	song ledger.Song,
	w io.Writer,
) (session.Settlement, error) {
	sess := session.New(session.NewConfig(
		session.WithLedger(c.ledger),
		session.WithDistributor(c.distributor),
		session.WithLogger(c.logger),
	))
	defer sess.Close()
	if err := sess.Create(song); err != nil {
		return c.teardown(sess), err
	}
	for index := 0; index < sess.ChunkCount(); index++ {
		if !sess.Active() {
			return c.teardown(sess), ErrInterrupted
		}
		chunk, err := sess.GetChunk(index)
		if err != nil {
			return c.teardown(sess), err
		}
		if _, err := w.Write(chunk); err != nil {
			return c.teardown(sess), err
		}
	}
	return c.teardown(sess), nil
}

// teardown closes the session locally and, when it exists on chain,
// best-effort closes it there too. Errors from the on-chain close are
// logged, not escalated
func (c *Client) teardown(sess *session.Session) session.Settlement {
	sess.Close()
	if !sess.OnChain() {
		return session.Settlement{}
	}
	settlement, err := sess.CloseOnChain()
	if err != nil {
		c.logger.Warn(
			"session close failed on chain",
			"component", "client",
			"session_id", string(sess.Id()),
			"error", err,
		)
	}
	return settlement
}
