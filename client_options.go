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

package strum

import (
	"errors"
	"log/slog"

	"github.com/blinklabs-io/strum/buffer"
	"github.com/blinklabs-io/strum/ledger"
)

var (
	// ErrNoLedger is returned when a Client is created without a ledger
	ErrNoLedger = errors.New("no ledger client provided")
	// ErrInterrupted is returned when a download is interrupted by the
	// session being closed
	ErrInterrupted = errors.New("session closed before completion")
)

// ClientOptionFunc is a type that represents functions that modify the
// client
type ClientOptionFunc func(*Client)

// WithLedger specifies the ledger account the client acts as
func WithLedger(l ledger.Ledger) ClientOptionFunc {
	return func(c *Client) {
		c.ledger = l
	}
}

// WithLogger specifies a logger for the client and everything it creates
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDistributor pins sessions to a specific distributor instead of
// letting the ledger select one
func WithDistributor(distributor ledger.Address) ClientOptionFunc {
	return func(c *Client) {
		c.distributor = distributor
	}
}

// WithBufferOptions specifies additional options for the prefetch
// controller used by Listen
func WithBufferOptions(options ...buffer.BufferOptionFunc) ClientOptionFunc {
	return func(c *Client) {
		c.bufferConfig = options
	}
}
