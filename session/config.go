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

package session

import (
	"log/slog"
	"time"

	"github.com/blinklabs-io/strum/ledger"
)

// Config is used to configure a Session
type Config struct {
	Ledger      ledger.Ledger
	Distributor ledger.Address
	Logger      *slog.Logger
	DialTimeout time.Duration
}

// SessionOptionFunc is a type that represents functions that modify the
// session config
type SessionOptionFunc func(*Config)

// NewConfig returns a new session config with the provided options applied
func NewConfig(options ...SessionOptionFunc) Config {
	c := Config{
		DialTimeout: 10 * time.Second,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithLedger specifies the ledger client used for payments, lookups, and
// signing
func WithLedger(l ledger.Ledger) SessionOptionFunc {
	return func(c *Config) {
		c.Ledger = l
	}
}

// WithDistributor pins the session to a specific distributor instead of
// letting the ledger select one at random
func WithDistributor(distributor ledger.Address) SessionOptionFunc {
	return func(c *Config) {
		c.Distributor = distributor
	}
}

// WithLogger specifies a logger for the session
func WithLogger(logger *slog.Logger) SessionOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithDialTimeout specifies the timeout for connecting to the distributor
func WithDialTimeout(timeout time.Duration) SessionOptionFunc {
	return func(c *Config) {
		c.DialTimeout = timeout
	}
}
