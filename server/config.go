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

package server

import (
	"log/slog"
	"time"

	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/store"
)

// Config is used to configure a Server
type Config struct {
	Ledger             ledger.Ledger
	Library            *store.Library
	Logger             *slog.Logger
	Host               string
	BasePort           uint
	PortScanLimit      uint
	ChunkSize          int
	AcceptPollInterval time.Duration
	RequestTimeout     time.Duration
	DataDir            string
	Debug              bool
}

// ServerOptionFunc is a type that represents functions that modify the
// server config
type ServerOptionFunc func(*Config)

// NewConfig returns a new server config with the provided options applied
func NewConfig(options ...ServerOptionFunc) Config {
	c := Config{
		Host:               "127.0.0.1",
		BasePort:           3334,
		PortScanLimit:      100,
		ChunkSize:          store.DefaultChunkSize,
		AcceptPollInterval: 200 * time.Millisecond,
		RequestTimeout:     5 * time.Second,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithLedger specifies the ledger client used for session lookups,
// signature verification, and payment checks
func WithLedger(l ledger.Ledger) ServerOptionFunc {
	return func(c *Config) {
		c.Ledger = l
	}
}

// WithLibrary specifies the persisted song library to load songs from
func WithLibrary(library *store.Library) ServerOptionFunc {
	return func(c *Config) {
		c.Library = library
	}
}

// WithLogger specifies a logger for the server
func WithLogger(logger *slog.Logger) ServerOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithHost specifies the address to listen on
func WithHost(host string) ServerOptionFunc {
	return func(c *Config) {
		c.Host = host
	}
}

// WithBasePort specifies the first port to try binding. Startup scans
// upward from here until a port is available
func WithBasePort(port uint) ServerOptionFunc {
	return func(c *Config) {
		c.BasePort = port
	}
}

// WithPortScanLimit specifies how many ports to try before startup fails
func WithPortScanLimit(limit uint) ServerOptionFunc {
	return func(c *Config) {
		c.PortScanLimit = limit
	}
}

// WithChunkSize specifies the chunk size used when loading songs. It must
// match the chunk size used at upload time
func WithChunkSize(size int) ServerOptionFunc {
	return func(c *Config) {
		c.ChunkSize = size
	}
}

// WithAcceptPollInterval specifies how often the accept loop wakes to check
// for shutdown
func WithAcceptPollInterval(interval time.Duration) ServerOptionFunc {
	return func(c *Config) {
		c.AcceptPollInterval = interval
	}
}

// WithRequestTimeout specifies the per-connection deadline for reading a
// request and writing its response
func WithRequestTimeout(timeout time.Duration) ServerOptionFunc {
	return func(c *Config) {
		c.RequestTimeout = timeout
	}
}

// WithDataDir specifies where the server keeps its certificate and key
func WithDataDir(dir string) ServerOptionFunc {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithDebug enables verbose per-request logging
func WithDebug(debug bool) ServerOptionFunc {
	return func(c *Config) {
		c.Debug = debug
	}
}
