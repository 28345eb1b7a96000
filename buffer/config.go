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

package buffer

import (
	"io"
	"log/slog"
	"time"
)

// ChunkSource is the session-facing surface the controller drives. It is
// implemented by session.Session
type ChunkSource interface {
	// GetChunk pays for, fetches, and validates one chunk
	GetChunk(index int) ([]byte, error)
	// Active reports whether the session is still active
	Active() bool
	// Length returns the song's byte length
	Length() uint64
	// Duration returns the song's playback duration
	Duration() time.Duration
	// ChunkCount returns the number of chunks in the song
	ChunkCount() int
}

// Config is used to configure a Buffer
type Config struct {
	Session      ChunkSource
	Player       Player
	Sink         io.Writer
	Logger       *slog.Logger
	WaitingLimit time.Duration
	PollInterval time.Duration
}

// BufferOptionFunc is a type that represents functions that modify the
// buffer config
type BufferOptionFunc func(*Config)

// NewConfig returns a new buffer config with the provided options applied
func NewConfig(options ...BufferOptionFunc) Config {
	c := Config{
		// Keeps roughly a few seconds of audio ahead of playback
		WaitingLimit: 5 * time.Second,
		PollInterval: 100 * time.Millisecond,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithSession specifies the session chunks are fetched through
func WithSession(s ChunkSource) BufferOptionFunc {
	return func(c *Config) {
		c.Session = s
	}
}

// WithPlayer specifies the media player to pace against
func WithPlayer(p Player) BufferOptionFunc {
	return func(c *Config) {
		c.Player = p
	}
}

// WithSink specifies where validated chunk bytes are written for the
// player to consume
func WithSink(w io.Writer) BufferOptionFunc {
	return func(c *Config) {
		c.Sink = w
	}
}

// WithLogger specifies a logger for the buffer
func WithLogger(logger *slog.Logger) BufferOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithWaitingLimit specifies the buffered-time threshold that drives
// fetching and play/pause decisions
func WithWaitingLimit(limit time.Duration) BufferOptionFunc {
	return func(c *Config) {
		c.WaitingLimit = limit
	}
}

// WithPollInterval specifies how often the pacing and fetch loops
// re-evaluate the buffered-time estimate
func WithPollInterval(interval time.Duration) BufferOptionFunc {
	return func(c *Config) {
		c.PollInterval = interval
	}
}
