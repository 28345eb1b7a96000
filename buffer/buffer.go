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

// Package buffer implements the adaptive prefetch controller that paces
// chunk acquisition to playback consumption. Each chunk fetch is a real
// payment, so the controller defers fetching until the estimated time left
// in already-loaded audio drops below a threshold, and pauses playback
// preemptively before the loaded data runs out.
package buffer

import (
	"log/slog"
	"sync"
	"time"
)

// Buffer drives a session ahead of playback. It runs two goroutines: a
// fetch loop that pays for and loads chunks, and a pacing loop that starts,
// pauses, and resumes the player based on the time-left estimate
type Buffer struct {
	config Config
	logger *slog.Logger

	mutex        sync.Mutex
	loaded       uint64
	lastStopLoad uint64
	lastPos      float64

	doneChan  chan struct{}
	onceStart sync.Once
	onceStop  sync.Once
	waitGroup sync.WaitGroup

	errMutex sync.Mutex
	err      error
}

// New returns a Buffer using the provided config
func New(cfg Config) *Buffer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Buffer{
		config:   cfg,
		logger:   logger,
		doneChan: make(chan struct{}),
	}
}

// Start launches the fetch and pacing loops. Safe to call multiple times
func (b *Buffer) Start() {
	b.onceStart.Do(func() {
		b.waitGroup.Add(2)
		go b.fetchLoop()
		go b.paceLoop()
	})
}

// Wait blocks until both loops have finished, either because playback
// completed or because the buffer was closed
func (b *Buffer) Wait() {
	b.waitGroup.Wait()
}

// Close stops both loops, halts the player, and waits for the loops to
// exit. Safe to call more than once
func (b *Buffer) Close() {
	b.stop()
	b.waitGroup.Wait()
}

// stop signals both loops to exit without waiting for them. Used
// internally so a loop can terminate the other without deadlocking on
// itself
func (b *Buffer) stop() {
	b.onceStop.Do(func() {
		close(b.doneChan)
	})
}

// Err returns the first error the fetch loop hit, if any
func (b *Buffer) Err() error {
	b.errMutex.Lock()
	defer b.errMutex.Unlock()
	return b.err
}

func (b *Buffer) fail(err error) {
	b.errMutex.Lock()
	if b.err == nil {
		b.err = err
	}
	b.errMutex.Unlock()
}

// Loaded returns the number of bytes loaded so far
func (b *Buffer) Loaded() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.loaded
}

// Progress returns overall playback progress as a fraction of the song
// length
func (b *Buffer) Progress() float64 {
	length := b.config.Session.Length()
	if length == 0 {
		return 0
	}
	b.mutex.Lock()
	base := b.loaded
	if !b.config.Player.IsPlaying() {
		base = b.lastStopLoad
	}
	b.mutex.Unlock()
	return float64(base) * b.config.Player.Position() / float64(length)
}

// timeLeft estimates how long playback can continue before it exhausts the
// data loaded so far. While playback is progressing it extrapolates from
// the player's elapsed time and its position within the data that was
// loaded when playback last advanced; before playback starts it falls back
// to the song duration scaled by the loaded fraction
func (b *Buffer) timeLeft() time.Duration {
	b.mutex.Lock()
	loaded := b.loaded
	lastStopLoad := b.lastStopLoad
	b.mutex.Unlock()
	if loaded == 0 {
		return 0
	}
	// Position is reported against the loaded media; rescale it to the
	// data present when playback last progressed
	pos := b.config.Player.Position() *
		float64(lastStopLoad) / float64(loaded)
	if pos > 0 {
		if pos > 1 {
			pos = 1
		}
		elapsed := b.config.Player.Elapsed()
		return time.Duration(float64(elapsed) * (1 - pos) / pos)
	}
	length := b.config.Session.Length()
	if length == 0 {
		return 0
	}
	return time.Duration(
		float64(b.config.Session.Duration()) *
			float64(loaded) / float64(length),
	)
}

// addChunk appends validated chunk bytes to the sink and starts playback
// once enough margin is buffered
func (b *Buffer) addChunk(chunk []byte) error {
	if _, err := b.config.Sink.Write(chunk); err != nil {
		return err
	}
	b.mutex.Lock()
	b.loaded += uint64(len(chunk))
	b.mutex.Unlock()
	if !b.config.Player.IsPlaying() &&
		b.timeLeft() > b.config.WaitingLimit {
		b.config.Player.Play()
	}
	return nil
}

// fetchLoop pays for and fetches chunks in order, but only when the
// time-left estimate has changed and dropped below the waiting limit. This
// throttles payment rate to actual consumption rate
func (b *Buffer) fetchLoop() {
	defer b.waitGroup.Done()
	chunkCount := b.config.Session.ChunkCount()
	pastTime := time.Duration(-1)
	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()
	for index := 0; index < chunkCount && b.config.Session.Active(); {
		t := b.timeLeft()
		if t != pastTime && t < b.config.WaitingLimit {
			pastTime = t
			chunk, err := b.config.Session.GetChunk(index)
			if err != nil {
				b.fail(err)
				b.stop()
				return
			}
			if err := b.addChunk(chunk); err != nil {
				b.fail(err)
				b.stop()
				return
			}
			index++
			continue
		}
		select {
		case <-b.doneChan:
			return
		case <-ticker.C:
		}
	}
	b.logger.Debug(
		"all chunks loaded",
		"component", "buffer",
		"loaded", b.Loaded(),
	)
}

// paceLoop tracks playback progress and applies the two-threshold scheme:
// resume only with a full waiting limit of margin, pause already at half.
// The gap prevents play/pause oscillation at the resume boundary
func (b *Buffer) paceLoop() {
	defer b.waitGroup.Done()
	defer b.config.Player.Stop()
	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.doneChan:
			return
		case <-ticker.C:
		}
		if b.Progress() >= 0.99 {
			// Playback complete
			b.stop()
			return
		}
		b.mutex.Lock()
		if b.config.Player.IsPlaying() {
			b.lastStopLoad = b.loaded
		}
		loaded := b.loaded
		lastPos := b.lastPos
		b.mutex.Unlock()
		pos := b.config.Player.Position()
		if pos != lastPos {
			if b.timeLeft() < b.config.WaitingLimit/2 &&
				loaded != b.config.Session.Length() {
				b.config.Player.Pause()
			}
			b.mutex.Lock()
			b.lastPos = pos
			b.mutex.Unlock()
		}
	}
}
