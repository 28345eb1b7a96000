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

// Package test provides helpers shared by package tests
package test

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DecodeHexString is a helper function for tests that decodes hex strings.
// It doesn't return an error value, which makes it usable inline
func DecodeHexString(hexData string) []byte {
	hexData = strings.TrimSpace(hexData)
	decoded, err := hex.DecodeString(hexData)
	if err != nil {
		panic(fmt.Sprintf("error decoding hex: %s", err))
	}
	return decoded
}

// RandomBytes returns deterministic pseudo-random content for test songs
func RandomBytes(seed int64, size int) []byte {
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, size)
	rng.Read(data)
	return data
}

// StubPlayer is a scripted media player for buffer tests. Position and
// elapsed time are driven by the test rather than by real playback
type StubPlayer struct {
	mutex    sync.Mutex
	playing  bool
	position float64
	elapsed  time.Duration
	plays    int
	pauses   int
	stops    int
}

func (p *StubPlayer) Play() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.playing = true
	p.plays++
}

func (p *StubPlayer) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.playing = false
	p.pauses++
}

func (p *StubPlayer) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.playing = false
	p.stops++
}

func (p *StubPlayer) IsPlaying() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.playing
}

func (p *StubPlayer) Position() float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.position
}

func (p *StubPlayer) Elapsed() time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.elapsed
}

// SetProgress scripts the player's reported position and elapsed time
func (p *StubPlayer) SetProgress(position float64, elapsed time.Duration) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.position = position
	p.elapsed = elapsed
}

// Plays returns how many times Play was called
func (p *StubPlayer) Plays() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.plays
}

// Pauses returns how many times Pause was called
func (p *StubPlayer) Pauses() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.pauses
}

// Stops returns how many times Stop was called
func (p *StubPlayer) Stops() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.stops
}
