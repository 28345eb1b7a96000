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
	"time"
)

// Player is the media player the prefetch controller paces against. The
// player runs its own decode and output thread; the controller only starts,
// pauses, and observes it
type Player interface {
	// Play starts or resumes playback
	Play()
	// Pause suspends playback without losing position
	Pause()
	// Stop halts playback
	Stop()
	// IsPlaying returns whether playback is currently progressing
	IsPlaying() bool
	// Position returns the playback position as a fraction of the loaded
	// media in [0, 1]
	Position() float64
	// Elapsed returns the playback time elapsed so far
	Elapsed() time.Duration
}
