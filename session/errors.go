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
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed is returned when an operation is attempted on a
	// session that has been closed locally
	ErrSessionClosed = errors.New("session is closed")
	// ErrSessionNotCreated is returned when chunks are requested before
	// the on-chain session exists
	ErrSessionNotCreated = errors.New("session has not been created on chain")
)

// TransportError wraps a connection failure while fetching a chunk. The
// chunk's payment is already recorded on the ledger, so the caller may retry
// the fetch from the same index without paying again
type TransportError struct {
	Index int
	Err   error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("transport error fetching chunk %d: %s", e.Index, e.Err)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// ChunkIntegrityError indicates the digest of a received chunk does not
// match the digest recorded on the ledger. The payment for the chunk has
// been consumed, so the fetch must not be silently retried
type ChunkIntegrityError struct {
	Index int
}

func (e ChunkIntegrityError) Error() string {
	return fmt.Sprintf("chunk %d failed integrity check", e.Index)
}
