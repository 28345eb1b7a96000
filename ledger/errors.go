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

package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAccount is returned when an address has no registered
	// account on the ledger
	ErrUnknownAccount = errors.New("unknown account")
	// ErrUnknownSong is returned when a song ID is not published on the
	// ledger
	ErrUnknownSong = errors.New("unknown song")
	// ErrUnknownSession is returned when a session ID does not exist on
	// the ledger
	ErrUnknownSession = errors.New("unknown session")
	// ErrInvalidDistributor is returned when a distributor's published
	// endpoint record is missing or malformed
	ErrInvalidDistributor = errors.New("invalid distributor endpoint")
	// ErrNoDistributor is returned when no distributor is serving a song
	ErrNoDistributor = errors.New("no distributor available for song")
)

// InsufficientFundsError is returned when an account's balance cannot cover
// a song's price. It carries the shortfall so callers can report it
type InsufficientFundsError struct {
	Shortfall uint64
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %d short", e.Shortfall)
}

// CallError wraps a rejected or failed ledger transaction with the name of
// the call that failed
type CallError struct {
	Op  string
	Err error
}

func (e CallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ledger call failed: %s", e.Op)
	}
	return fmt.Sprintf("ledger call failed: %s: %s", e.Op, e.Err)
}

func (e CallError) Unwrap() error {
	return e.Err
}
