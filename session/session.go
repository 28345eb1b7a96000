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

// Package session implements the client side of the chunk-transfer
// protocol: one listener's pay-per-chunk stream of one song from one
// distributor. The session pays for chunks through the ledger, fetches them
// from the distributor over TLS against a pinned certificate, and validates
// each chunk's digest against the ledger before releasing it.
package session

import (
	"crypto/x509"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/strum/ledger"
)

// Session represents one listener's active stream of one song. A Session is
// owned by the listener that created it; only read-only metadata accessors
// are safe to call from other goroutines
type Session struct {
	config Config
	logger *slog.Logger

	mutex       sync.Mutex
	active      bool
	onChain     bool
	id          ledger.SessionID
	song        ledger.Song
	metadata    ledger.SongMetadata
	distributor ledger.Address
	endpoint    ledger.Endpoint
	certPool    *x509.CertPool
	paidChunks  map[int]bool
	lastPaid    int
	fetchConn   closer
}

type closer interface {
	Close() error
}

// New returns a Session using the provided config. The session is active
// locally but does not exist on chain until Create is called
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		config:     cfg,
		logger:     logger,
		active:     true,
		paidChunks: make(map[int]bool),
		lastPaid:   -1,
	}
}

// Create looks up the caller's balance, creates the on-chain session, loads
// song metadata, and resolves the distributor's endpoint and certificate.
// It fails with ledger.InsufficientFundsError before any transaction is
// submitted if the song's price exceeds the available balance
func (s *Session) Create(song ledger.Song) error {
	funds, err := s.config.Ledger.GetBalance()
	if err != nil {
		return ledger.CallError{Op: "get_balance", Err: err}
	}
	if song.Price > funds {
		return ledger.InsufficientFundsError{
			Shortfall: song.Price - funds,
		}
	}
	sessionId, distributor, err := s.config.Ledger.CreateSession(
		song.ID,
		s.config.Distributor,
	)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.id = sessionId
	s.song = song
	s.distributor = distributor
	s.onChain = true
	s.mutex.Unlock()
	metadata, err := s.config.Ledger.GetSongMetadata(song.ID)
	if err != nil {
		return ledger.CallError{Op: "get_song_metadata", Err: err}
	}
	endpoint, err := s.config.Ledger.ResolveDistributorEndpoint(distributor)
	if err != nil {
		return err
	}
	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM([]byte(endpoint.Certificate)) {
		return ledger.ErrInvalidDistributor
	}
	s.mutex.Lock()
	s.metadata = metadata
	s.endpoint = endpoint
	s.certPool = certPool
	s.mutex.Unlock()
	s.logger.Debug(
		"created session",
		"component", "session",
		"session_id", string(sessionId),
		"song_id", string(song.ID),
		"distributor", string(distributor),
	)
	return nil
}

// Close marks the session inactive locally and unblocks any in-flight chunk
// fetch. It has no ledger effect and is safe to call more than once
func (s *Session) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.active {
		return
	}
	s.active = false
	if s.fetchConn != nil {
		// unblock an in-flight fetch
		s.fetchConn.Close()
	}
}

// Settlement summarizes how the total paid in a session splits between the
// song's author and the serving distributor
type Settlement struct {
	TotalPaid       uint64
	AuthorPaid      uint64
	DistributorPaid uint64
}

// CloseOnChain closes the session on the ledger and returns the settlement
// summary. A failure to close is reported through the returned error but
// the settlement is computed regardless
func (s *Session) CloseOnChain() (Settlement, error) {
	s.mutex.Lock()
	sessionId := s.id
	onChain := s.onChain
	s.onChain = false
	s.mutex.Unlock()
	var closeErr error
	if onChain {
		if err := s.config.Ledger.CloseSession(sessionId); err != nil {
			s.logger.Warn(
				"failed to close session on chain",
				"component", "session",
				"session_id", string(sessionId),
				"error", err,
			)
			closeErr = err
		}
	}
	return s.settlement(), closeErr
}

func (s *Session) settlement() Settlement {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.metadata.ChunkCount == 0 {
		return Settlement{}
	}
	totalPaid := s.song.Price *
		uint64(len(s.paidChunks)) /
		uint64(s.metadata.ChunkCount)
	authorPaid, distributorPaid := ledger.SplitPayment(totalPaid)
	return Settlement{
		TotalPaid:       totalPaid,
		AuthorPaid:      authorPaid,
		DistributorPaid: distributorPaid,
	}
}

// Active returns whether the session is still active locally
func (s *Session) Active() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.active
}

// OnChain returns whether the session currently exists on the ledger
func (s *Session) OnChain() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.onChain
}

// Id returns the session's ledger-derived identifier
func (s *Session) Id() ledger.SessionID {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.id
}

// Length returns the song's byte length
func (s *Session) Length() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.metadata.Length
}

// Duration returns the song's playback duration
func (s *Session) Duration() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.metadata.Duration
}

// ChunkCount returns the number of chunks in the song
func (s *Session) ChunkCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.metadata.ChunkCount
}

// PaidChunkCount returns how many chunks have been paid for so far
func (s *Session) PaidChunkCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.paidChunks)
}
