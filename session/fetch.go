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
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/protocol"
)

// GetChunk pays for a chunk (unless already paid), fetches it from the
// distributor, and validates its digest against the ledger before returning
// it. Chunks are paid and fetched in ascending order; payment for an index
// is never repeated within a session
func (s *Session) GetChunk(index int) ([]byte, error) {
	s.mutex.Lock()
	if !s.active {
		s.mutex.Unlock()
		return nil, ErrSessionClosed
	}
	if !s.onChain {
		s.mutex.Unlock()
		return nil, ErrSessionNotCreated
	}
	paid := s.paidChunks[index]
	s.mutex.Unlock()
	if !paid {
		if err := s.config.Ledger.PayChunk(s.id, index); err != nil {
			return nil, err
		}
		s.mutex.Lock()
		s.paidChunks[index] = true
		if index > s.lastPaid {
			s.lastPaid = index
		}
		s.mutex.Unlock()
	}
	chunk, err := s.requestChunk(index)
	if err != nil {
		return nil, err
	}
	observed := protocol.ChunkDigest(chunk)
	valid, err := s.config.Ledger.CheckChunkDigest(
		s.song.ID,
		index,
		observed,
	)
	if err != nil {
		return nil, ledger.CallError{Op: "check_chunk_digest", Err: err}
	}
	if !valid {
		return nil, ChunkIntegrityError{Index: index}
	}
	s.logger.Debug(
		"fetched chunk",
		"component", "session",
		"protocol", protocol.ProtocolName,
		"session_id", string(s.id),
		"index", index,
		"size", len(chunk),
	)
	return chunk, nil
}

// requestChunk sends a signed chunk request to the distributor and reads
// the response until end-of-stream. The distributor's certificate from the
// ledger is the only trust root for the connection
func (s *Session) requestChunk(index int) ([]byte, error) {
	payload := protocol.SigningPayload(s.id, index)
	signature, err := s.config.Ledger.Sign(payload)
	if err != nil {
		return nil, ledger.CallError{Op: "sign", Err: err}
	}
	request := protocol.Request{
		SessionId: s.id,
		Index:     index,
		Signature: signature,
	}
	dialer := &net.Dialer{Timeout: s.config.DialTimeout}
	conn, err := tls.DialWithDialer(
		dialer,
		"tcp",
		s.endpoint.Dial(),
		&tls.Config{
			RootCAs:    s.certPool,
			ServerName: s.endpoint.Host,
			MinVersion: tls.VersionTLS12,
		},
	)
	if err != nil {
		return nil, TransportError{Index: index, Err: err}
	}
	// Expose the connection so Close() can unblock us
	s.mutex.Lock()
	if !s.active {
		s.mutex.Unlock()
		conn.Close()
		return nil, ErrSessionClosed
	}
	s.fetchConn = conn
	s.mutex.Unlock()
	defer func() {
		s.mutex.Lock()
		s.fetchConn = nil
		s.mutex.Unlock()
		conn.Close()
	}()
	if _, err := conn.Write([]byte(request.String())); err != nil {
		return nil, TransportError{Index: index, Err: err}
	}
	chunk, err := io.ReadAll(conn)
	if err != nil && !errors.Is(err, io.EOF) {
		if !s.Active() {
			return nil, ErrSessionClosed
		}
		return nil, TransportError{Index: index, Err: err}
	}
	// A rejected request surfaces as an empty response. The server tells
	// us nothing about why
	if len(chunk) == 0 {
		return nil, TransportError{
			Index: index,
			Err:   fmt.Errorf("no data received"),
		}
	}
	return chunk, nil
}
