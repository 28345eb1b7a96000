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

// Package server implements the distribution endpoint: it accepts TLS
// connections from listeners, authorizes each chunk request against ledger
// state, and serves the requested chunk bytes. One request is handled at a
// time; per-request failures degrade to an empty response and never stop
// the accept loop.
package server

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/protocol"
	"github.com/blinklabs-io/strum/store"
)

// ErrNoPortAvailable is returned by Start when no port in the scan range
// could be bound
var ErrNoPortAvailable = errors.New("no port available in scan range")

// Server is a distribution endpoint instance
type Server struct {
	config    Config
	logger    *slog.Logger
	store     *store.Store
	listener  *net.TCPListener
	tlsConfig *tls.Config
	endpoint  ledger.Endpoint
	debug     atomic.Bool
	closed    atomic.Bool
	closeChan chan struct{}
	onceClose sync.Once
	waitGroup sync.WaitGroup
}

// New returns a Server using the provided config
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config:    cfg,
		logger:    logger,
		store:     store.NewStore(),
		closeChan: make(chan struct{}),
	}
	s.debug.Store(cfg.Debug)
	return s
}

// Start binds a listening socket on the first available port at or above
// the configured base port, establishes the long-lived TLS certificate, and
// starts the accept loop on its own goroutine. Failure to bind any port in
// the scan range is fatal to this instance
func (s *Server) Start() error {
	cert, certPem, err := loadOrGenerateCert(s.config.DataDir, s.config.Host)
	if err != nil {
		return err
	}
	s.tlsConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	var listener net.Listener
	var port uint
	for i := uint(0); i < s.config.PortScanLimit; i++ {
		port = s.config.BasePort + i
		listener, err = net.Listen(
			"tcp",
			fmt.Sprintf("%s:%d", s.config.Host, port),
		)
		if err == nil {
			break
		}
		listener = nil
	}
	if listener == nil {
		return fmt.Errorf(
			"%w: %d-%d",
			ErrNoPortAvailable,
			s.config.BasePort,
			port,
		)
	}
	s.listener = listener.(*net.TCPListener)
	s.endpoint = ledger.Endpoint{
		Host:        s.config.Host,
		Port:        port,
		Certificate: certPem,
	}
	s.logger.Info(
		"serving music",
		"component", "server",
		"address", s.endpoint.Dial(),
	)
	s.waitGroup.Add(1)
	go s.acceptLoop()
	return nil
}

// Endpoint returns the endpoint record to publish to the ledger. It is
// valid after Start returns
func (s *Server) Endpoint() ledger.Endpoint {
	return s.endpoint
}

// NewSong loads a song's persisted content from the library, partitions it
// into chunks, and makes it immediately servable
func (s *Server) NewSong(song ledger.Song) error {
	record, err := s.config.Library.Get(song.ID)
	if err != nil {
		return err
	}
	s.store.AddSong(song.ID, store.SplitChunks(record.Data, s.config.ChunkSize))
	s.logger.Info(
		"serving new song",
		"component", "server",
		"song_id", string(song.ID),
		"name", record.Name,
		"author", record.Author,
	)
	return nil
}

// RemoveSong stops serving a song
func (s *Server) RemoveSong(songId ledger.SongID) {
	s.store.RemoveSong(songId)
}

// Monitor enables verbose per-request logging and returns the number of
// songs currently being served
func (s *Server) Monitor() int {
	s.debug.Store(true)
	return s.store.SongCount()
}

// Close marks the endpoint for shutdown and waits for the accept loop to
// observe it. An in-flight request is allowed to finish; the accept loop's
// poll interval bounds shutdown latency. Safe to call more than once
func (s *Server) Close() {
	s.onceClose.Do(func() {
		s.closed.Store(true)
		close(s.closeChan)
		if s.listener != nil {
			s.waitGroup.Wait()
			s.listener.Close()
		}
	})
}

func (s *Server) acceptLoop() {
	defer s.waitGroup.Done()
	for {
		select {
		case <-s.closeChan:
			return
		default:
		}
		// Bounded wait so shutdown is observed promptly
		if err := s.listener.SetDeadline(
			time.Now().Add(s.config.AcceptPollInterval),
		); err != nil {
			s.logger.Error(
				"failed to set accept deadline",
				"component", "server",
				"error", err,
			)
			return
		}
		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if s.closed.Load() {
				return
			}
			s.logger.Warn(
				"accept failed",
				"component", "server",
				"error", err,
			)
			continue
		}
		// One connection at a time, like a listen backlog of one.
		// The authorization sequence is what matters, not throughput
		s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	tlsConn := tls.Server(conn, s.tlsConfig)
	defer tlsConn.Close()
	if err := tlsConn.SetDeadline(
		time.Now().Add(s.config.RequestTimeout),
	); err != nil {
		return
	}
	buf := make([]byte, protocol.MaxRequestLen)
	n, err := tlsConn.Read(buf)
	if err != nil || n == 0 {
		s.debugLog("failed to read request", "error", err)
		return
	}
	if err := s.authorizeAndServe(tlsConn, string(buf[:n])); err != nil {
		// Rejected requests get no response. The reason is for the
		// operator only
		s.debugLog(
			"bad request",
			"remote", conn.RemoteAddr().String(),
			"error", err,
		)
	}
}

// authorizeAndServe checks a request against the ledger and writes the
// requested chunk if every check passes: the session is active, this server
// is the session's designated distributor, the signature matches the
// session's listener, and the chunk has been paid for
func (s *Server) authorizeAndServe(conn net.Conn, msg string) error {
	request, err := protocol.ParseRequest(msg)
	if err != nil {
		return err
	}
	info, err := s.config.Ledger.GetSessionInfo(request.SessionId)
	if err != nil {
		return fmt.Errorf("session lookup: %w", err)
	}
	if !info.Active {
		return fmt.Errorf("session is not active")
	}
	if info.Distributor != s.config.Ledger.Address() {
		return fmt.Errorf("session is for a different distributor")
	}
	valid, err := s.config.Ledger.Verify(
		request.Payload(),
		request.Signature,
		info.Listener,
	)
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	if !valid {
		return fmt.Errorf("request not signed by session listener")
	}
	paid, err := s.config.Ledger.IsChunkPaid(request.SessionId, request.Index)
	if err != nil {
		return fmt.Errorf("payment lookup: %w", err)
	}
	if !paid {
		return fmt.Errorf("chunk %d has not been paid", request.Index)
	}
	chunk, err := s.store.Chunk(info.SongID, request.Index)
	if err != nil {
		return err
	}
	if _, err := conn.Write(chunk); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	s.debugLog(
		"served chunk",
		"protocol", protocol.ProtocolName,
		"session_id", string(request.SessionId),
		"song_id", string(info.SongID),
		"index", request.Index,
		"listener", string(info.Listener),
	)
	return nil
}

func (s *Server) debugLog(msg string, args ...any) {
	if !s.debug.Load() {
		return
	}
	args = append([]any{"component", "server"}, args...)
	s.logger.Debug(msg, args...)
}
