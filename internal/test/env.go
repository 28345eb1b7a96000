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

package test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/ledger/memledger"
	"github.com/blinklabs-io/strum/server"
	"github.com/blinklabs-io/strum/store"
	"github.com/blinklabs-io/strum/upload"
)

// Env is a complete loopback fixture: an in-process chain with author,
// distributor, and listener accounts, a published song, and a running
// distribution endpoint serving it
type Env struct {
	Chain       *memledger.Chain
	Author      *memledger.Account
	Distributor *memledger.Account
	Listener    *memledger.Account
	Library     *store.Library
	Server      *server.Server
	Song        ledger.Song
	Data        []byte
}

// EnvParams controls the fixture's song and balances
type EnvParams struct {
	SongSize        int
	ChunkSize       int
	Price           uint64
	ListenerBalance uint64
	Duration        time.Duration
}

// NewEnv builds a loopback environment and registers cleanup with t
func NewEnv(t *testing.T, params EnvParams) *Env {
	t.Helper()
	if params.SongSize == 0 {
		params.SongSize = 250
	}
	if params.ChunkSize == 0 {
		params.ChunkSize = 50
	}
	if params.Duration == 0 {
		params.Duration = 3 * time.Minute
	}
	logger := slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: slog.LevelWarn},
	))
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	if err != nil {
		t.Fatalf("create author account: %s", err)
	}
	distributor, err := chain.NewAccount("distributor", 0)
	if err != nil {
		t.Fatalf("create distributor account: %s", err)
	}
	listener, err := chain.NewAccount("listener", params.ListenerBalance)
	if err != nil {
		t.Fatalf("create listener account: %s", err)
	}
	library, err := store.OpenLibrary(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("open library: %s", err)
	}
	t.Cleanup(func() { library.Close() })

	data := RandomBytes(42, params.SongSize)
	up := upload.New(
		data,
		"test song",
		params.Price,
		params.Duration,
		params.ChunkSize,
	)
	songId, err := up.Publish(author, library)
	if err != nil {
		t.Fatalf("publish song: %s", err)
	}

	srv := server.New(server.NewConfig(
		server.WithLedger(distributor),
		server.WithLibrary(library),
		server.WithLogger(logger),
		server.WithBasePort(42000),
		server.WithChunkSize(params.ChunkSize),
		server.WithDataDir(t.TempDir()),
		server.WithAcceptPollInterval(50*time.Millisecond),
	))
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %s", err)
	}
	t.Cleanup(srv.Close)
	if err := distributor.Distribute(songId); err != nil {
		t.Fatalf("distribute: %s", err)
	}
	if err := distributor.PublishEndpoint(srv.Endpoint()); err != nil {
		t.Fatalf("publish endpoint: %s", err)
	}
	songs, err := listener.SongList()
	if err != nil {
		t.Fatalf("song list: %s", err)
	}
	var song ledger.Song
	for _, s := range songs {
		if s.ID == songId {
			song = s
		}
	}
	if song.ID == "" {
		t.Fatalf("published song not found in song list")
	}
	if err := srv.NewSong(song); err != nil {
		t.Fatalf("serve song: %s", err)
	}
	return &Env{
		Chain:       chain,
		Author:      author,
		Distributor: distributor,
		Listener:    listener,
		Library:     library,
		Server:      srv,
		Song:        song,
		Data:        data,
	}
}
