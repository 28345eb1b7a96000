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

package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/strum"
	"github.com/blinklabs-io/strum/ledger/memledger"
	"github.com/blinklabs-io/strum/server"
	"github.com/blinklabs-io/strum/store"
	"github.com/blinklabs-io/strum/upload"
)

// demoCommand runs the full flow against an in-process ledger: an author
// uploads a song, a distributor serves it, and a listener pays for and
// downloads it chunk by chunk
func demoCommand(cfg Config, args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	file := fs.String("file", "", "media file to stream")
	name := fs.String("name", "demo song", "song name")
	price := fs.Uint64("price", 1100000, "song price in base units")
	duration := fs.Duration(
		"duration",
		3*time.Minute,
		"song playback duration",
	)
	out := fs.String("out", "", "write downloaded bytes to this file")
	if err := fs.Parse(args); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if *file == "" {
		fmt.Printf("You must specify a file with -file\n")
		os.Exit(1)
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: level},
	))
	if err := runDemo(cfg, logger, *file, *name, *price, *duration, *out); err != nil {
		fmt.Printf("demo failed: %s\n", err)
		os.Exit(1)
	}
}

func runDemo(
	cfg Config,
	logger *slog.Logger,
	file string,
	name string,
	price uint64,
	duration time.Duration,
	out string,
) error {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	if err != nil {
		return err
	}
	distributor, err := chain.NewAccount("distributor", 0)
	if err != nil {
		return err
	}
	listener, err := chain.NewAccount("listener", price*2)
	if err != nil {
		return err
	}

	library, err := store.OpenLibrary(
		filepath.Join(cfg.DataDir, "library"),
		logger,
	)
	if err != nil {
		return err
	}
	defer library.Close()

	// Author publishes the song
	up, err := upload.NewFromFile(file, name, price, duration, cfg.ChunkSize)
	if err != nil {
		return err
	}
	songId, err := up.Publish(author, library)
	if err != nil {
		return err
	}
	fmt.Printf(
		"uploaded %s: %d bytes, %d chunks, price %d\n",
		songId,
		len(up.Data),
		len(up.Digests),
		up.Price,
	)

	// Distributor starts serving it
	srv := server.New(server.NewConfig(
		server.WithLedger(distributor),
		server.WithLibrary(library),
		server.WithLogger(logger),
		server.WithHost(cfg.Host),
		server.WithBasePort(cfg.BasePort),
		server.WithChunkSize(cfg.ChunkSize),
		server.WithDataDir(cfg.DataDir),
		server.WithDebug(cfg.Debug),
	))
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Close()
	if err := distributor.Distribute(songId); err != nil {
		return err
	}
	if err := distributor.PublishEndpoint(srv.Endpoint()); err != nil {
		return err
	}
	songs, err := listener.SongList()
	if err != nil {
		return err
	}
	for _, s := range songs {
		if s.ID != songId {
			continue
		}
		if err := srv.NewSong(s); err != nil {
			return err
		}
		// Listener pays for and downloads the song chunk by chunk
		client, err := strum.NewClient(
			strum.WithLedger(listener),
			strum.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		var downloaded bytes.Buffer
		settlement, err := client.Download(s, &downloaded)
		if err != nil {
			return err
		}
		fmt.Printf(
			"downloaded %d bytes; paid %d (author %d, distributor %d)\n",
			downloaded.Len(),
			settlement.TotalPaid,
			settlement.AuthorPaid,
			settlement.DistributorPaid,
		)
		if out != "" {
			if err := os.WriteFile(out, downloaded.Bytes(), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("uploaded song not found in song list")
}
