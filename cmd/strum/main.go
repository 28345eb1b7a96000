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
	"flag"
	"fmt"
	"os"

	"github.com/blinklabs-io/strum/store"
)

type globalFlags struct {
	flagset *flag.FlagSet
	config  string
	debug   bool
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.config,
		"config",
		"",
		"path to YAML config file",
	)
	f.flagset.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return f
}

func main() {
	f := newGlobalFlags()
	err := f.flagset.Parse(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if len(f.flagset.Args()) == 0 {
		fmt.Printf("You must specify a subcommand (demo, digests)\n")
		os.Exit(1)
	}
	cfg, err := loadConfig(f.config)
	if err != nil {
		fmt.Printf("failed to load config: %s\n", err)
		os.Exit(1)
	}
	if f.debug {
		cfg.Debug = true
	}
	switch f.flagset.Args()[0] {
	case "demo":
		demoCommand(cfg, f.flagset.Args()[1:])
	case "digests":
		digestsCommand(cfg, f.flagset.Args()[1:])
	default:
		fmt.Printf("Unknown subcommand: %s\n", f.flagset.Args()[0])
		os.Exit(1)
	}
}

func digestsCommand(cfg Config, args []string) {
	fs := flag.NewFlagSet("digests", flag.ExitOnError)
	file := fs.String("file", "", "media file to chunk")
	if err := fs.Parse(args); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	if *file == "" {
		fmt.Printf("You must specify a file with -file\n")
		os.Exit(1)
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("failed to read file: %s\n", err)
		os.Exit(1)
	}
	digests := store.ChunkDigests(data, cfg.ChunkSize)
	fmt.Printf(
		"%d bytes in %d chunks of %d\n",
		len(data),
		len(digests),
		cfg.ChunkSize,
	)
	for i, digest := range digests {
		fmt.Printf("%6d %s\n", i, digest)
	}
}
