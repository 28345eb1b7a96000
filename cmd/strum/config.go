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
	"os"

	"github.com/blinklabs-io/strum/store"
	"gopkg.in/yaml.v2"
)

// Config holds distributor settings loaded from a YAML file
type Config struct {
	Host      string `yaml:"host"`
	BasePort  uint   `yaml:"basePort"`
	DataDir   string `yaml:"dataDir"`
	ChunkSize int    `yaml:"chunkSize"`
	Debug     bool   `yaml:"debug"`
}

func defaultConfig() Config {
	return Config{
		Host:      "127.0.0.1",
		BasePort:  3334,
		DataDir:   "data",
		ChunkSize: store.DefaultChunkSize,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
