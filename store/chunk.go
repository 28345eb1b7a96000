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

// Package store provides song content storage for the distribution
// endpoint: fixed-size chunking, the in-memory song table served from, and
// a persisted song library.
package store

import (
	"github.com/blinklabs-io/strum/protocol"
)

// DefaultChunkSize is the chunk size used at upload time. All parties must
// chunk with the same size for ledger digests to line up
const DefaultChunkSize = 30000

// SplitChunks partitions data into fixed-size chunks. The final chunk is
// short when the data length is not an exact multiple of the chunk size
func SplitChunks(data []byte, chunkSize int) [][]byte {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunks := make([][]byte, 0, (len(data)+chunkSize-1)/chunkSize)
	for i := 0; i < len(data); i += chunkSize {
		end := min(i+chunkSize, len(data))
		chunks = append(chunks, data[i:end])
	}
	return chunks
}

// JoinChunks reassembles chunks in order into the original byte sequence
func JoinChunks(chunks [][]byte) []byte {
	var size int
	for _, chunk := range chunks {
		size += len(chunk)
	}
	data := make([]byte, 0, size)
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}
	return data
}

// ChunkDigests computes the upload-time digest for each chunk of data
func ChunkDigests(data []byte, chunkSize int) []string {
	chunks := SplitChunks(data, chunkSize)
	digests := make([]string, len(chunks))
	for i, chunk := range chunks {
		digests[i] = protocol.ChunkDigest(chunk)
	}
	return digests
}
