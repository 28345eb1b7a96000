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

package protocol

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// ChunkDigest computes the content digest of a chunk: the sha3-256 hash of
// the chunk bytes, rendered as a 0x-prefixed lowercase hex string. Digest
// equality against the ledger-recorded value is the sole integrity guarantee
// for served chunks
func ChunkDigest(data []byte) string {
	digest := sha3.Sum256(data)
	return "0x" + hex.EncodeToString(digest[:])
}
