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

// Package protocol defines the chunk-transfer wire protocol between the
// session engine and the distribution endpoint.
//
// A request is a single UTF-8 text message of the form
//
//	<session_id>:<chunk_index>:<signature>
//
// where the signature covers the string "<session_id>:<chunk_index>". The
// response is the raw chunk bytes with no framing beyond connection-level
// end-of-data. The grammar is fixed so that client and server
// implementations in different languages interoperate byte-for-byte; no
// field may contain a ':' and the chunk index is rendered in decimal with
// no leading zeros.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/strum/ledger"
)

const (
	// ProtocolName identifies the protocol in logs
	ProtocolName = "chunk-fetch"
	// RequestGrammarVersion is the version of the request message grammar
	// described above
	RequestGrammarVersion = 1
	// MaxRequestLen bounds the size of a request message on the wire.
	// Servers read at most this many bytes for a request
	MaxRequestLen = 512
)

// ErrMalformedRequest is returned when a request message does not match the
// grammar exactly
var ErrMalformedRequest = errors.New("malformed chunk request")

// Request is a parsed chunk request
type Request struct {
	SessionId ledger.SessionID
	Index     int
	Signature string
}

// String renders the request in its wire form
func (r *Request) String() string {
	return fmt.Sprintf("%s:%d:%s", r.SessionId, r.Index, r.Signature)
}

// Payload returns the portion of the request covered by the signature
func (r *Request) Payload() []byte {
	return SigningPayload(r.SessionId, r.Index)
}

// SigningPayload returns the exact bytes a listener signs when requesting a
// chunk
func SigningPayload(sessionId ledger.SessionID, index int) []byte {
	return []byte(fmt.Sprintf("%s:%d", sessionId, index))
}

// ParseRequest parses a wire-form request. Parsing is strict: exactly three
// non-empty fields, a decimal chunk index with no sign or leading zeros, and
// nothing trailing
func ParseRequest(msg string) (*Request, error) {
	parts := strings.Split(msg, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf(
			"%w: expected 3 fields, got %d",
			ErrMalformedRequest,
			len(parts),
		)
	}
	sessionId, indexStr, signature := parts[0], parts[1], parts[2]
	if sessionId == "" || signature == "" {
		return nil, fmt.Errorf("%w: empty field", ErrMalformedRequest)
	}
	if len(indexStr) > 1 && indexStr[0] == '0' {
		return nil, fmt.Errorf(
			"%w: leading zero in index",
			ErrMalformedRequest,
		)
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil || index < 0 {
		return nil, fmt.Errorf(
			"%w: bad chunk index %q",
			ErrMalformedRequest,
			indexStr,
		)
	}
	return &Request{
		SessionId: ledger.SessionID(sessionId),
		Index:     index,
		Signature: signature,
	}, nil
}
