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

package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Endpoint is a distributor's advertised distribution endpoint as published
// to the ledger: a host, a port, and the PEM-encoded certificate the
// distributor serves TLS with. Listeners pin this certificate when fetching
// chunks
type Endpoint struct {
	Host        string
	Port        uint
	Certificate string
}

// String renders the endpoint in its published host:port:certificate form
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d:%s", e.Host, e.Port, e.Certificate)
}

// Dial returns the host:port address for connecting to the endpoint
func (e Endpoint) Dial() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ParseEndpoint parses a published host:port:certificate record. Parsing is
// strict: a record that does not match the expected form exactly fails with
// ErrInvalidDistributor rather than being partially interpreted
func ParseEndpoint(s string) (Endpoint, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Endpoint{}, fmt.Errorf(
			"%w: expected host:port:certificate",
			ErrInvalidDistributor,
		)
	}
	host, portStr, cert := parts[0], parts[1], parts[2]
	if host == "" {
		return Endpoint{}, fmt.Errorf(
			"%w: empty host",
			ErrInvalidDistributor,
		)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return Endpoint{}, fmt.Errorf(
			"%w: bad port %q",
			ErrInvalidDistributor,
			portStr,
		)
	}
	if !strings.Contains(cert, "BEGIN CERTIFICATE") {
		return Endpoint{}, fmt.Errorf(
			"%w: certificate is not PEM",
			ErrInvalidDistributor,
		)
	}
	return Endpoint{
		Host:        host,
		Port:        uint(port),
		Certificate: cert,
	}, nil
}
