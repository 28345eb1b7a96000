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

package ledger_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/blinklabs-io/strum/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFromPublicKey(t *testing.T) {
	pubKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	addr, err := ledger.NewAddressFromPublicKey(pubKey)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(addr), ledger.AddressHrp+"1"))

	// derivation is deterministic
	addr2, err := ledger.NewAddressFromPublicKey(pubKey)
	assert.NoError(t, err)
	assert.Equal(t, addr, addr2)

	// and round-trips through validation
	parsed, err := ledger.ParseAddress(string(addr))
	assert.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestAddressFromBadKeyLength(t *testing.T) {
	_, err := ledger.NewAddressFromPublicKey([]byte{0x01, 0x02})
	assert.EqualError(t, err, "unexpected public key length: 2")
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	testDefs := []string{
		"",
		"notanaddress",
		// valid bech32 but wrong prefix
		"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
	}
	for _, testDef := range testDefs {
		_, err := ledger.ParseAddress(testDef)
		assert.Error(t, err, "expected error for %q", testDef)
	}
}

func TestValidatePublicKey(t *testing.T) {
	pubKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	assert.NoError(t, ledger.ValidatePublicKey(pubKey))
	assert.Error(t, ledger.ValidatePublicKey([]byte{0x01}))
}

func TestSplitPayment(t *testing.T) {
	testDefs := []struct {
		total               uint64
		expectedAuthor      uint64
		expectedDistributor uint64
	}{
		{total: 0, expectedAuthor: 0, expectedDistributor: 0},
		{total: 11, expectedAuthor: 10, expectedDistributor: 1},
		{total: 110, expectedAuthor: 100, expectedDistributor: 10},
		{total: 10, expectedAuthor: 10, expectedDistributor: 0},
	}
	for _, testDef := range testDefs {
		author, distributor := ledger.SplitPayment(testDef.total)
		assert.Equal(t, testDef.expectedAuthor, author)
		assert.Equal(t, testDef.expectedDistributor, distributor)
		assert.Equal(t, testDef.total, author+distributor)
	}
}

func TestEndpointRoundTrip(t *testing.T) {
	endpoint := ledger.Endpoint{
		Host:        "127.0.0.1",
		Port:        3334,
		Certificate: "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n",
	}
	assert.Equal(t, "127.0.0.1:3334", endpoint.Dial())
	parsed, err := ledger.ParseEndpoint(endpoint.String())
	assert.NoError(t, err)
	assert.Equal(t, endpoint, parsed)
}

func TestParseEndpointRejectsGarbage(t *testing.T) {
	cert := "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"
	testDefs := []string{
		"",
		"127.0.0.1",
		"127.0.0.1:3334",
		":3334:" + cert,
		"127.0.0.1:0:" + cert,
		"127.0.0.1:notaport:" + cert,
		"127.0.0.1:99999:" + cert,
		"127.0.0.1:3334:not a certificate",
	}
	for _, testDef := range testDefs {
		_, err := ledger.ParseEndpoint(testDef)
		assert.ErrorIs(
			t,
			err,
			ledger.ErrInvalidDistributor,
			"expected error for %q",
			testDef,
		)
	}
}
