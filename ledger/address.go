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
	"crypto/ed25519"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

const (
	// AddressHrp is the human-readable prefix for bech32-encoded addresses
	AddressHrp = "strum"
	// AddressHashSize is the size of the key hash carried in an address
	AddressHashSize = 28
)

// Address identifies an account on the ledger. It is the bech32 encoding of
// a blake2b-224 hash of the account's ed25519 public key
type Address string

// NewAddressFromPublicKey derives the address for an ed25519 public key
func NewAddressFromPublicKey(pubKey ed25519.PublicKey) (Address, error) {
	if len(pubKey) != ed25519.PublicKeySize {
		return "", fmt.Errorf(
			"unexpected public key length: %d",
			len(pubKey),
		)
	}
	hasher, err := blake2b.New(AddressHashSize, nil)
	if err != nil {
		return "", err
	}
	hasher.Write(pubKey)
	keyHash := hasher.Sum(nil)
	converted, err := bech32.ConvertBits(keyHash, 8, 5, true)
	if err != nil {
		return "", err
	}
	encoded, err := bech32.EncodeM(AddressHrp, converted)
	if err != nil {
		return "", err
	}
	return Address(encoded), nil
}

// ParseAddress validates an address string
func ParseAddress(addr string) (Address, error) {
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return "", fmt.Errorf("decode address: %w", err)
	}
	if hrp != AddressHrp {
		return "", fmt.Errorf("unexpected address prefix: %s", hrp)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("decode address: %w", err)
	}
	if len(decoded) != AddressHashSize {
		return "", fmt.Errorf(
			"unexpected address payload length: %d",
			len(decoded),
		)
	}
	return Address(addr), nil
}

// ValidatePublicKey checks that a raw public key is a canonical point on the
// ed25519 curve. Key material received from the ledger passes through here
// before it's used for signature verification
func ValidatePublicKey(pubKey []byte) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf(
			"unexpected public key length: %d",
			len(pubKey),
		)
	}
	if _, err := new(edwards25519.Point).SetBytes(pubKey); err != nil {
		return errors.New("public key is not a valid curve point")
	}
	return nil
}
