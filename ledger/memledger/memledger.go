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

// Package memledger provides an in-process implementation of the ledger
// interface. It backs tests and the CLI's local mode, where the payment
// chain, distributor, and listener all run in one process. All operations
// are serialized through a single mutex, which matches the linearizability
// the rest of the system assumes of a real ledger.
package memledger

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"github.com/blinklabs-io/strum/ledger"
	"github.com/jinzhu/copier"
	"golang.org/x/crypto/sha3"
)

type account struct {
	name     string
	pubKey   ed25519.PublicKey
	balance  uint64
	endpoint string
}

type songEntry struct {
	song         ledger.Song
	distributors map[ledger.Address]bool
}

type sessionEntry struct {
	info ledger.SessionInfo
	paid map[int]bool
}

// Chain is the shared state of the in-process ledger. Individual parties
// interact with it through Account values bound to their own key pair
type Chain struct {
	mutex    sync.Mutex
	accounts map[ledger.Address]*account
	songs    map[ledger.SongID]*songEntry
	sessions map[ledger.SessionID]*sessionEntry
	songIds  []ledger.SongID

	// PayChunkHook, when set, runs before each chunk payment and can
	// reject it by returning an error. Used by tests to simulate rejected
	// transactions
	PayChunkHook func(sessionId ledger.SessionID, index int) error
}

// NewChain returns an empty in-process ledger
func NewChain() *Chain {
	return &Chain{
		accounts: make(map[ledger.Address]*account),
		songs:    make(map[ledger.SongID]*songEntry),
		sessions: make(map[ledger.SessionID]*sessionEntry),
	}
}

// NewAccount creates an account with a fresh ed25519 key pair and an
// initial balance, and returns a ledger client bound to it
func (c *Chain) NewAccount(name string, balance uint64) (*Account, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return c.AccountFromKey(name, priv, balance)
}

// AccountFromKey creates an account from an existing private key
func (c *Chain) AccountFromKey(
	name string,
	privKey ed25519.PrivateKey,
	balance uint64,
) (*Account, error) {
	pubKey := privKey.Public().(ed25519.PublicKey)
	addr, err := ledger.NewAddressFromPublicKey(pubKey)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.accounts[addr]; !ok {
		c.accounts[addr] = &account{
			name:    name,
			pubKey:  pubKey,
			balance: balance,
		}
	}
	return &Account{
		chain:   c,
		addr:    addr,
		privKey: privKey,
	}, nil
}

func digestId(parts ...string) string {
	hasher := sha3.New256()
	for _, part := range parts {
		hasher.Write([]byte(part))
		hasher.Write([]byte{'|'})
	}
	return "0x" + hex.EncodeToString(hasher.Sum(nil))
}

// GenSongID returns the deterministic song ID for a song name and author
func GenSongID(name string, author ledger.Address) ledger.SongID {
	return ledger.SongID(digestId(name, string(author)))
}

// GenSessionID returns the deterministic session ID for a listener,
// distributor, and song
func GenSessionID(
	listener ledger.Address,
	distributor ledger.Address,
	songId ledger.SongID,
) ledger.SessionID {
	return ledger.SessionID(
		digestId(string(listener), string(distributor), string(songId)),
	)
}

// Account is one party's view of the chain, implementing the Ledger
// interface with that party's key and balance
type Account struct {
	chain   *Chain
	addr    ledger.Address
	privKey ed25519.PrivateKey
}

// Address returns the account's address
func (a *Account) Address() ledger.Address {
	return a.addr
}

// GetBalance returns the account's available balance
func (a *Account) GetBalance() (uint64, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	acct, ok := a.chain.accounts[a.addr]
	if !ok {
		return 0, ledger.ErrUnknownAccount
	}
	return acct.balance, nil
}

// GetSongMetadata returns a song's published metadata
func (a *Account) GetSongMetadata(
	songId ledger.SongID,
) (ledger.SongMetadata, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.songs[songId]
	if !ok {
		return ledger.SongMetadata{}, ledger.ErrUnknownSong
	}
	return ledger.SongMetadata{
		Length:     entry.song.Length,
		Duration:   entry.song.Duration,
		ChunkCount: len(entry.song.ChunkDigests),
	}, nil
}

// SongList returns detached copies of all published songs
func (a *Account) SongList() ([]ledger.Song, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	songs := make([]ledger.Song, 0, len(a.chain.songIds))
	for _, songId := range a.chain.songIds {
		var tmpSong ledger.Song
		if err := copier.CopyWithOption(
			&tmpSong,
			&a.chain.songs[songId].song,
			copier.Option{DeepCopy: true},
		); err != nil {
			return nil, err
		}
		songs = append(songs, tmpSong)
	}
	return songs, nil
}

// CreateSession creates a session for a song against a distributor. An
// empty distributor lets the chain pick one at random from those currently
// distributing the song
func (a *Account) CreateSession(
	songId ledger.SongID,
	distributor ledger.Address,
) (ledger.SessionID, ledger.Address, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.songs[songId]
	if !ok {
		return "", "", ledger.CallError{
			Op:  "create_session",
			Err: ledger.ErrUnknownSong,
		}
	}
	if distributor == "" {
		var err error
		distributor, err = randDistributor(entry)
		if err != nil {
			return "", "", ledger.CallError{
				Op:  "create_session",
				Err: err,
			}
		}
	} else if !entry.distributors[distributor] {
		return "", distributor, ledger.CallError{
			Op:  "create_session",
			Err: fmt.Errorf("%s is not distributing song", distributor),
		}
	}
	sessionId := GenSessionID(a.addr, distributor, songId)
	a.chain.sessions[sessionId] = &sessionEntry{
		info: ledger.SessionInfo{
			Active:      true,
			Listener:    a.addr,
			Distributor: distributor,
			SongID:      songId,
			Price:       entry.song.Price,
		},
		paid: make(map[int]bool),
	}
	return sessionId, distributor, nil
}

func randDistributor(entry *songEntry) (ledger.Address, error) {
	distributors := make([]ledger.Address, 0, len(entry.distributors))
	for addr, active := range entry.distributors {
		if active {
			distributors = append(distributors, addr)
		}
	}
	if len(distributors) == 0 {
		return "", ledger.ErrNoDistributor
	}
	pick, err := rand.Int(rand.Reader, big.NewInt(int64(len(distributors))))
	if err != nil {
		return "", err
	}
	return distributors[pick.Int64()], nil
}

// GetSessionInfo returns the chain's view of a session
func (a *Account) GetSessionInfo(
	sessionId ledger.SessionID,
) (ledger.SessionInfo, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.sessions[sessionId]
	if !ok {
		return ledger.SessionInfo{}, ledger.ErrUnknownSession
	}
	return entry.info, nil
}

// PayChunk pays for one chunk, debiting the listener and crediting the
// song's author and the serving distributor
func (a *Account) PayChunk(sessionId ledger.SessionID, index int) error {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	if a.chain.PayChunkHook != nil {
		if err := a.chain.PayChunkHook(sessionId, index); err != nil {
			return ledger.CallError{Op: "pay_chunk", Err: err}
		}
	}
	session, ok := a.chain.sessions[sessionId]
	if !ok {
		return ledger.CallError{
			Op:  "pay_chunk",
			Err: ledger.ErrUnknownSession,
		}
	}
	if !session.info.Active {
		return ledger.CallError{
			Op:  "pay_chunk",
			Err: fmt.Errorf("session is not active"),
		}
	}
	if session.info.Listener != a.addr {
		return ledger.CallError{
			Op:  "pay_chunk",
			Err: fmt.Errorf("caller is not the session listener"),
		}
	}
	song := a.chain.songs[session.info.SongID]
	if index < 0 || index >= len(song.song.ChunkDigests) {
		return ledger.CallError{
			Op:  "pay_chunk",
			Err: fmt.Errorf("chunk index out of range: %d", index),
		}
	}
	if session.paid[index] {
		// already paid, nothing to transfer
		return nil
	}
	chunkPrice := session.info.Price / uint64(len(song.song.ChunkDigests))
	listener := a.chain.accounts[a.addr]
	if listener.balance < chunkPrice {
		return ledger.CallError{
			Op: "pay_chunk",
			Err: ledger.InsufficientFundsError{
				Shortfall: chunkPrice - listener.balance,
			},
		}
	}
	authorCut, distributorCut := ledger.SplitPayment(chunkPrice)
	listener.balance -= chunkPrice
	if author, ok := a.chain.accounts[song.song.Author]; ok {
		author.balance += authorCut
	}
	if dist, ok := a.chain.accounts[session.info.Distributor]; ok {
		dist.balance += distributorCut
	}
	session.paid[index] = true
	session.info.Paid += chunkPrice
	return nil
}

// IsChunkPaid returns whether a chunk has been paid for in a session
func (a *Account) IsChunkPaid(
	sessionId ledger.SessionID,
	index int,
) (bool, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.sessions[sessionId]
	if !ok {
		return false, ledger.ErrUnknownSession
	}
	return entry.paid[index], nil
}

// CheckChunkDigest compares an observed chunk digest against the digest
// recorded at upload time
func (a *Account) CheckChunkDigest(
	songId ledger.SongID,
	index int,
	digest string,
) (bool, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.songs[songId]
	if !ok {
		return false, ledger.ErrUnknownSong
	}
	if index < 0 || index >= len(entry.song.ChunkDigests) {
		return false, nil
	}
	return entry.song.ChunkDigests[index] == digest, nil
}

// CloseSession marks a session inactive. Closing an already-closed session
// is not an error
func (a *Account) CloseSession(sessionId ledger.SessionID) error {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.sessions[sessionId]
	if !ok {
		return ledger.CallError{
			Op:  "close_session",
			Err: ledger.ErrUnknownSession,
		}
	}
	entry.info.Active = false
	return nil
}

// Sign signs a message with the account key
func (a *Account) Sign(message []byte) (string, error) {
	return hex.EncodeToString(ed25519.Sign(a.privKey, message)), nil
}

// Verify checks a signature over a message against the public key
// registered for an identity
func (a *Account) Verify(
	message []byte,
	signature string,
	identity ledger.Address,
) (bool, error) {
	a.chain.mutex.Lock()
	acct, ok := a.chain.accounts[identity]
	a.chain.mutex.Unlock()
	if !ok {
		return false, ledger.ErrUnknownAccount
	}
	if err := ledger.ValidatePublicKey(acct.pubKey); err != nil {
		return false, err
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(acct.pubKey, message, sig), nil
}

// ResolveDistributorEndpoint returns a distributor's published endpoint
func (a *Account) ResolveDistributorEndpoint(
	identity ledger.Address,
) (ledger.Endpoint, error) {
	a.chain.mutex.Lock()
	acct, ok := a.chain.accounts[identity]
	a.chain.mutex.Unlock()
	if !ok {
		return ledger.Endpoint{}, ledger.ErrUnknownAccount
	}
	if acct.endpoint == "" {
		return ledger.Endpoint{}, ledger.ErrInvalidDistributor
	}
	return ledger.ParseEndpoint(acct.endpoint)
}

// UploadSong publishes a song and returns its assigned ID
func (a *Account) UploadSong(song ledger.Song) (ledger.SongID, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	acct := a.chain.accounts[a.addr]
	songId := GenSongID(song.Name, a.addr)
	var tmpSong ledger.Song
	if err := copier.CopyWithOption(
		&tmpSong,
		&song,
		copier.Option{DeepCopy: true},
	); err != nil {
		return "", ledger.CallError{Op: "upload_song", Err: err}
	}
	tmpSong.ID = songId
	tmpSong.Author = a.addr
	tmpSong.AuthorName = acct.name
	if _, ok := a.chain.songs[songId]; !ok {
		a.chain.songIds = append(a.chain.songIds, songId)
	}
	a.chain.songs[songId] = &songEntry{
		song:         tmpSong,
		distributors: make(map[ledger.Address]bool),
	}
	return songId, nil
}

// Distribute registers the account as a distributor for a song
func (a *Account) Distribute(songId ledger.SongID) error {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.songs[songId]
	if !ok {
		return ledger.CallError{
			Op:  "distribute",
			Err: ledger.ErrUnknownSong,
		}
	}
	entry.distributors[a.addr] = true
	return nil
}

// Undistribute removes the account as a distributor for a song
func (a *Account) Undistribute(songId ledger.SongID) error {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.songs[songId]
	if !ok {
		return ledger.CallError{
			Op:  "undistribute",
			Err: ledger.ErrUnknownSong,
		}
	}
	delete(entry.distributors, a.addr)
	return nil
}

// IsDistributing returns whether an account is distributing a song
func (a *Account) IsDistributing(
	songId ledger.SongID,
	distributor ledger.Address,
) (bool, error) {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	entry, ok := a.chain.songs[songId]
	if !ok {
		return false, ledger.ErrUnknownSong
	}
	return entry.distributors[distributor], nil
}

// PublishEndpoint publishes the account's distribution endpoint record
func (a *Account) PublishEndpoint(endpoint ledger.Endpoint) error {
	a.chain.mutex.Lock()
	defer a.chain.mutex.Unlock()
	acct, ok := a.chain.accounts[a.addr]
	if !ok {
		return ledger.CallError{
			Op:  "publish_endpoint",
			Err: ledger.ErrUnknownAccount,
		}
	}
	acct.endpoint = endpoint.String()
	return nil
}
