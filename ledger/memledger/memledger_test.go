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

package memledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/strum/internal/test"
	"github.com/blinklabs-io/strum/ledger"
	"github.com/blinklabs-io/strum/ledger/memledger"
	"github.com/blinklabs-io/strum/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publishTestSong uploads a 5-chunk song priced at 550 and returns its ID.
// Each chunk costs 110: 100 to the author, 10 to the distributor
func publishTestSong(
	t *testing.T,
	author *memledger.Account,
) ledger.SongID {
	t.Helper()
	data := test.RandomBytes(9, 250)
	songId, err := author.UploadSong(ledger.Song{
		Name:         "test song",
		Price:        550,
		Length:       250,
		Duration:     3 * time.Minute,
		ChunkDigests: store.ChunkDigests(data, 50),
	})
	require.NoError(t, err)
	return songId
}

func TestUploadAndSongList(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	songId := publishTestSong(t, author)
	assert.Equal(
		t,
		memledger.GenSongID("test song", author.Address()),
		songId,
	)

	songs, err := author.SongList()
	assert.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, songId, songs[0].ID)
	assert.Equal(t, author.Address(), songs[0].Author)
	assert.Equal(t, "author", songs[0].AuthorName)
	assert.Equal(t, uint64(550), songs[0].Price)

	// returned songs are detached copies
	songs[0].ChunkDigests[0] = "tampered"
	songs2, err := author.SongList()
	assert.NoError(t, err)
	assert.NotEqual(t, "tampered", songs2[0].ChunkDigests[0])

	meta, err := author.GetSongMetadata(songId)
	assert.NoError(t, err)
	assert.Equal(t, uint64(250), meta.Length)
	assert.Equal(t, 5, meta.ChunkCount)

	_, err = author.GetSongMetadata("0xnope")
	assert.ErrorIs(t, err, ledger.ErrUnknownSong)
}

func TestCreateSession(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	distributor, err := chain.NewAccount("distributor", 0)
	require.NoError(t, err)
	listener, err := chain.NewAccount("listener", 1000)
	require.NoError(t, err)
	songId := publishTestSong(t, author)

	// no one distributing yet
	_, _, err = listener.CreateSession(songId, "")
	assert.ErrorIs(t, err, ledger.ErrNoDistributor)
	_, _, err = listener.CreateSession(songId, distributor.Address())
	assert.Error(t, err)

	require.NoError(t, distributor.Distribute(songId))
	distributing, err := listener.IsDistributing(
		songId,
		distributor.Address(),
	)
	assert.NoError(t, err)
	assert.True(t, distributing)

	sessionId, chosen, err := listener.CreateSession(songId, "")
	assert.NoError(t, err)
	assert.Equal(t, distributor.Address(), chosen)
	assert.Equal(
		t,
		memledger.GenSessionID(listener.Address(), chosen, songId),
		sessionId,
	)

	info, err := distributor.GetSessionInfo(sessionId)
	assert.NoError(t, err)
	assert.True(t, info.Active)
	assert.Equal(t, listener.Address(), info.Listener)
	assert.Equal(t, distributor.Address(), info.Distributor)
	assert.Equal(t, songId, info.SongID)
	assert.Equal(t, uint64(550), info.Price)

	_, _, err = listener.CreateSession("0xnope", "")
	assert.ErrorIs(t, err, ledger.ErrUnknownSong)
}

func TestPayChunk(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	distributor, err := chain.NewAccount("distributor", 0)
	require.NoError(t, err)
	listener, err := chain.NewAccount("listener", 220)
	require.NoError(t, err)
	songId := publishTestSong(t, author)
	require.NoError(t, distributor.Distribute(songId))
	sessionId, _, err := listener.CreateSession(
		songId,
		distributor.Address(),
	)
	require.NoError(t, err)

	paid, err := distributor.IsChunkPaid(sessionId, 0)
	assert.NoError(t, err)
	assert.False(t, paid)

	assert.NoError(t, listener.PayChunk(sessionId, 0))
	paid, err = distributor.IsChunkPaid(sessionId, 0)
	assert.NoError(t, err)
	assert.True(t, paid)

	balance, err := listener.GetBalance()
	assert.NoError(t, err)
	assert.Equal(t, uint64(110), balance)
	balance, err = author.GetBalance()
	assert.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
	balance, err = distributor.GetBalance()
	assert.NoError(t, err)
	assert.Equal(t, uint64(10), balance)

	// paying twice transfers nothing
	assert.NoError(t, listener.PayChunk(sessionId, 0))
	balance, err = listener.GetBalance()
	assert.NoError(t, err)
	assert.Equal(t, uint64(110), balance)

	assert.NoError(t, listener.PayChunk(sessionId, 1))
	balance, err = listener.GetBalance()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	// out of funds
	err = listener.PayChunk(sessionId, 2)
	var fundsErr ledger.InsufficientFundsError
	assert.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, uint64(110), fundsErr.Shortfall)
	paid, err = distributor.IsChunkPaid(sessionId, 2)
	assert.NoError(t, err)
	assert.False(t, paid)

	// other callers can't spend the listener's funds
	err = distributor.PayChunk(sessionId, 2)
	assert.Error(t, err)

	err = listener.PayChunk(sessionId, 99)
	assert.Error(t, err)
}

func TestPayChunkIndivisibleFee(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	distributor, err := chain.NewAccount("distributor", 0)
	require.NoError(t, err)
	listener, err := chain.NewAccount("listener", 10)
	require.NoError(t, err)

	// price 10 over 5 chunks: 2 per chunk, too small for a distributor cut
	data := test.RandomBytes(10, 250)
	songId, err := author.UploadSong(ledger.Song{
		Name:         "cheap song",
		Price:        10,
		Length:       250,
		Duration:     time.Minute,
		ChunkDigests: store.ChunkDigests(data, 50),
	})
	require.NoError(t, err)
	require.NoError(t, distributor.Distribute(songId))
	sessionId, _, err := listener.CreateSession(
		songId,
		distributor.Address(),
	)
	require.NoError(t, err)

	for i := range 5 {
		require.NoError(t, listener.PayChunk(sessionId, i))
	}
	info, err := listener.GetSessionInfo(sessionId)
	assert.NoError(t, err)
	assert.Equal(t, uint64(10), info.Paid)
	balance, err := listener.GetBalance()
	assert.NoError(t, err)
	assert.Zero(t, balance)
	balance, err = author.GetBalance()
	assert.NoError(t, err)
	assert.Equal(t, uint64(10), balance)
	balance, err = distributor.GetBalance()
	assert.NoError(t, err)
	assert.Zero(t, balance)
}

func TestPayChunkHook(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	distributor, err := chain.NewAccount("distributor", 0)
	require.NoError(t, err)
	listener, err := chain.NewAccount("listener", 550)
	require.NoError(t, err)
	songId := publishTestSong(t, author)
	require.NoError(t, distributor.Distribute(songId))
	sessionId, _, err := listener.CreateSession(
		songId,
		distributor.Address(),
	)
	require.NoError(t, err)

	hookErr := errors.New("transaction rejected")
	chain.PayChunkHook = func(id ledger.SessionID, index int) error {
		if index == 1 {
			return hookErr
		}
		return nil
	}
	assert.NoError(t, listener.PayChunk(sessionId, 0))
	assert.ErrorIs(t, listener.PayChunk(sessionId, 1), hookErr)
	balance, err := listener.GetBalance()
	assert.NoError(t, err)
	assert.Equal(t, uint64(440), balance)
}

func TestCloseSession(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	distributor, err := chain.NewAccount("distributor", 0)
	require.NoError(t, err)
	listener, err := chain.NewAccount("listener", 550)
	require.NoError(t, err)
	songId := publishTestSong(t, author)
	require.NoError(t, distributor.Distribute(songId))
	sessionId, _, err := listener.CreateSession(
		songId,
		distributor.Address(),
	)
	require.NoError(t, err)

	assert.NoError(t, listener.CloseSession(sessionId))
	info, err := listener.GetSessionInfo(sessionId)
	assert.NoError(t, err)
	assert.False(t, info.Active)

	// closing again is not an error
	assert.NoError(t, listener.CloseSession(sessionId))

	// no payments against a closed session
	assert.Error(t, listener.PayChunk(sessionId, 0))

	assert.ErrorIs(
		t,
		listener.CloseSession("0xnope"),
		ledger.ErrUnknownSession,
	)
}

func TestSignVerify(t *testing.T) {
	chain := memledger.NewChain()
	alice, err := chain.NewAccount("alice", 0)
	require.NoError(t, err)
	bob, err := chain.NewAccount("bob", 0)
	require.NoError(t, err)

	message := []byte("0xsession:3")
	signature, err := alice.Sign(message)
	require.NoError(t, err)

	ok, err := bob.Verify(message, signature, alice.Address())
	assert.NoError(t, err)
	assert.True(t, ok)

	// wrong signer identity
	ok, err = bob.Verify(message, signature, bob.Address())
	assert.NoError(t, err)
	assert.False(t, ok)

	// tampered message
	ok, err = bob.Verify([]byte("0xsession:4"), signature, alice.Address())
	assert.NoError(t, err)
	assert.False(t, ok)

	// garbage signatures fail cleanly
	ok, err = bob.Verify(message, "nothex", alice.Address())
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = bob.Verify(message, "abcd", alice.Address())
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = bob.Verify(message, signature, "strum1unknown")
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)
}

func TestDistributorEndpoint(t *testing.T) {
	chain := memledger.NewChain()
	distributor, err := chain.NewAccount("distributor", 0)
	require.NoError(t, err)
	listener, err := chain.NewAccount("listener", 0)
	require.NoError(t, err)

	// nothing published yet
	_, err = listener.ResolveDistributorEndpoint(distributor.Address())
	assert.ErrorIs(t, err, ledger.ErrInvalidDistributor)

	endpoint := ledger.Endpoint{
		Host:        "127.0.0.1",
		Port:        3334,
		Certificate: "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n",
	}
	require.NoError(t, distributor.PublishEndpoint(endpoint))

	resolved, err := listener.ResolveDistributorEndpoint(
		distributor.Address(),
	)
	assert.NoError(t, err)
	assert.Equal(t, endpoint, resolved)

	_, err = listener.ResolveDistributorEndpoint("strum1unknown")
	assert.ErrorIs(t, err, ledger.ErrUnknownAccount)
}

func TestUndistribute(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	distributor, err := chain.NewAccount("distributor", 0)
	require.NoError(t, err)
	listener, err := chain.NewAccount("listener", 550)
	require.NoError(t, err)
	songId := publishTestSong(t, author)
	require.NoError(t, distributor.Distribute(songId))
	require.NoError(t, distributor.Undistribute(songId))

	distributing, err := listener.IsDistributing(
		songId,
		distributor.Address(),
	)
	assert.NoError(t, err)
	assert.False(t, distributing)

	_, _, err = listener.CreateSession(songId, "")
	assert.ErrorIs(t, err, ledger.ErrNoDistributor)
}

func TestCheckChunkDigest(t *testing.T) {
	chain := memledger.NewChain()
	author, err := chain.NewAccount("author", 0)
	require.NoError(t, err)
	data := test.RandomBytes(9, 250)
	digests := store.ChunkDigests(data, 50)
	songId := publishTestSong(t, author)

	ok, err := author.CheckChunkDigest(songId, 0, digests[0])
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = author.CheckChunkDigest(songId, 0, digests[1])
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = author.CheckChunkDigest(songId, 99, digests[0])
	assert.NoError(t, err)
	assert.False(t, ok)
	_, err = author.CheckChunkDigest("0xnope", 0, digests[0])
	assert.ErrorIs(t, err, ledger.ErrUnknownSong)
}
