package main

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func TestConnectMintsFreshIds(t *testing.T) {
	tbl := NewSessionTable()

	id1 := tbl.Connect(testAddr())
	id2 := tbl.Connect(testAddr())

	assert.NotZero(t, id1)
	assert.NotEqual(t, id1, id2)

	s, ok := tbl.Lookup(id1)
	require.True(t, ok)
	assert.Equal(t, StateConnected, s.State)
	assert.Empty(t, s.Account)
}

func TestIdsNeverReused(t *testing.T) {
	tbl := NewSessionTable()

	id1 := tbl.Connect(testAddr())
	tbl.Disconnect(id1)

	id2 := tbl.Connect(testAddr())
	assert.NotEqual(t, id1, id2)
	assert.False(t, tbl.Valid(id1))
}

func TestAuthenticateRequiresConnectedState(t *testing.T) {
	tbl := NewSessionTable()
	id := tbl.Connect(testAddr())

	assert.True(t, tbl.Authenticate(id, "alice"))

	s, _ := tbl.Lookup(id)
	assert.Equal(t, StateAuthenticated, s.State)
	assert.Equal(t, "alice", s.Account)

	// The bound account is immutable for the session's lifetime
	assert.False(t, tbl.Authenticate(id, "mallory"))
	s, _ = tbl.Lookup(id)
	assert.Equal(t, "alice", s.Account)

	assert.False(t, tbl.Authenticate(9999, "alice"))
}

func TestActivateRequiresAuthentication(t *testing.T) {
	tbl := NewSessionTable()
	id := tbl.Connect(testAddr())

	// Selecting a character before login must be rejected
	assert.False(t, tbl.Activate(id, "Aldric", 1))
	s, _ := tbl.Lookup(id)
	assert.Equal(t, StateConnected, s.State)
	assert.False(t, tbl.Active(id))

	tbl.Authenticate(id, "alice")
	assert.True(t, tbl.Activate(id, "Aldric", 1))
	assert.True(t, tbl.Active(id))

	s, _ = tbl.Lookup(id)
	assert.Equal(t, StateCharacterActive, s.State)
	assert.Equal(t, "Aldric", s.Character)
	assert.EqualValues(t, 1, s.PlayerID)
}

func TestDisconnectIdempotent(t *testing.T) {
	tbl := NewSessionTable()
	id := tbl.Connect(testAddr())

	assert.True(t, tbl.Disconnect(id))
	assert.False(t, tbl.Disconnect(id))
	assert.False(t, tbl.Valid(id))
}

func TestSnapshotIsACopy(t *testing.T) {
	tbl := NewSessionTable()
	id := tbl.Connect(testAddr())

	snap := tbl.Snapshot()
	require.Len(t, snap, 1)

	snap[0].Account = "tampered"
	s, _ := tbl.Lookup(id)
	assert.Empty(t, s.Account)
}

func TestClearEvictsEverything(t *testing.T) {
	tbl := NewSessionTable()
	for i := 0; i < 5; i++ {
		tbl.Connect(testAddr())
	}

	tbl.Clear()
	assert.Zero(t, tbl.Count())
}

func TestConcurrentAccess(t *testing.T) {
	tbl := NewSessionTable()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := tbl.Connect(testAddr())
				tbl.Authenticate(id, "alice")
				tbl.Snapshot()
				tbl.Disconnect(id)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, tbl.Count())
}
