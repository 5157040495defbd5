package main

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenSQLite3(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func testStores(t *testing.T) (*AccountDB, *PlayerDB, *DB) {
	t.Helper()

	db := testDB(t)

	accounts, err := NewAccountDB(db)
	require.NoError(t, err)

	players, err := NewPlayerDB(db)
	require.NoError(t, err)

	return accounts, players, db
}

func testKeyHex(b byte) string {
	return strings.Repeat(string([]byte{hexDigit(b >> 4), hexDigit(b & 0xF)}), KeySize)
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}

	return 'a' + n - 10
}

func TestCreateAccountAndGetSalt(t *testing.T) {
	accounts, _, _ := testStores(t)

	salt := testKeyHex(0x5a)
	key := testKeyHex(0xab)

	require.NoError(t, accounts.CreateAccount("alice", key, salt))

	got, err := accounts.GetSalt("alice")
	require.NoError(t, err)
	assert.Equal(t, salt, got)

	_, err = accounts.GetSalt("bob")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateAccountDuplicate(t *testing.T) {
	accounts, _, _ := testStores(t)

	salt1 := testKeyHex(0x11)
	salt2 := testKeyHex(0x22)
	key := testKeyHex(0xab)

	require.NoError(t, accounts.CreateAccount("alice", key, salt1))

	err := accounts.CreateAccount("alice", key, salt2)
	assert.ErrorIs(t, err, ErrAccountExists)

	// The first record must survive untouched
	got, err := accounts.GetSalt("alice")
	require.NoError(t, err)
	assert.Equal(t, salt1, got)
}

func TestCreateAccountValidation(t *testing.T) {
	accounts, _, _ := testStores(t)

	salt := testKeyHex(0x11)
	key := testKeyHex(0xab)

	// Names with query metacharacters never reach the database
	assert.ErrorIs(t, accounts.CreateAccount(`alice"; drop table accounts; --`, key, salt), ErrInvalidInput)
	assert.ErrorIs(t, accounts.CreateAccount("", key, salt), ErrInvalidInput)
	assert.ErrorIs(t, accounts.CreateAccount(strings.Repeat("a", AccountLen), key, salt), ErrInvalidInput)
	assert.ErrorIs(t, accounts.CreateAccount(FailedSentinel, key, salt), ErrInvalidInput)

	// Keys and salts must be well-formed hex of the exact length
	assert.ErrorIs(t, accounts.CreateAccount("alice", "zz", salt), ErrInvalidInput)
	assert.ErrorIs(t, accounts.CreateAccount("alice", key[:100], salt), ErrInvalidInput)
	assert.ErrorIs(t, accounts.CreateAccount("alice", key, salt+"00"), ErrInvalidInput)
}

func TestVerifyLogin(t *testing.T) {
	accounts, _, _ := testStores(t)

	salt := testKeyHex(0x11)
	key := testKeyHex(0xab)
	wrong := testKeyHex(0xcd)

	require.NoError(t, accounts.CreateAccount("alice", key, salt))

	assert.NoError(t, accounts.VerifyLogin("alice", key))
	assert.ErrorIs(t, accounts.VerifyLogin("alice", wrong), ErrAuthFailed)
	assert.ErrorIs(t, accounts.VerifyLogin("bob", key), ErrAccountNotFound)
	assert.ErrorIs(t, accounts.VerifyLogin("alice", "nothex"), ErrInvalidInput)

	// Hex comparison is case-insensitive over the decoded bytes
	assert.NoError(t, accounts.VerifyLogin("alice", strings.ToUpper(key)))
}

func TestConcurrentCreateAccount(t *testing.T) {
	accounts, _, _ := testStores(t)

	salt := testKeyHex(0x11)
	key := testKeyHex(0xab)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = accounts.CreateAccount("alice", key, salt)
		}(i)
	}
	wg.Wait()

	var ok, exists int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrAccountExists):
			exists++
		}
	}

	assert.Equal(t, 1, ok, "exactly one create must succeed")
	assert.Equal(t, attempts-1, exists)
}

func TestListAccounts(t *testing.T) {
	accounts, _, _ := testStores(t)

	require.NoError(t, accounts.CreateAccount("bob", testKeyHex(0x01), testKeyHex(0x02)))
	require.NoError(t, accounts.CreateAccount("alice", testKeyHex(0x03), testKeyHex(0x04)))

	all, err := accounts.ListAccounts()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Name)
	assert.Equal(t, "bob", all[1].Name)
}

func TestInsertAndListPlayers(t *testing.T) {
	_, players, _ := testStores(t)

	p := Player{
		Account:    "alice",
		FirstName:  "Aldric",
		LastName:   "Vane",
		Race:       "Human",
		Gender:     "Male",
		Profession: "Ranger",
		Level:      1,
	}
	require.NoError(t, players.InsertPlayer(p))

	p.FirstName = "Benna"
	require.NoError(t, players.InsertPlayer(p))

	p.Account = "bob"
	p.FirstName = "Corvin"
	require.NoError(t, players.InsertPlayer(p))

	all, err := players.ListPlayers()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := players.ListByAccount("alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Aldric", mine[0].FirstName)
	assert.Equal(t, "Benna", mine[1].FirstName)
	assert.NotZero(t, mine[0].ID)

	_, err = players.ListByAccount("no; drop")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInsertPlayerValidatesAccount(t *testing.T) {
	_, players, _ := testStores(t)

	err := players.InsertPlayer(Player{Account: "bad name", FirstName: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListNPCsEmpty(t *testing.T) {
	_, players, _ := testStores(t)

	npcs, err := players.ListNPCs()
	require.NoError(t, err)
	assert.Empty(t, npcs)
}
