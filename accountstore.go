package main

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidInput    = errors.New("invalid account name, key or salt")
	ErrAuthFailed      = errors.New("credential mismatch")
)

// Account is one stored credential record
// The key is the only credential form ever stored: the original
// password never reaches the server
type Account struct {
	Name    string
	KeyHex  string
	SaltHex string
}

// AccountStore is the persistence contract the dispatch loop needs
type AccountStore interface {
	GetSalt(name string) (string, error)
	CreateAccount(name, keyHex, saltHex string) error
	VerifyLogin(name, keyHex string) error
	ListAccounts() ([]Account, error)
}

// AccountDB implements AccountStore on a SQL database
type AccountDB struct {
	db *DB

	// serializes account creation so a duplicate name can be
	// reported as ErrAccountExists instead of a raw constraint error
	createMu sync.Mutex
}

// NewAccountDB creates the accounts table if needed
func NewAccountDB(db *DB) (*AccountDB, error) {
	sql_table := `CREATE TABLE IF NOT EXISTS accounts (
		accountname VARCHAR(30) NOT NULL PRIMARY KEY,
		key VARCHAR(128) NOT NULL,
		salt VARCHAR(128) NOT NULL
	);
	`

	if _, err := db.Exec(sql_table); err != nil {
		return nil, err
	}

	return &AccountDB{db: db}, nil
}

// validAccountName restricts account names to a safe character set
// before they are used in any query
// The failure sentinel is reserved so a reply can't be forged
func validAccountName(name string) bool {
	if len(name) < 1 || len(name) > AccountLen-1 {
		return false
	}
	if name == FailedSentinel {
		return false
	}

	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}

	return true
}

// validHex checks that s is well-formed hexadecimal encoding exactly
// n bytes
func validHex(s string, n int) bool {
	if len(s) != 2*n {
		return false
	}

	_, err := hex.DecodeString(s)
	return err == nil
}

func (a *AccountDB) exists(name string) (bool, error) {
	var found string
	err := a.db.QueryRow(`SELECT accountname FROM accounts WHERE accountname = $1;`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// GetSalt returns the stored salt for an account
// The salt is public, but the account must exist
func (a *AccountDB) GetSalt(name string) (string, error) {
	if !validAccountName(name) {
		return "", ErrInvalidInput
	}

	var salt string
	err := a.db.QueryRow(`SELECT salt FROM accounts WHERE accountname = $1;`, name).Scan(&salt)
	if err == sql.ErrNoRows {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", err
	}

	return salt, nil
}

// CreateAccount inserts a new credential record
// Exactly one of two concurrent creates for the same name succeeds:
// insertion is serialized and backed by the primary key constraint
func (a *AccountDB) CreateAccount(name, keyHex, saltHex string) error {
	if !validAccountName(name) || !validHex(keyHex, KeySize) || !validHex(saltHex, SaltSize) {
		return ErrInvalidInput
	}

	a.createMu.Lock()
	defer a.createMu.Unlock()

	exists, err := a.exists(name)
	if err != nil {
		return err
	}
	if exists {
		return ErrAccountExists
	}

	_, err = a.db.Exec(`INSERT INTO accounts (accountname, key, salt) VALUES ($1, $2, $3);`, name, keyHex, saltHex)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", name, err)
	}

	return nil
}

// VerifyLogin compares a supplied derived key against the stored one
// The comparison runs in constant time over the decoded key bytes
func (a *AccountDB) VerifyLogin(name, keyHex string) error {
	if !validAccountName(name) || !validHex(keyHex, KeySize) {
		return ErrInvalidInput
	}

	var storedHex string
	err := a.db.QueryRow(`SELECT key FROM accounts WHERE accountname = $1;`, name).Scan(&storedHex)
	if err == sql.ErrNoRows {
		return ErrAccountNotFound
	}
	if err != nil {
		return err
	}

	stored, err := hex.DecodeString(storedHex)
	if err != nil {
		return fmt.Errorf("stored key for %s is not valid hex: %w", name, err)
	}
	supplied, err := hex.DecodeString(keyHex)
	if err != nil {
		return ErrInvalidInput
	}

	if !KeysEqual(supplied, stored) {
		return ErrAuthFailed
	}

	return nil
}

// ListAccounts returns all credential records for the console
func (a *AccountDB) ListAccounts() ([]Account, error) {
	rows, err := a.db.Query(`SELECT accountname, key, salt FROM accounts ORDER BY accountname;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var r []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.Name, &acc.KeyHex, &acc.SaltHex); err != nil {
			return nil, err
		}
		r = append(r, acc)
	}

	return r, rows.Err()
}
