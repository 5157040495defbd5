package main

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	// KeySize is the size of a derived key in bytes (512 bits)
	KeySize = 64

	// SaltSize is the size of an account salt in bytes (512 bits)
	SaltSize = 64

	// DeriveIterations is the stretching iteration count
	// 2^20 iterations effectively add 20 bits to the password
	// The generated key depends on this value, so it must never
	// change for existing accounts
	DeriveIterations = 1 << 20

	MinPasswordLen = 8
	MaxPasswordLen = 1000

	// minDeriveCost is the lower bound for one full derivation
	// Anything quicker defeats the point of stretching
	minDeriveCost = 200 * time.Millisecond
)

var (
	ErrPasswordShort = errors.New("password is too short to process")
	ErrPasswordLong  = errors.New("password is too long to process")
)

// DeriveKey salts and stretches a password into a 64 byte key
// by iterated SHA-512 hashing:
//	x = hash512(x || password || salt)
// Identical inputs always yield an identical key
func DeriveKey(password, salt []byte) ([KeySize]byte, error) {
	if len(password) < MinPasswordLen {
		return [KeySize]byte{}, ErrPasswordShort
	}
	if len(password) > MaxPasswordLen {
		return [KeySize]byte{}, ErrPasswordLong
	}

	return deriveKey(password, salt, DeriveIterations), nil
}

func deriveKey(password, salt []byte, iterations int) [KeySize]byte {
	var acc [KeySize]byte

	h := sha512.New()
	for i := 0; i < iterations; i++ {
		h.Reset()
		h.Write(acc[:])
		h.Write(password)
		h.Write(salt)
		h.Sum(acc[:0])
	}

	return acc
}

// KeysEqual compares two derived keys in constant time
func KeysEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateSalt returns a fresh random account salt
func GenerateSalt() ([SaltSize]byte, error) {
	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, err
	}

	return salt, nil
}

// CheckDeriveCost runs one full derivation and reports an error
// if it finishes suspiciously fast, which means the iteration
// count is miscalibrated for this machine
func CheckDeriveCost() error {
	var salt [SaltSize]byte

	start := time.Now()
	if _, err := DeriveKey([]byte("calibrate"), salt[:]); err != nil {
		return err
	}
	elapsed := time.Since(start)

	if elapsed < minDeriveCost {
		return fmt.Errorf("key derivation took %v, expected at least %v: iteration count is miscalibrated", elapsed, minDeriveCost)
	}

	log.Print("Key derivation calibrated at ", elapsed)
	return nil
}
