package clientaccess

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordAlphabet excludes lookalike characters since the password is read
// to the client over the phone.
const passwordAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

const passwordLength = 10

// Issuer mints client access credentials. The link token is 32 random bytes
// hex encoded; the password is short enough to dictate and stored only as a
// bcrypt hash.
type Issuer struct {
	Cost int
}

func NewIssuer() *Issuer {
	return &Issuer{Cost: bcrypt.DefaultCost}
}

// Issue returns a fresh token, the plaintext password and its hash. The
// plaintext is surfaced exactly once, in the create response.
func (i *Issuer) Issue() (token, password, passwordHash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("generate link token: %w", err)
	}
	token = hex.EncodeToString(raw)

	password, err = randomPassword()
	if err != nil {
		return "", "", "", err
	}

	cost := i.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", "", "", fmt.Errorf("hash password: %w", err)
	}
	return token, password, string(hash), nil
}

func randomPassword() (string, error) {
	raw := make([]byte, passwordLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	out := make([]byte, passwordLength)
	for i, b := range raw {
		out[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(out), nil
}
