package service

import (
	"crypto/rand"
	"fmt"
)

// Party codes are short and human-typable: 8 chars from A-Z0-9.
const (
	partyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	partyCodeLength   = 8
)

func newPartyCode() (string, error) {
	b := make([]byte, partyCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("party code: %w", err)
	}
	for i := range b {
		b[i] = partyCodeAlphabet[int(b[i])%len(partyCodeAlphabet)]
	}
	return string(b), nil
}
