package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const stateLength = 16

// GenerateState returns a random hex string for the OAuth state parameter.
func GenerateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SplitName splits a display name into first name and the remaining words.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
