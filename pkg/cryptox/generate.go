package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Character classes for generated passwords. Symbols are kept to a set that
// survives copy-paste and shell quoting.
const (
	genLower   = "abcdefghijklmnopqrstuvwxyz"
	genUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	genDigits  = "0123456789"
	genSymbols = "!@#$%^&*-_=+?"
)

// GeneratePassword produces a random password of the requested length with
// all four character classes present by construction: one pick per class,
// the rest from the combined set, then a shuffle. Used for operator-initiated
// resets, not anything user-facing.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", fmt.Errorf("cryptox: generated password length must be at least %d", MinPasswordLength)
	}
	if length > MaxPasswordLength {
		return "", fmt.Errorf("cryptox: generated password length must be at most %d", MaxPasswordLength)
	}

	classes := []string{genLower, genUpper, genDigits, genSymbols}
	all := genLower + genUpper + genDigits + genSymbols

	password := make([]byte, 0, length)
	for _, class := range classes {
		c, err := pickRandom(class)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}
	for len(password) < length {
		c, err := pickRandom(all)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	// Fisher-Yates so the guaranteed class picks don't sit at the front.
	for i := len(password) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("cryptox: shuffle password: %w", err)
		}
		j := n.Int64()
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func pickRandom(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, fmt.Errorf("cryptox: generate random password: %w", err)
	}
	return charset[n.Int64()], nil
}
