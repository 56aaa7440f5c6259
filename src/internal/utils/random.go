package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// MinPasswordLength is the shortest password GeneratePassword returns
const MinPasswordLength = 12

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()_+-=[]{}:,.?"
	passwordSet = lowerChars + upperChars + digitChars + symbolChars
)

// GeneratePassword returns a random password of at least MinPasswordLength
// characters holding one lowercase letter, one uppercase letter, one digit
// and one symbol.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		length = MinPasswordLength
	}

	password := make([]byte, length)
	for i, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		password[i] = c
	}
	for i := 4; i < length; i++ {
		c, err := pick(passwordSet)
		if err != nil {
			return "", err
		}
		password[i] = c
	}

	// Fisher-Yates so the guaranteed classes are not always up front
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to shuffle password: %w", err)
		}
		password[i], password[j.Int64()] = password[j.Int64()], password[i]
	}

	return string(password), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random data: %w", err)
	}
	return set[n.Int64()], nil
}
