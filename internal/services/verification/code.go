// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of decimal digits in a verification code.
const CodeLength = 6

var ten = big.NewInt(10)

// GenerateCode returns a zero-padded code whose digits are drawn
// independently and uniformly from crypto/rand.
func GenerateCode() (string, error) {
	digits := make([]byte, CodeLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
