// Package random produces identifiers and one-time codes from crypto/rand.
package random

import (
	crand "crypto/rand"
	"math/big"
)

const (
	charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	digits  = "0123456789"
)

func String(length int) (string, error) {
	return fromSet(charset, length)
}

// Digits returns a numeric code such as an email OTP. Leading zeros are kept.
func Digits(length int) (string, error) {
	return fromSet(digits, length)
}

func fromSet(set string, length int) (string, error) {
	b := make([]byte, length)
	l := big.NewInt(int64(len(set)))
	for i := range b {
		num, err := crand.Int(crand.Reader, l)
		if err != nil {
			return "", err
		}
		b[i] = set[num.Int64()]
	}
	return string(b), nil
}
