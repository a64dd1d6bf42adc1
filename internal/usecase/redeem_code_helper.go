package usecase

import (
	"crypto/rand"
	"io"
)

// redeemCodeAlphabet is upper-case letters and digits.
const redeemCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateRedeemCode draws a uniformly random code of the given length from
// redeemCodeAlphabet using crypto/rand. Bytes >= 252 are rejected so every
// symbol has the same probability.
func generateRedeemCode(length int) (string, error) {
	const limit = 256 - 256%len(redeemCodeAlphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, redeemCodeAlphabet[int(b)%len(redeemCodeAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
