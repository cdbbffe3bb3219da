package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RideOTPDigits is the length of the code a rider hands to the captain
const RideOTPDigits = 6

// GenerateOTP returns a random numeric code of exactly digits characters,
// drawn uniformly from [10^(digits-1), 10^digits).
func GenerateOTP(digits int) (string, error) {
	if digits < 1 {
		return "", fmt.Errorf("%w: otp length must be positive", ErrInput)
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	high := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)

	n, err := rand.Int(rand.Reader, new(big.Int).Sub(high, low))
	if err != nil {
		return "", fmt.Errorf("failed to read random source: %w", err)
	}
	return n.Add(n, low).String(), nil
}
