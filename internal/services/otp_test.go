package services

import (
	"errors"
	"strconv"
	"testing"
)

func TestGenerateOTPRange(t *testing.T) {
	const draws = 10000
	buckets := make(map[byte]int)

	for i := 0; i < draws; i++ {
		otp, err := GenerateOTP(6)
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("otp %q has length %d", otp, len(otp))
		}
		n, err := strconv.Atoi(otp)
		if err != nil {
			t.Fatalf("otp %q is not numeric", otp)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("otp %d out of range", n)
		}
		buckets[otp[0]]++
	}

	// nine leading digits, about 1111 draws each
	for d := byte('1'); d <= '9'; d++ {
		if c := buckets[d]; c < 900 || c > 1330 {
			t.Errorf("leading digit %c drawn %d times, distribution looks skewed", d, c)
		}
	}
	if buckets['0'] != 0 {
		t.Errorf("leading zero drawn %d times", buckets['0'])
	}
}

func TestGenerateOTPLengths(t *testing.T) {
	for _, digits := range []int{1, 4, 6, 9, 18, 19, 30} {
		otp, err := GenerateOTP(digits)
		if err != nil {
			t.Fatalf("GenerateOTP(%d): %v", digits, err)
		}
		if len(otp) != digits {
			t.Errorf("GenerateOTP(%d) = %q", digits, otp)
		}
		if otp[0] == '0' {
			t.Errorf("GenerateOTP(%d) = %q has a leading zero", digits, otp)
		}
	}
}

func TestGenerateOTPInvalidLength(t *testing.T) {
	for _, digits := range []int{-1, 0} {
		if _, err := GenerateOTP(digits); !errors.Is(err, ErrInput) {
			t.Errorf("GenerateOTP(%d): expected ErrInput, got %v", digits, err)
		}
	}
}
