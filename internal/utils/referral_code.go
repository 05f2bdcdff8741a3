package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// no 0/O or 1/I so codes survive being read aloud
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const referralCodeLength = 6

// GenerateReferralCode creates a random code in the format "REFXXXXXX"
func GenerateReferralCode() (string, error) {
	buf := make([]byte, referralCodeLength)
	max := big.NewInt(int64(len(referralAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}
		buf[i] = referralAlphabet[idx.Int64()]
	}
	return "REF" + string(buf), nil
}
