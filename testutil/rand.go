package testutil

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/shade-protocol/shade-ledger/internal/types"
)

// RandomAlphaNum generates random alphanumeric string
// in case length <= 0 it returns empty string
func RandomAlphaNum(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	if length <= 0 {
		return "", fmt.Errorf("length must be greater than 0")
	}

	randomString := make([]byte, length)
	for i := range randomString {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		randomString[i] = charset[num.Int64()]
	}

	return string(randomString), nil
}

// RandomAddress returns an address derived from a random name, so that
// identities in test logs stay distinguishable.
func RandomAddress() types.Address {
	return types.DeriveAddress("test", []byte(gofakeit.Name()), []byte(gofakeit.UUID()))
}

// RandomPurpose returns a purpose text of at most maxLen characters.
func RandomPurpose(maxLen int) string {
	purpose := gofakeit.Sentence(4)
	if len(purpose) > maxLen {
		purpose = purpose[:maxLen]
	}
	return purpose
}

func Ptr[T any](v T) *T {
	return &v
}
