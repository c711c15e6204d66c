package pkg

import (
	"math/rand/v2"
	"strings"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomName returns prefix joined by a dash to n random lowercase
// alphanumerics, for naming connections and containers that may outlive a
// previous run. A zero n returns prefix unchanged.
func RandomName(prefix string, n int) string {
	if n <= 0 {
		return prefix
	}

	var builder strings.Builder
	builder.Grow(len(prefix) + 1 + n)
	builder.WriteString(prefix)
	builder.WriteByte('-')
	for range n {
		builder.WriteByte(nameAlphabet[rand.IntN(len(nameAlphabet))]) //nolint:gosec
	}

	return builder.String()
}
