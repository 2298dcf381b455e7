package orders

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const numberAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderNumber mints a human-quotable order number: base-36 unix
// timestamp plus four random base-36 characters. Uniqueness is enforced by
// the database index; Create retries once on a collision.
func NewOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	for i, b := range suffix {
		suffix[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	stamp := strconv.FormatInt(now.Unix(), 36)
	return "ORD-" + strings.ToUpper(stamp+string(suffix)), nil
}
