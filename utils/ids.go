package utils

import (
	"crypto/rand"
	"log"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randBase36 returns n random base36 characters.
func randBase36(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			log.Printf("ERROR: failed to generate random id fragment: %v", err)
			// Degrade to a timestamp-derived fragment rather than failing.
			return strconv.FormatInt(time.Now().UnixNano(), 36)[:n]
		}
		out[i] = base36Alphabet[idx.Int64()]
	}
	return string(out)
}

// NewVisitorID builds a permanent visitor identifier: a random base36
// fragment concatenated with the creation time in base36 milliseconds.
func NewVisitorID(now time.Time) string {
	return randBase36(8) + strconv.FormatInt(now.UnixMilli(), 36)
}

// NewSessionID builds a session identifier in the same shape as visitor
// ids; uniqueness within the 30-minute window is all that is required.
func NewSessionID(now time.Time) string {
	return randBase36(8) + strconv.FormatInt(now.UnixMilli(), 36)
}

// NewEventID returns a unique id for an event or order record.
func NewEventID() string {
	return uuid.New().String()
}
