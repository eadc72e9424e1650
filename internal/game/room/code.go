package room

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// codeAlphabet is the character set for generated room codes.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Source yields random ints for room-code generation. Implementations must
// return values uniformly distributed in [0, n).
type Source interface {
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "room: Intn called with n <= 0" if n <= 0.
// Panics with "room: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("room: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("room: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// generateCode builds a random uppercase-alphanumeric code of the given length.
func generateCode(src Source, length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(codeAlphabet[src.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// NewPlayerID generates a player identifier unique for the process lifetime:
// a timestamp-derived prefix plus a random suffix.
//
// Postcondition: Returns a string of the form "player_<unixMillis>_<8 hex chars>".
func NewPlayerID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("player_%d_%s", time.Now().UnixMilli(), suffix)
}
