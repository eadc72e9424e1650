package room

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGenerateCodeLength(t *testing.T) {
	src := NewCryptoSource()
	code := generateCode(src, 6)
	assert.Len(t, code, 6)
}

func TestGenerateCodeAlphabet(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 50; i++ {
		code := generateCode(src, 6)
		for _, ch := range code {
			assert.Contains(t, codeAlphabet, string(ch))
		}
	}
}

func TestCryptoSourceRange(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 200; i++ {
		v := src.Intn(36)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 36)
	}
}

func TestCryptoSourcePanicsOnNonPositive(t *testing.T) {
	src := NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
	assert.Panics(t, func() { src.Intn(-1) })
}

func TestNewPlayerIDFormat(t *testing.T) {
	id := NewPlayerID()
	parts := strings.Split(id, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "player", parts[0])
	assert.Len(t, parts[2], 8)
}

func TestNewPlayerIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewPlayerID()
		assert.False(t, seen[id], "duplicate player id %q", id)
		seen[id] = true
	}
}

func TestPropertyGenerateCodeWellFormed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(4, 12).Draw(t, "length")
		code := generateCode(NewCryptoSource(), length)
		if len(code) != length {
			t.Fatalf("code %q has length %d, want %d", code, len(code), length)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains %q outside alphabet", code, ch)
			}
		}
	})
}
