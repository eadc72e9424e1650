package conn

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSender struct{}

func (nopSender) Send([]byte) error { return nil }

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	s := nopSender{}

	reg.Register("p1", s, "ABC123")

	sender, ok := reg.Lookup("p1")
	require.True(t, ok)
	assert.NotNil(t, sender)
	assert.Equal(t, 1, reg.Count())
}

func TestLookupUnknown(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Lookup("ghost")
	assert.False(t, ok)
}

func TestUnregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("p1", nopSender{}, "ABC123")

	b, ok := reg.Unregister("p1")
	require.True(t, ok)
	assert.Equal(t, "p1", b.PlayerID)
	assert.Equal(t, "ABC123", b.RoomCode)
	assert.Equal(t, 0, reg.Count())

	_, ok = reg.Lookup("p1")
	assert.False(t, ok)
}

func TestUnregisterClaimsExactlyOnce(t *testing.T) {
	reg := NewRegistry()
	reg.Register("p1", nopSender{}, "ABC123")

	_, first := reg.Unregister("p1")
	_, second := reg.Unregister("p1")
	assert.True(t, first)
	assert.False(t, second)
}

func TestUnregisterConcurrentClaim(t *testing.T) {
	reg := NewRegistry()
	reg.Register("p1", nopSender{}, "ABC123")

	const racers = 16
	var claims atomic.Int32
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, ok := reg.Unregister("p1"); ok {
				claims.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), claims.Load())
}

func TestCountConcurrent(t *testing.T) {
	reg := NewRegistry()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			reg.Register(fmt.Sprintf("p%d", i), nopSender{}, "ABC123")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, n, reg.Count())

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, _ = reg.Unregister(fmt.Sprintf("p%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, reg.Count())
}
