package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUpstream = errors.New("upstream down")
var errRejected = errors.New("rejected by upstream")

func newTestBreaker() *Breaker[string] {
	s := DefaultSettings("test")
	s.FailureThreshold = 2
	s.Timeout = time.Hour
	return New[string](s, zap.NewNop(), func(err error) bool {
		return err == nil || errors.Is(err, errRejected)
	})
}

func TestBreaker_PassesResults(t *testing.T) {
	b := newTestBreaker()
	res, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := newTestBreaker()
	for i := 0; i < 2; i++ {
		_, err := b.Execute(func() (string, error) { return "", errUpstream })
		assert.ErrorIs(t, err, errUpstream)
	}

	_, err := b.Execute(func() (string, error) { return "never", nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, "open", b.State())
}

func TestBreaker_IgnoresBusinessErrors(t *testing.T) {
	b := newTestBreaker()
	for i := 0; i < 5; i++ {
		_, err := b.Execute(func() (string, error) { return "", errRejected })
		assert.ErrorIs(t, err, errRejected)
	}
	assert.Equal(t, "closed", b.State())
}
