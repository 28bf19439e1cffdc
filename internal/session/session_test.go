package session

import (
	"fmt"
	"testing"

	"chatsphere/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(capacity int) *Session {
	return New(&models.Claims{UserID: "u1", Username: "alice"}, capacity)
}

func TestSessionQueueBound(t *testing.T) {
	sess := newTestSession(2)

	require.NoError(t, sess.Enqueue([]byte("a")))
	require.NoError(t, sess.Enqueue([]byte("b")))
	assert.ErrorIs(t, sess.Enqueue([]byte("c")), ErrQueueFull)
}

func TestSessionEnqueueDropOldest(t *testing.T) {
	sess := newTestSession(2)

	require.NoError(t, sess.Enqueue([]byte("a")))
	require.NoError(t, sess.Enqueue([]byte("b")))
	require.NoError(t, sess.EnqueueDropOldest([]byte("c")))

	// Oldest payload was discarded to make room.
	assert.Equal(t, []byte("b"), <-sess.Outbound())
	assert.Equal(t, []byte("c"), <-sess.Outbound())
}

func TestSessionCloseIsTerminal(t *testing.T) {
	sess := newTestSession(4)

	sess.Close(ReasonSlowConsumer)
	sess.Close("another reason")

	assert.Equal(t, StateDisconnected, sess.State())
	assert.Equal(t, ReasonSlowConsumer, sess.CloseReason())
	assert.ErrorIs(t, sess.Enqueue([]byte("x")), ErrSessionClosed)

	select {
	case <-sess.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
}

func TestSessionConcurrentClose(t *testing.T) {
	sess := newTestSession(1)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			sess.Close(fmt.Sprintf("reason-%d", i))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Equal(t, StateDisconnected, sess.State())
	assert.NotEmpty(t, sess.CloseReason())
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "authenticated", newTestSession(1).State().String())
	assert.Equal(t, "disconnected", StateDisconnected.String())
}
