package websocket

import (
	"testing"

	"chatsphere/internal/session"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestCloseFrameForReasonMapping(t *testing.T) {
	assert.Equal(t, websocket.FormatCloseMessage(CloseNormal, ""), closeFrameFor(""))
	assert.Equal(t, websocket.FormatCloseMessage(CloseNormal, ""), closeFrameFor(session.ReasonDeregistered))
	assert.Equal(t, websocket.FormatCloseMessage(ClosePolicy, session.ReasonSlowConsumer), closeFrameFor(session.ReasonSlowConsumer))
	assert.Equal(t, websocket.FormatCloseMessage(CloseInternal, session.ReasonInternal), closeFrameFor(session.ReasonInternal))
	assert.Equal(t, websocket.FormatCloseMessage(ClosePolicy, session.ReasonForbidden), closeFrameFor(session.ReasonForbidden))
}
