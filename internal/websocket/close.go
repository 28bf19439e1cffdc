package websocket

import "github.com/gorilla/websocket"

// Close codes. Policy violation covers both bad credentials and room
// access denials, matching how the transport library frames them.
const (
	CloseNormal   = websocket.CloseNormalClosure
	ClosePolicy   = websocket.ClosePolicyViolation
	CloseInternal = websocket.CloseInternalServerErr
)
