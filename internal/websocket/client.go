package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chatsphere/internal/delivery"
	"chatsphere/internal/events"
	"chatsphere/internal/ingest"
	"chatsphere/internal/models"
	"chatsphere/internal/session"
	"chatsphere/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second

	// Inbound frames larger than this are protocol abuse, not chat.
	maxFrameSize = 16 * 1024
)

// Client ties one websocket connection to its Session: a read pump for
// inbound frames and a single write pump draining the session's queue.
type Client struct {
	sess       *session.Session
	conn       *websocket.Conn
	registry   *session.Registry
	pipeline   *ingest.Pipeline
	backfiller *delivery.Backfiller
	bus        *events.Bus
	validate   *validator.Validate
}

func NewClient(sess *session.Session, conn *websocket.Conn, registry *session.Registry, pipeline *ingest.Pipeline, backfiller *delivery.Backfiller, bus *events.Bus) *Client {
	return &Client{
		sess:       sess,
		conn:       conn,
		registry:   registry,
		pipeline:   pipeline,
		backfiller: backfiller,
		bus:        bus,
		validate:   validator.New(),
	}
}

// Run starts both pumps and blocks until the connection is torn down.
// Teardown always deregisters, no matter how the connection ended.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error on %s: %v", c.sess.ID, err)
			}
			return
		}

		var frame models.ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendError(models.ErrCodeBadFrame, "malformed frame")
			continue
		}
		if err := c.validate.Struct(&frame); err != nil {
			c.sendError(models.ErrCodeBadFrame, err.Error())
			continue
		}

		c.dispatch(&frame)
	}
}

func (c *Client) dispatch(frame *models.ClientFrame) {
	ctx := context.Background()

	switch frame.Type {
	case models.FrameTypeMessage:
		_, err := c.pipeline.Submit(ctx, c.sess.ID, c.sess.UserID, frame.RoomID, frame.Text)
		if err != nil {
			c.sendError(ingest.ErrorCode(err), err.Error())
			return
		}
		c.ack(frame.RequestID)

	case models.FrameTypeTyping:
		if !c.registry.IsRoomMember(c.sess.ID, frame.RoomID) {
			c.sendError(models.ErrCodeForbidden, "not a member of this room")
			return
		}
		c.bus.Publish(events.TypingSignal{ConnID: c.sess.ID, UserID: c.sess.UserID, RoomID: frame.RoomID})

	case models.FrameTypeJoin:
		if err := c.registry.JoinRoom(ctx, c.sess.ID, frame.RoomID); err != nil {
			c.sendError(joinErrorCode(err), err.Error())
			return
		}
		if frame.SinceSeq != nil {
			if _, err := c.backfiller.Replay(ctx, c.sess, frame.RoomID, *frame.SinceSeq); err != nil {
				logger.Error("Backfill failed for %s in room %s: %v", c.sess.ID, frame.RoomID, err)
				c.sendError(models.ErrCodeInternal, "backfill failed")
				return
			}
		}
		c.ack(frame.RequestID)

	case models.FrameTypeLeave:
		if err := c.registry.LeaveRoom(ctx, c.sess.ID, frame.RoomID); err != nil {
			c.sendError(models.ErrCodeInternal, err.Error())
			return
		}
		c.ack(frame.RequestID)
	}
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrRoomNotFound), errors.Is(err, session.ErrAccessDenied):
		return models.ErrCodeForbidden
	default:
		return models.ErrCodeInternal
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.sess.Outbound():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("Write error on %s: %v", c.sess.ID, err)
				return
			}

		case <-c.sess.Done():
			// Queued payloads are discarded, not flushed.
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, closeFrameFor(c.sess.CloseReason()))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func closeFrameFor(reason string) []byte {
	switch reason {
	case "", session.ReasonDeregistered:
		return websocket.FormatCloseMessage(CloseNormal, "")
	case session.ReasonSlowConsumer:
		return websocket.FormatCloseMessage(ClosePolicy, reason)
	case session.ReasonInternal:
		return websocket.FormatCloseMessage(CloseInternal, reason)
	default:
		return websocket.FormatCloseMessage(ClosePolicy, reason)
	}
}

// teardown is the single cleanup path for every way a connection ends.
func (c *Client) teardown() {
	rooms := c.registry.Rooms(c.sess.ID)
	c.sess.Close("")
	if c.registry.Deregister(c.sess.ID) {
		c.bus.Publish(events.SessionDisconnected{
			ConnID: c.sess.ID,
			UserID: c.sess.UserID,
			Rooms:  rooms,
		})
	}
	c.conn.Close()
}

// Enqueue-or-log error frame back to this client only.
func (c *Client) sendError(code, detail string) {
	data, err := json.Marshal(models.NewErrorFrame(code, detail))
	if err != nil {
		return
	}
	if err := c.sess.Enqueue(data); err != nil {
		logger.Debug("Dropping error frame for %s: %v", c.sess.ID, err)
	}
}

func (c *Client) ack(requestID string) {
	if requestID == "" {
		return
	}
	data, err := json.Marshal(models.NewAckFrame(requestID))
	if err != nil {
		return
	}
	if err := c.sess.Enqueue(data); err != nil {
		logger.Debug("Dropping ack for %s: %v", c.sess.ID, err)
	}
}
