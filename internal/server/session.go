// Package server drives individual WebSocket sessions through the join
// handshake and the paired inbound/outbound relay loops.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// sessionState enumerates the connection lifecycle. A session starts in
// stateAwaitingJoin, moves to stateJoined only after a successful handshake,
// and always terminates in stateClosed. The cleanup actions of stateClosed
// run exactly once and only for sessions that actually reached stateJoined.
type sessionState int

const (
	stateAwaitingJoin sessionState = iota
	stateJoined
	stateClosed
)

// Session owns one WebSocket connection from upgrade to teardown. After the
// join handshake it holds the room reference, the member's username, and the
// private subscription on the room's fan-out stream.
type Session struct {
	conn     *websocket.Conn
	registry *Registry
	log      *zap.Logger
	limiter  *rateLimiter

	state    sessionState
	room     *Room
	sub      *Subscription
	username string
}

// NewSession wraps an upgraded connection. The read limit and rate-limiter
// parameters come from the active configuration at creation time.
func NewSession(conn *websocket.Conn, reg *Registry) *Session {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	id := uuid.NewString()
	return &Session{
		conn:     conn,
		registry: reg,
		log:      serverLogger().With(zap.String("session", id)),
		limiter:  newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		state:    stateAwaitingJoin,
	}
}

// Run executes the session state machine until it reaches stateClosed, then
// closes the underlying connection. It blocks and is meant to be run on its
// own goroutine, one per connection.
func (s *Session) Run() {
	defer s.shutdownConn()

	for s.state != stateClosed {
		switch s.state {
		case stateAwaitingJoin:
			s.state = s.awaitJoin()
		case stateJoined:
			s.state = s.serveJoined()
		}
	}
}

// awaitJoin waits for the first text frame and attempts the join handshake.
// Every failure path writes its fixed notice and moves straight to
// stateClosed without any membership side effects.
func (s *Session) awaitJoin() sessionState {
	s.setupReadConnection()

	for {
		msgType, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return stateClosed
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Info("rejected malformed join envelope", zap.Error(err))
			s.sendNotice(noticeJoinFailed)
			return stateClosed
		}
		if err := validate.Struct(env); err != nil {
			s.log.Info("rejected incomplete join envelope", zap.Error(err))
			s.sendNotice(noticeJoinFailed)
			return stateClosed
		}

		if err := s.joinRoom(env); err != nil {
			s.log.Info("rejected join for taken username",
				zap.String("room", env.Channel), zap.String("username", env.Username))
			s.sendNotice(noticeUsernameTaken)
			return stateClosed
		}
		return stateJoined
	}
}

// joinRoom resolves the envelope against the registry. A room retired between
// GetOrCreate and Join surfaces as ErrRoomClosed, in which case a fresh room
// is obtained and the join retried.
func (s *Session) joinRoom(env Envelope) error {
	for {
		room := s.registry.GetOrCreate(env.Channel)
		sub, err := room.Join(env.Username)
		if errors.Is(err, ErrRoomClosed) {
			continue
		}
		if err != nil {
			return err
		}

		s.room = room
		s.sub = sub
		s.username = env.Username
		return nil
	}
}

// serveJoined announces the member, runs the inbound and outbound loops until
// either terminates, and then performs the Closed-state cleanup: leave
// announcement, membership removal, subscription teardown, and empty-room
// pruning. The cleanup runs exactly once per session that reached Joined.
func (s *Session) serveJoined() sessionState {
	s.log.Info("member joined",
		zap.String("room", s.room.Name()), zap.String("username", s.username))
	s.room.Broadcast(joinAnnouncement(s.username))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cooperative cancellation: a blocked read cannot watch the context, so
	// nudge the read deadline once the other loop has stopped.
	go func() {
		<-ctx.Done()
		_ = s.conn.SetReadDeadline(time.Now())
	}()

	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		return s.outboundLoop(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return s.inboundLoop(ctx)
	})
	_ = g.Wait()

	s.room.Broadcast(leaveAnnouncement(s.username))
	s.room.Leave(s.username)
	s.room.Unsubscribe(s.sub)
	s.registry.RemoveIfEmpty(s.room.Name())

	s.log.Info("member left",
		zap.String("room", s.room.Name()), zap.String("username", s.username))
	return stateClosed
}

// outboundLoop forwards fan-out messages to the connection and keeps it alive
// with periodic pings. It stops on write failure, on a closed subscription
// stream, or when the inbound loop cancels the shared context.
func (s *Session) outboundLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-s.sub.C():
			if !ok {
				return nil
			}
			if err := s.writeText(msg); err != nil {
				if !isExpectedCloseError(err) {
					s.log.Debug("write failed", zap.Error(err))
				}
				return err
			}
		case <-ticker.C:
			if err := s.writePing(); err != nil {
				return err
			}
		}
	}
}

// inboundLoop reads frames from the connection and broadcasts them to the
// room under the member's name. It stops on read failure or cancellation;
// messages over the rate limit are discarded, not fatal.
func (s *Session) inboundLoop(ctx context.Context) error {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logReadError(err)
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !s.limiter.allow() {
			s.log.Debug("rate limit exceeded; discarding message",
				zap.String("username", s.username))
			continue
		}

		s.room.Broadcast(chatMessage(s.username, string(raw)))
	}
}

// setupReadConnection configures the read deadline and pong handler.
func (s *Session) setupReadConnection() {
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.log.Debug("error setting initial read deadline", zap.Error(err))
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (s *Session) writeText(msg string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (s *Session) writePing() error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// sendNotice writes a fixed handshake-failure text, best effort.
func (s *Session) sendNotice(notice string) {
	if err := s.writeText(notice); err != nil && !isExpectedCloseError(err) {
		s.log.Debug("error writing notice", zap.Error(err))
	}
}

// logReadError classifies a read failure so expected disconnects are not
// reported as server errors.
func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Info("message exceeded maximum size", zap.Error(err))
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		s.log.Debug("client disconnected", zap.Error(err))
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		s.log.Debug("connection closed", zap.Error(err))
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		s.log.Warn("unexpected WebSocket error", zap.Error(err))
	default:
		s.log.Debug("WebSocket read error", zap.Error(err))
	}
}

// shutdownConn sends a close frame best effort and closes the connection.
func (s *Session) shutdownConn() {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
		s.log.Debug("error closing connection", zap.Error(err))
	}
}
