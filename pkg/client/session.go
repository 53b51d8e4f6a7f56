package client

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ecobin-app/backend/internal/models"
	"github.com/ecobin-app/backend/internal/ws"
	"github.com/gorilla/websocket"
)

// State is the chat session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateConnecting
	StateLive
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	}
	return "unknown"
}

// ErrMissingIdentity is returned when the session is created without both
// user identities. The caller should surface it with a "go back" action.
var ErrMissingIdentity = errors.New("both user identities are required")

// ErrSessionClosed is returned by operations on a torn-down session.
var ErrSessionClosed = errors.New("session is closed")

// ChatAPI is the slice of the HTTP API a chat session needs. *API
// satisfies it.
type ChatAPI interface {
	GetConversation(ctx context.Context, userID, otherUserID uint) ([]models.Message, error)
	SendMessage(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error)
	MarkSeen(ctx context.Context, senderID, receiverID uint) (int64, error)
}

// relayConn is the slice of a websocket connection the session uses.
type relayConn interface {
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
	Close() error
}

// SessionConfig configures one chat screen's session.
type SessionConfig struct {
	API            ChatAPI
	WSURL          string
	UserID         uint
	CounterpartID  uint
	ConnectTimeout time.Duration

	// OnMessage fires for every newly observed message, history or live.
	OnMessage func(models.Message)
	// OnForeignMessage fires for live messages addressed to the user from
	// outside this conversation, so a conversation list can update while
	// another chat is open.
	OnForeignMessage func(models.Message)
	// OnSeen fires when the counterpart acknowledges our sent messages.
	OnSeen func(receiverID uint)
	// OnError surfaces non-blocking failures (dismissible notices).
	OnError func(error)
}

// Session reconciles durable history with realtime relay events for one
// open conversation. History loading and the relay connection proceed in
// parallel; the session is Live once both have resolved. Sending works in
// every non-closed state: the durable path is always available.
type Session struct {
	cfg  SessionConfig
	dial func(ctx context.Context) (relayConn, error)

	mu            sync.Mutex
	closed        bool
	failed        bool
	started       bool
	historyLoaded bool
	connected     bool
	conn          relayConn
	history       []models.Message
	known         map[string]bool
}

// NewSession validates identities and prepares a session. A missing
// identity is a blocking error: there is no conversation to open.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.API == nil {
		return nil, errors.New("API client is required")
	}
	if cfg.UserID == 0 || cfg.CounterpartID == 0 {
		return nil, ErrMissingIdentity
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	s := &Session{cfg: cfg, known: make(map[string]bool)}
	s.dial = s.dialRelay
	return s, nil
}

func (s *Session) dialRelay(ctx context.Context) (relayConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, s.cfg.WSURL, nil)
	return conn, err
}

// Start begins history loading and the relay connection concurrently.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.loadHistory(ctx)
	go s.connect(ctx)
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return StateClosed
	case s.failed:
		return StateError
	case !s.started:
		return StateUninitialized
	case !s.historyLoaded:
		return StateLoading
	case !s.connected:
		return StateConnecting
	}
	return StateLive
}

func (s *Session) loadHistory(ctx context.Context) {
	messages, err := s.cfg.API.GetConversation(ctx, s.cfg.UserID, s.cfg.CounterpartID)

	s.mu.Lock()
	if s.closed {
		// The screen is gone; discard the result.
		s.mu.Unlock()
		return
	}
	s.historyLoaded = true
	var fresh []models.Message
	if err == nil {
		fresh = s.mergeLocked(messages)
	} else {
		// Without history the screen cannot render; this is the one
		// blocking failure. Relay trouble, by contrast, only degrades.
		s.failed = true
	}
	s.mu.Unlock()

	if err != nil {
		s.reportError(err)
		return
	}
	for _, m := range fresh {
		s.notifyMessage(m)
	}
}

func (s *Session) connect(ctx context.Context) {
	conn, err := s.dial(ctx)
	if err != nil {
		// Degrade to HTTP-only: sends still work, receipt is not
		// instantaneous.
		s.reportError(err)
		return
	}

	joinEv, err := ws.NewEvent(ws.EventJoin, ws.JoinPayload{UserID: s.cfg.UserID})
	if err == nil {
		err = conn.WriteJSON(joinEv)
	}
	if err != nil {
		conn.Close()
		s.reportError(err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.readLoop(conn)
}

func (s *Session) readLoop(conn relayConn) {
	for {
		var ev ws.Event
		if err := conn.ReadJSON(&ev); err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.connected = false
				s.conn = nil
			}
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.reportError(err)
			}
			return
		}
		s.handleEvent(ev)
	}
}

func (s *Session) handleEvent(ev ws.Event) {
	switch ev.Event {
	case ws.EventReceiveMessage:
		var msg models.Message
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			return
		}
		s.handleReceive(msg)
	case ws.EventMessagesSeen:
		var p ws.MessagesSeenPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return
		}
		s.handleSeen(p.ReceiverID)
	case ws.EventMessageError:
		var p ws.MessageErrorPayload
		if json.Unmarshal(ev.Data, &p) == nil {
			s.reportError(errors.New(p.Error))
		}
	}
}

// handleReceive appends a live message unless already known (realtime
// delivery may duplicate; the id is the dedupe key). The relay delivers
// every message addressed to the user over the one connection, so a
// message outside the open pair is routed to OnForeignMessage instead of
// this conversation's history. When the message belongs to this open
// conversation and we are its receiver, it is auto-marked read and a seen
// event goes back to the sender.
func (s *Session) handleReceive(msg models.Message) {
	inPair := (msg.SenderID == s.cfg.UserID && msg.ReceiverID == s.cfg.CounterpartID) ||
		(msg.SenderID == s.cfg.CounterpartID && msg.ReceiverID == s.cfg.UserID)
	if !inPair {
		if s.cfg.OnForeignMessage != nil {
			s.cfg.OnForeignMessage(msg)
		}
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fresh := s.mergeLocked([]models.Message{msg})
	s.mu.Unlock()

	if len(fresh) == 0 {
		return
	}
	s.notifyMessage(msg)

	if msg.ReceiverID == s.cfg.UserID && msg.SenderID == s.cfg.CounterpartID {
		s.markSeen(context.Background())
	}
}

func (s *Session) handleSeen(receiverID uint) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for i := range s.history {
		if s.history[i].SenderID == s.cfg.UserID && s.history[i].ReceiverID == receiverID {
			s.history[i].Read = true
		}
	}
	s.mu.Unlock()

	if s.cfg.OnSeen != nil {
		s.cfg.OnSeen(receiverID)
	}
}

// mergeLocked inserts unknown messages into the chronological history and
// returns the ones actually added. Caller holds s.mu.
func (s *Session) mergeLocked(messages []models.Message) []models.Message {
	var fresh []models.Message
	for _, m := range messages {
		key := m.ID.Hex()
		if s.known[key] {
			continue
		}
		s.known[key] = true
		s.history = append(s.history, m)
		fresh = append(fresh, m)
	}
	if len(fresh) > 0 {
		sort.SliceStable(s.history, func(i, j int) bool {
			if !s.history[i].Timestamp.Equal(s.history[j].Timestamp) {
				return s.history[i].Timestamp.Before(s.history[j].Timestamp)
			}
			return s.history[i].ID.Hex() < s.history[j].ID.Hex()
		})
	}
	return fresh
}

// SendOutcome reports which path carried a Send.
type SendOutcome int

const (
	// SendQueuedRealtime means the relay accepted the event; the server
	// stores the message and echoes the stored copy back via OnMessage.
	SendQueuedRealtime SendOutcome = iota
	// SendStored means the durable HTTP path stored the message, which
	// Send returns directly.
	SendStored
)

// Send delivers a message. While the relay is connected the send event
// goes over it (the relay persists through the same store path and echoes
// the stored message back); otherwise the durable HTTP path is used
// directly. On failure the caller keeps the text and may retry.
func (s *Session) Send(ctx context.Context, text string) (*models.Message, SendOutcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, SendStored, ErrSessionClosed
	}
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if connected && conn != nil {
		payload := ws.SendMessagePayload{
			SenderID:   s.cfg.UserID,
			ReceiverID: s.cfg.CounterpartID,
			Text:       text,
		}
		ev, err := ws.NewEvent(ws.EventSendMessage, payload)
		if err == nil {
			if err = conn.WriteJSON(ev); err == nil {
				return nil, SendQueuedRealtime, nil
			}
		}
		// Fall through to the durable path on relay failure.
	}

	msg, err := s.cfg.API.SendMessage(ctx, s.cfg.UserID, s.cfg.CounterpartID, text)
	if err != nil {
		return nil, SendStored, err
	}

	s.mu.Lock()
	if !s.closed {
		s.mergeLocked([]models.Message{*msg})
	}
	s.mu.Unlock()
	return msg, SendStored, nil
}

// markSeen acknowledges the counterpart's messages, preferring the relay
// (which also flips the store) and falling back to HTTP.
func (s *Session) markSeen(ctx context.Context) {
	s.mu.Lock()
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if connected && conn != nil {
		payload := ws.MarkSeenPayload{SenderID: s.cfg.CounterpartID, ReceiverID: s.cfg.UserID}
		if ev, err := ws.NewEvent(ws.EventMarkSeen, payload); err == nil {
			if conn.WriteJSON(ev) == nil {
				return
			}
		}
	}

	if _, err := s.cfg.API.MarkSeen(ctx, s.cfg.CounterpartID, s.cfg.UserID); err != nil {
		s.reportError(err)
	}
}

// History returns a copy of the chronological message history.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Close tears the session down. Late results from in-flight operations
// are discarded rather than applied to a closed session.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (s *Session) notifyMessage(m models.Message) {
	if s.cfg.OnMessage != nil {
		s.cfg.OnMessage(m)
	}
}

func (s *Session) reportError(err error) {
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}
