package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecobin-app/backend/internal/models"
	"github.com/ecobin-app/backend/internal/ws"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeChatAPI struct {
	mu         sync.Mutex
	history    []models.Message
	historyErr error
	block      chan struct{}
	sent       []models.Message
	seen       [][2]uint
}

func (f *fakeChatAPI) GetConversation(ctx context.Context, userID, otherUserID uint) ([]models.Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	out := make([]models.Message, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeChatAPI) SendMessage(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := models.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	}
	f.sent = append(f.sent, msg)
	return &msg, nil
}

func (f *fakeChatAPI) MarkSeen(ctx context.Context, senderID, receiverID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, [2]uint{senderID, receiverID})
	return 1, nil
}

// fakeRelayConn is an in-memory stand-in for a websocket connection.
type fakeRelayConn struct {
	mu        sync.Mutex
	written   []ws.Event
	incoming  chan ws.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeRelayConn() *fakeRelayConn {
	return &fakeRelayConn{
		incoming: make(chan ws.Event, 16),
		done:     make(chan struct{}),
	}
}

func (f *fakeRelayConn) WriteJSON(v interface{}) error {
	ev, ok := v.(ws.Event)
	if !ok {
		return errors.New("unexpected write type")
	}
	f.mu.Lock()
	f.written = append(f.written, ev)
	f.mu.Unlock()
	return nil
}

func (f *fakeRelayConn) ReadJSON(v interface{}) error {
	select {
	case ev := <-f.incoming:
		*(v.(*ws.Event)) = ev
		return nil
	case <-f.done:
		return errors.New("connection closed")
	}
}

func (f *fakeRelayConn) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeRelayConn) writtenEvents() []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ws.Event, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakeRelayConn) push(t *testing.T, name string, payload interface{}) {
	t.Helper()
	ev, err := ws.NewEvent(name, payload)
	if err != nil {
		t.Fatal(err)
	}
	f.incoming <- ev
}

func newTestSession(t *testing.T, api *fakeChatAPI, conn *fakeRelayConn, cfg SessionConfig) *Session {
	t.Helper()
	cfg.API = api
	if cfg.UserID == 0 {
		cfg.UserID = 1
	}
	if cfg.CounterpartID == 0 {
		cfg.CounterpartID = 2
	}
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s.dial = func(ctx context.Context) (relayConn, error) {
		if conn == nil {
			return nil, errors.New("relay unavailable")
		}
		return conn, nil
	}
	return s
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewSessionRequiresBothIdentities(t *testing.T) {
	for _, ids := range [][2]uint{{0, 2}, {1, 0}, {0, 0}} {
		_, err := NewSession(SessionConfig{API: &fakeChatAPI{}, UserID: ids[0], CounterpartID: ids[1]})
		if !errors.Is(err, ErrMissingIdentity) {
			t.Errorf("NewSession(%d, %d) err = %v, want ErrMissingIdentity", ids[0], ids[1], err)
		}
	}
}

func TestSessionGoesLive(t *testing.T) {
	stored := models.Message{
		ID: primitive.NewObjectID(), SenderID: 2, ReceiverID: 1,
		Text: "hello", Timestamp: time.Now().UTC().Add(-time.Minute),
	}
	api := &fakeChatAPI{history: []models.Message{stored}}
	conn := newFakeRelayConn()

	var got []models.Message
	var mu sync.Mutex
	s := newTestSession(t, api, conn, SessionConfig{
		OnMessage: func(m models.Message) {
			mu.Lock()
			got = append(got, m)
			mu.Unlock()
		},
	})
	if s.State() != StateUninitialized {
		t.Fatalf("initial state = %v, want uninitialized", s.State())
	}

	s.Start(context.Background())
	defer s.Close()

	waitFor(t, func() bool { return s.State() == StateLive }, "session never became live")

	events := conn.writtenEvents()
	if len(events) == 0 || events[0].Event != ws.EventJoin {
		t.Fatalf("first relay write = %v, want a join event", events)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Text != "hello" {
		t.Errorf("OnMessage observed %v, want the history message", got)
	}
}

func TestSessionHistoryFailureIsBlocking(t *testing.T) {
	api := &fakeChatAPI{historyErr: errors.New("api unreachable")}
	s := newTestSession(t, api, newFakeRelayConn(), SessionConfig{})

	s.Start(context.Background())
	defer s.Close()

	waitFor(t, func() bool { return s.State() == StateError }, "history failure should put the session in error state")
}

func TestSessionSendPrefersRelay(t *testing.T) {
	api := &fakeChatAPI{}
	conn := newFakeRelayConn()
	s := newTestSession(t, api, conn, SessionConfig{})

	s.Start(context.Background())
	defer s.Close()
	waitFor(t, func() bool { return s.State() == StateLive }, "session never became live")

	msg, outcome, err := s.Send(context.Background(), "over the wire")
	if err != nil {
		t.Fatalf("Send returned %v", err)
	}
	if outcome != SendQueuedRealtime {
		t.Errorf("outcome = %v, want SendQueuedRealtime", outcome)
	}
	if msg != nil {
		t.Error("relay send returns no message; the stored copy arrives on echo")
	}

	var sendEv *ws.Event
	for _, ev := range conn.writtenEvents() {
		if ev.Event == ws.EventSendMessage {
			e := ev
			sendEv = &e
		}
	}
	if sendEv == nil {
		t.Fatal("sendMessage event never reached the relay")
	}
	api.mu.Lock()
	httpSends := len(api.sent)
	api.mu.Unlock()
	if httpSends != 0 {
		t.Error("relay send must not also use the HTTP path")
	}
}

func TestSessionSendFallsBackToHTTP(t *testing.T) {
	api := &fakeChatAPI{}
	s := newTestSession(t, api, nil, SessionConfig{}) // relay dial fails

	s.Start(context.Background())
	defer s.Close()
	waitFor(t, func() bool { return s.State() == StateConnecting }, "history never loaded")

	msg, outcome, err := s.Send(context.Background(), "degraded")
	if err != nil {
		t.Fatalf("Send returned %v", err)
	}
	if outcome != SendStored {
		t.Errorf("outcome = %v, want SendStored", outcome)
	}
	if msg == nil || msg.Text != "degraded" {
		t.Fatalf("HTTP send returned %+v, want the stored message", msg)
	}

	history := s.History()
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Errorf("history = %v, want the sent message merged in", history)
	}
}

func TestSessionDedupesByID(t *testing.T) {
	api := &fakeChatAPI{}
	conn := newFakeRelayConn()

	var count int
	var mu sync.Mutex
	s := newTestSession(t, api, conn, SessionConfig{
		OnMessage: func(models.Message) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})
	s.Start(context.Background())
	defer s.Close()
	waitFor(t, func() bool { return s.State() == StateLive }, "session never became live")

	dup := models.Message{
		ID: primitive.NewObjectID(), SenderID: 1, ReceiverID: 2,
		Text: "once", Timestamp: time.Now().UTC(),
	}
	conn.push(t, ws.EventReceiveMessage, dup)
	conn.push(t, ws.EventReceiveMessage, dup)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 1
	}, "message never delivered")
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("OnMessage fired %d times, want 1", count)
	}
	if len(s.History()) != 1 {
		t.Errorf("history holds %d messages, want 1", len(s.History()))
	}
}

func TestSessionKeepsForeignMessagesOutOfHistory(t *testing.T) {
	api := &fakeChatAPI{}
	conn := newFakeRelayConn()

	var mu sync.Mutex
	var inConversation, foreign []models.Message
	s := newTestSession(t, api, conn, SessionConfig{
		OnMessage: func(m models.Message) {
			mu.Lock()
			inConversation = append(inConversation, m)
			mu.Unlock()
		},
		OnForeignMessage: func(m models.Message) {
			mu.Lock()
			foreign = append(foreign, m)
			mu.Unlock()
		},
	})
	s.Start(context.Background())
	defer s.Close()
	waitFor(t, func() bool { return s.State() == StateLive }, "session never became live")

	// The relay delivers everything addressed to user 1 over the one
	// connection, including messages from users other than the open
	// counterpart.
	other := models.Message{
		ID: primitive.NewObjectID(), SenderID: 3, ReceiverID: 1,
		Text: "different chat", Timestamp: time.Now().UTC(),
	}
	ours := models.Message{
		ID: primitive.NewObjectID(), SenderID: 2, ReceiverID: 1,
		Text: "this chat", Timestamp: time.Now().UTC(),
	}
	conn.push(t, ws.EventReceiveMessage, other)
	conn.push(t, ws.EventReceiveMessage, ours)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(inConversation) >= 1
	}, "conversation message never delivered")

	history := s.History()
	if len(history) != 1 || history[0].SenderID != 2 {
		t.Fatalf("history = %+v, want only the open pair's message", history)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(foreign) != 1 || foreign[0].SenderID != 3 {
		t.Errorf("foreign = %+v, want the third-party message surfaced separately", foreign)
	}
	if len(inConversation) != 1 {
		t.Errorf("OnMessage fired %d times, want 1", len(inConversation))
	}
}

func TestSessionAutoAcknowledgesIncoming(t *testing.T) {
	api := &fakeChatAPI{}
	conn := newFakeRelayConn()
	s := newTestSession(t, api, conn, SessionConfig{})

	s.Start(context.Background())
	defer s.Close()
	waitFor(t, func() bool { return s.State() == StateLive }, "session never became live")

	incoming := models.Message{
		ID: primitive.NewObjectID(), SenderID: 2, ReceiverID: 1,
		Text: "read me", Timestamp: time.Now().UTC(),
	}
	conn.push(t, ws.EventReceiveMessage, incoming)

	waitFor(t, func() bool {
		for _, ev := range conn.writtenEvents() {
			if ev.Event == ws.EventMarkSeen {
				return true
			}
		}
		return false
	}, "open conversation should auto-acknowledge an incoming message")
}

func TestSessionSeenFlipsSentMessages(t *testing.T) {
	mine := models.Message{
		ID: primitive.NewObjectID(), SenderID: 1, ReceiverID: 2,
		Text: "unacked", Timestamp: time.Now().UTC().Add(-time.Minute),
	}
	api := &fakeChatAPI{history: []models.Message{mine}}
	conn := newFakeRelayConn()

	seen := make(chan uint, 1)
	s := newTestSession(t, api, conn, SessionConfig{
		OnSeen: func(receiverID uint) { seen <- receiverID },
	})
	s.Start(context.Background())
	defer s.Close()
	waitFor(t, func() bool { return s.State() == StateLive }, "session never became live")

	conn.push(t, ws.EventMessagesSeen, ws.MessagesSeenPayload{ReceiverID: 2})

	select {
	case receiverID := <-seen:
		if receiverID != 2 {
			t.Errorf("OnSeen receiverID = %d, want 2", receiverID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnSeen never fired")
	}

	history := s.History()
	if len(history) != 1 || !history[0].Read {
		t.Errorf("history = %+v, want the sent message flipped to read", history)
	}
}

func TestSessionCloseDiscardsLateHistory(t *testing.T) {
	api := &fakeChatAPI{
		history: []models.Message{{ID: primitive.NewObjectID(), SenderID: 2, ReceiverID: 1, Text: "late"}},
		block:   make(chan struct{}),
	}
	s := newTestSession(t, api, nil, SessionConfig{})

	s.Start(context.Background())
	s.Close()
	close(api.block)

	time.Sleep(50 * time.Millisecond)
	if got := len(s.History()); got != 0 {
		t.Errorf("history holds %d messages after close, want the late result discarded", got)
	}
	if s.State() != StateClosed {
		t.Errorf("state = %v, want closed", s.State())
	}

	if _, _, err := s.Send(context.Background(), "x"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Send after close err = %v, want ErrSessionClosed", err)
	}
}
