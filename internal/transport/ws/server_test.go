package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/world-simulator/internal/protocol"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/proxy"
	"github.com/signalsfoundry/world-simulator/model"
)

const testHero = model.EntityID(77)

type fakeEngine struct {
	connectErr error

	mu           sync.Mutex
	clients      []proxy.Client
	posted       chan events.Event
	disconnected chan string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		posted:       make(chan events.Event, 16),
		disconnected: make(chan string, 4),
	}
}

func (e *fakeEngine) Connect(_ context.Context, c proxy.Client) (model.EntityID, error) {
	if e.connectErr != nil {
		return 0, e.connectErr
	}
	e.mu.Lock()
	e.clients = append(e.clients, c)
	e.mu.Unlock()
	if err := c.Send(actions.Configuration{HeroID: testHero}); err != nil {
		return 0, err
	}
	return testHero, nil
}

func (e *fakeEngine) Disconnect(id string) { e.disconnected <- id }

func (e *fakeEngine) Post(ev events.Event) { e.posted <- ev }

func dial(t *testing.T, srv *httptest.Server, subprotocols ...string) *websocket.Conn {
	t.Helper()
	d := websocket.Dialer{Subprotocols: subprotocols, HandshakeTimeout: 2 * time.Second}
	conn, _, err := d.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestServer(t *testing.T, engine Engine, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(engine, nil, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func waitPosted(t *testing.T, e *fakeEngine) events.Event {
	t.Helper()
	select {
	case ev := <-e.posted:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event posted")
		return nil
	}
}

func TestSessionReceivesActionsAndPostsMoves(t *testing.T) {
	engine := newFakeEngine()
	srv := newTestServer(t, engine)
	conn := dial(t, srv)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("frame kind = %d, want text", kind)
	}
	var cfg struct {
		Type string         `json:"type"`
		Hero model.EntityID `json:"hero_actor_id"`
	}
	if err := json.Unmarshal(msg, &cfg); err != nil {
		t.Fatalf("unmarshal %s: %v", msg, err)
	}
	if cfg.Type != "configuration" || cfg.Hero != testHero {
		t.Fatalf("first message = %s, want configuration for hero %d", msg, testHero)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"start_motion","bearing":0.5}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := waitPosted(t, engine)
	want := events.StartMoving{Entity: testHero, Bearing: 0.5}
	if got != want {
		t.Fatalf("posted %#v, want %#v", got, want)
	}

	engine.mu.Lock()
	c := engine.clients[0]
	engine.mu.Unlock()
	if err := c.Send(actions.PickEnd{Who: testHero}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if base, _ := protocol.DecodeBase(msg); base.Type != "pick_end" {
		t.Fatalf("second message = %s, want pick_end", msg)
	}

	conn.Close()
	select {
	case id := <-engine.disconnected:
		if id != c.ID() {
			t.Fatalf("disconnected %q, want %q", id, c.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("engine was not told about the disconnect")
	}
	if err := c.Send(actions.PickEnd{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send after close error = %v, want ErrClosed", err)
	}
}

func TestProtobufSubprotocol(t *testing.T) {
	engine := newFakeEngine()
	srv := newTestServer(t, engine)
	conn := dial(t, srv, SubprotocolProto)
	if conn.Subprotocol() != SubprotocolProto {
		t.Fatalf("negotiated %q, want %q", conn.Subprotocol(), SubprotocolProto)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("frame kind = %d, want binary", kind)
	}
	s, err := protocol.UnmarshalProto(msg)
	if err != nil {
		t.Fatalf("UnmarshalProto: %v", err)
	}
	if got := protocol.StructType(s); got != "configuration" {
		t.Fatalf("type = %q, want configuration", got)
	}
	if got := s.GetFields()["hero_actor_id"].GetNumberValue(); got != float64(testHero) {
		t.Fatalf("hero_actor_id = %v, want %d", got, testHero)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := waitPosted(t, engine); got != (events.Stop{Entity: testHero}) {
		t.Fatalf("posted %#v, want stop", got)
	}
}

func TestConnectFailureClosesSession(t *testing.T) {
	engine := newFakeEngine()
	engine.connectErr = errors.New("world full")
	srv := newTestServer(t, engine)
	conn := dial(t, srv)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseInternalServerErr) {
		t.Fatalf("ReadMessage error = %v, want internal server error close", err)
	}
}

func TestClientQueueFull(t *testing.T) {
	c := &client{id: "c", out: make(chan actions.Action, 1)}
	if err := c.Send(actions.PickEnd{}); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := c.Send(actions.PickEnd{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second Send error = %v, want ErrQueueFull", err)
	}
}
