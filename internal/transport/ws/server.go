// Package ws exposes the simulation to players over websockets.
//
// Each connection controls one hero. The server pushes actions as JSON text
// frames, or as protobuf Struct binary frames when the client negotiates the
// protobuf subprotocol. Clients send moves as JSON text frames.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/protocol"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/proxy"
	"github.com/signalsfoundry/world-simulator/model"
)

// Subprotocols understood by the server.
const (
	SubprotocolJSON  = "world.v1.json"
	SubprotocolProto = "world.v1.proto"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	connectTimeout = 5 * time.Second
	maxMoveSize    = 64 * 1024
)

var (
	// ErrQueueFull is returned when a client does not keep up.
	ErrQueueFull = errors.New("client send queue full")
	// ErrClosed is returned for sends to a closed connection.
	ErrClosed = errors.New("client connection closed")
)

// Engine is the part of the simulation the gateway drives.
type Engine interface {
	Connect(ctx context.Context, c proxy.Client) (model.EntityID, error)
	Disconnect(id string)
	Post(ev events.Event)
}

// Server upgrades HTTP requests into player sessions.
type Server struct {
	engine Engine
	log    logging.Logger
	queue  int

	upgrader websocket.Upgrader
}

// Option customises Server construction.
type Option func(*Server)

// WithQueueSize sets how many actions may wait for a slow client before
// further ones are dropped.
func WithQueueSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.queue = n
		}
	}
}

// WithCheckOrigin overrides the origin policy of the upgrader.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = check }
}

// NewServer returns a gateway in front of engine.
func NewServer(engine Engine, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		engine: engine,
		log:    log,
		queue:  256,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			Subprotocols:    []string{SubprotocolJSON, SubprotocolProto},
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler serves one websocket session per request.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug(r.Context(), "websocket upgrade failed", logging.Err(err))
			return
		}
		defer ws.Close()

		ctx, log := logging.WithConnectionLogger(context.Background(), s.log)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		c := &client{
			id:     logging.ConnectionIDFromContext(ctx),
			out:    make(chan actions.Action, s.queue),
			binary: ws.Subprotocol() == SubprotocolProto,
		}

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			s.writeLoop(ctx, ws, c, log)
			cancel()
			// Unblocks the reader.
			_ = ws.Close()
		}()

		connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
		hero, err := s.engine.Connect(connectCtx, c)
		connectCancel()
		if err != nil {
			log.Warn(ctx, "connect failed", logging.Err(err))
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "cannot join"),
				time.Now().Add(time.Second))
			c.closed.Store(true)
			cancel()
			<-writerDone
			return
		}
		log = log.With(logging.Uint64("hero_id", uint64(hero)))
		log.Info(ctx, "client connected", logging.Bool("binary", c.binary))

		s.readLoop(ctx, ws, hero, log)

		c.closed.Store(true)
		cancel()
		<-writerDone
		s.engine.Disconnect(c.id)
		log.Info(ctx, "client disconnected")
	}
}

func (s *Server) readLoop(ctx context.Context, ws *websocket.Conn, hero model.EntityID, log logging.Logger) {
	ws.SetReadLimit(maxMoveSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		kind, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug(ctx, "read failed", logging.Err(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if kind != websocket.TextMessage {
			continue
		}
		ev, err := protocol.DecodeMove(msg, hero)
		if err != nil {
			log.Debug(ctx, "rejected move", logging.Err(err))
			continue
		}
		s.engine.Post(ev)
	}
}

func (s *Server) writeLoop(ctx context.Context, ws *websocket.Conn, c *client, log logging.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case a := <-c.out:
			frame, body, err := c.encode(a)
			if err != nil {
				log.Warn(ctx, "encode action failed", logging.String("action", a.Kind()), logging.Err(err))
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(frame, body); err != nil {
				log.Debug(ctx, "write failed", logging.Err(err))
				return
			}
		}
	}
}

// client is the session handed to the engine. Send never blocks.
type client struct {
	id     string
	out    chan actions.Action
	binary bool
	closed atomic.Bool
}

func (c *client) ID() string { return c.id }

func (c *client) Send(a actions.Action) error {
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case c.out <- a:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *client) encode(a actions.Action) (int, []byte, error) {
	if c.binary {
		b, err := protocol.MarshalActionProto(a)
		return websocket.BinaryMessage, b, err
	}
	b, err := protocol.EncodeAction(a)
	return websocket.TextMessage, b, err
}
