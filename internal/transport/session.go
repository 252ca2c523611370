package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/op"
)

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; the decoded operations it produces are only ever
// consumed from the main simulation thread ("the simulation
// thread never blocks").
type Session struct {
	ID   uint64
	conn net.Conn

	mind   atomic.Uint64 // eid.ID of the mind bound to this session, 0 if none
	body   atomic.Uint64 // eid.ID of the body this session's mind currently controls
	serial atomic.Uint64 // monotonic outgoing serial

	InQueue  chan op.Op // main loop reads decoded ops from here
	OutQueue chan op.Op // writer goroutine reads from here

	IP string

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize, outSize int, log *zap.Logger) *Session {
	return &Session{
		ID:       id,
		conn:     conn,
		InQueue:  make(chan op.Op, inSize),
		OutQueue: make(chan op.Op, outSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
}

// BindMind associates this session with a mind entity, so replies routed
// to that entity can be found and delivered (see Registry).
func (s *Session) BindMind(id eid.ID) { s.mind.Store(uint64(id)) }

// MindID returns the bound mind entity, or eid.Zero if none.
func (s *Session) MindID() eid.ID { return eid.ID(s.mind.Load()) }

// BindBody records which entity the session's mind currently controls, so
// the input system knows what to pass as FilterThought's bodyID without a
// second lookup table (login/character-selection is what calls this; it
// lives outside the simulation core).
func (s *Session) BindBody(id eid.ID) { s.body.Store(uint64(id)) }

// BodyID returns the entity this session's mind currently controls, or
// eid.Zero if none has been bound yet.
func (s *Session) BodyID() eid.ID { return eid.ID(s.body.Load()) }

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send assigns the next outgoing serial and queues o for delivery
// ("Assigns outgoing serials monotonically"). Non-blocking: a
// full OutQueue disconnects the session rather than stalling the caller.
func (s *Session) Send(o op.Op) {
	if s.closed.Load() {
		return
	}
	o.SerialNo = s.serial.Add(1)
	select {
	case s.OutQueue <- o:
	default:
		s.log.Warn("output queue full, disconnecting slow client")
		s.Close()
	}
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool { return s.closed.Load() }

// readLoop decodes framed operation envelopes off the wire and pushes
// them onto InQueue for the main loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		o, err := DecodeOp(payload)
		if err != nil {
			s.log.Debug("malformed op envelope", zap.Error(err))
			continue
		}
		o.From = s.MindID()

		select {
		case s.InQueue <- o:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop encodes queued operations and writes them as framed JSON.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case o := <-s.OutQueue:
			payload, err := EncodeOp(o)
			if err != nil {
				s.log.Warn("encode outgoing op", zap.Error(err))
				continue
			}

			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := WriteFrame(s.conn, payload); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
