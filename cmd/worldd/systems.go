package main

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/worldforge-go/simcore/internal/core/system"
	"github.com/worldforge-go/simcore/internal/transport"
	"github.com/worldforge-go/simcore/internal/world"
)

// inputSystem absorbs newly accepted connections and drains every live
// session's decoded-operation queue through the mind↔body filter, feeding
// the resulting world operations onto the simulation queue — decoded ops
// cross into the simulation only through that filter. It runs in
// PhaseInput, ahead of every other system in the tick.
type inputSystem struct {
	w        *world.World
	srv      *transport.Server
	sessions *transport.Registry
	log      *zap.Logger

	live []*transport.Session
}

func (s *inputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *inputSystem) Update(time.Duration) {
	s.absorbNewSessions()
	s.reapDeadSessions()
	s.drainLiveSessions()
}

func (s *inputSystem) absorbNewSessions() {
	for {
		select {
		case sess := <-s.srv.NewSessions():
			s.live = append(s.live, sess)
		default:
			return
		}
	}
}

func (s *inputSystem) reapDeadSessions() {
	kept := s.live[:0]
	for _, sess := range s.live {
		if sess.IsClosed() {
			if mind := sess.MindID(); !mind.IsZero() {
				s.sessions.Unbind(mind)
			}
			s.log.Info("session disconnected", zap.Uint64("session", sess.ID))
			continue
		}
		kept = append(kept, sess)
	}
	s.live = kept
}

func (s *inputSystem) drainLiveSessions() {
	for _, sess := range s.live {
		mind, body := sess.MindID(), sess.BodyID()
		if mind.IsZero() || body.IsZero() {
			// Connected but not yet bound to a mind/body by the login
			// layer; nothing of ours to dispatch yet.
			continue
		}
		draining := true
		for draining {
			select {
			case thought := <-sess.InQueue:
				for _, o := range s.w.Filter.FilterThought(mind, body, thought) {
					s.w.Enqueue(o)
				}
			default:
				draining = false
			}
		}
	}
}

// worldTickSystem advances the simulation clock and drains the due-op
// queue. It runs in PhaseUpdate, after input has been turned
// into queued world operations; the persistence flush runs at the end of
// World.Tick through its Persist hook, not in a separate phase.
type worldTickSystem struct {
	w *world.World
}

func (s *worldTickSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *worldTickSystem) Update(dt time.Duration) {
	s.w.Tick(dt)
}
