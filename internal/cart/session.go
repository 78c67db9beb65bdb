package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/go_shop/internal/domain"
)

// Session owns the live cart of one client: its state, the scope it is bound
// to and the store its snapshots go to. Transitions are serialized, so saves
// reach the store in transition order and a bind's load finishes before the
// next mutation is applied.
//
// The in-memory state is authoritative for the session. Store failures are
// returned to the caller but never roll the state back.
type Session struct {
	mu      sync.Mutex
	store   Store
	binding Binding
	state   domain.CartState
	log     *slog.Logger

	resumeGuest bool
}

type Option func(*Session)

// ResumeGuest makes a fresh session treat the stored guest snapshot as the cart
// it was holding. Binding it to a user then runs the login merge, so a client
// whose live session was dropped does not lose the cart it built as a guest.
func ResumeGuest() Option {
	return func(s *Session) { s.resumeGuest = true }
}

func NewSession(store Store, log *slog.Logger, opts ...Option) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		store: store,
		state: Clear(),
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current cart.
func (s *Session) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

func (s *Session) Binding() Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binding
}

// Dispatch applies ev and commits the result under the bound scope. While the
// session is uninitialized the change stays in memory until the first Bind.
func (s *Session) Dispatch(ctx context.Context, ev Event) (domain.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, ev)
	scope, bound := s.binding.Scope()
	if !bound {
		return cloneState(s.state), nil
	}

	err := s.apply(ctx, []Effect{SaveSnapshot{Key: scope.Key(), State: s.state}})
	return cloneState(s.state), err
}

// Bind moves the session to next. When the snapshot of next cannot be loaded
// the session keeps its current binding and state.
func (s *Session) Bind(ctx context.Context, next Scope) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resume(ctx, next); err != nil {
		return Transition{Action: Plan(s.binding, next), From: s.binding, To: s.binding, State: cloneState(s.state)}, err
	}

	action := Plan(s.binding, next)
	if action == ActionNoop {
		return Transition{Action: action, From: s.binding, To: s.binding, State: cloneState(s.state)}, nil
	}

	var (
		loaded domain.CartState
		found  bool
	)
	if action.NeedsLoad() {
		var err error
		loaded, found, err = s.store.Load(ctx, next.Key())
		if err != nil {
			s.log.ErrorContext(ctx, "cart load failed",
				"scope", next.String(), "action", action.String(), "error", err)
			return Transition{Action: action, From: s.binding, To: s.binding, State: cloneState(s.state)},
				fmt.Errorf("load cart for %s: %w", next, err)
		}
		if found {
			loaded = Normalize(loaded)
		}
	}

	t := Resolve(s.binding, next, s.state, loaded, found)
	s.state = t.State
	s.binding = t.To
	s.log.DebugContext(ctx, "cart scope bound",
		"action", t.Action.String(), "scope", next.String(), "items", len(t.State.Lines))

	err := s.apply(ctx, t.Effects)
	t.State = cloneState(s.state)
	return t, err
}

// resume rebinds an unbound ResumeGuest session to the guest scope when it is
// about to be bound to a user and a guest snapshot is stored.
func (s *Session) resume(ctx context.Context, next Scope) error {
	if !s.resumeGuest || next.IsGuest() {
		return nil
	}
	if _, bound := s.binding.Scope(); bound {
		return nil
	}

	guest, found, err := s.store.Load(ctx, GuestKey)
	if err != nil {
		s.log.ErrorContext(ctx, "cart load failed", "scope", Guest().String(), "action", "resume", "error", err)
		return fmt.Errorf("load cart for %s: %w", Guest(), err)
	}
	if !found {
		return nil
	}
	guest = Normalize(guest)
	if guest.IsEmpty() {
		return nil
	}

	// changes made in memory win over the stored copy
	s.state = Merge(guest, s.state)
	s.binding = BoundTo(Guest())
	s.log.DebugContext(ctx, "guest cart resumed", "items", len(s.state.Lines))
	return nil
}

// apply runs effects in order. A delete following a failed save is skipped so
// the snapshot being replaced stays available.
func (s *Session) apply(ctx context.Context, effects []Effect) error {
	var (
		errs       []error
		saveFailed bool
	)
	for _, e := range effects {
		switch e := e.(type) {
		case SaveSnapshot:
			if err := s.store.Save(ctx, e.Key, e.State); err != nil {
				s.log.WarnContext(ctx, "cart save failed", "key", e.Key, "error", err)
				errs = append(errs, fmt.Errorf("save cart %q: %w", e.Key, err))
				saveFailed = true
			}
		case DeleteSnapshot:
			if saveFailed {
				s.log.WarnContext(ctx, "cart delete skipped after failed save", "key", e.Key)
				continue
			}
			if err := s.store.Delete(ctx, e.Key); err != nil {
				s.log.WarnContext(ctx, "cart delete failed", "key", e.Key, "error", err)
				errs = append(errs, fmt.Errorf("delete cart %q: %w", e.Key, err))
			}
		}
	}
	return errors.Join(errs...)
}
