package cart

import "github.com/fjod/go_shop/internal/domain"

type Action int

const (
	ActionNoop Action = iota
	ActionInit
	ActionLogin
	ActionLogout
)

func (a Action) String() string {
	switch a {
	case ActionInit:
		return "init"
	case ActionLogin:
		return "login"
	case ActionLogout:
		return "logout"
	default:
		return "noop"
	}
}

// NeedsLoad reports whether resolving the action requires the snapshot of the
// next scope.
func (a Action) NeedsLoad() bool {
	return a == ActionInit || a == ActionLogin
}

// Effect is a storage side effect produced by a transition. Effects are applied
// in the order they are returned.
type Effect interface {
	effect()
}

type SaveSnapshot struct {
	Key   string
	State domain.CartState
}

type DeleteSnapshot struct {
	Key string
}

func (SaveSnapshot) effect()   {}
func (DeleteSnapshot) effect() {}

type Transition struct {
	Action  Action
	From    Binding
	To      Binding
	State   domain.CartState
	Effects []Effect
}

// Plan decides which transition moving from b to next is.
func Plan(b Binding, next Scope) Action {
	current, bound := b.Scope()
	switch {
	case !bound:
		return ActionInit
	case current == next:
		return ActionNoop
	case !next.IsGuest():
		return ActionLogin
	default:
		return ActionLogout
	}
}

// Resolve computes the state and effects of moving the session from b to next.
// loaded and found describe the persisted snapshot of next and are ignored for
// actions that do not need it.
func Resolve(b Binding, next Scope, current, loaded domain.CartState, found bool) Transition {
	action := Plan(b, next)
	t := Transition{Action: action, From: b, To: BoundTo(next), State: current}
	hasStored := found && !loaded.IsEmpty()

	switch action {
	case ActionNoop:
		t.To = b

	case ActionInit:
		switch {
		case next.IsGuest() && hasStored:
			t.State = loaded
		case hasStored:
			t.State = Merge(current, loaded)
			t.Effects = []Effect{SaveSnapshot{Key: next.Key(), State: t.State}}
		case !current.IsEmpty():
			// mutations made before the scope was known now belong to it
			t.Effects = []Effect{SaveSnapshot{Key: next.Key(), State: current}}
		}

	case ActionLogin:
		user := Clear()
		if found {
			user = loaded
		}
		t.State = Merge(current, user)
		t.Effects = []Effect{
			SaveSnapshot{Key: next.Key(), State: t.State},
			DeleteSnapshot{Key: GuestKey},
		}

	case ActionLogout:
		outgoing, _ := b.Scope()
		t.State = Clear()
		t.Effects = []Effect{
			SaveSnapshot{Key: outgoing.Key(), State: current},
			DeleteSnapshot{Key: GuestKey},
		}
	}
	return t
}
