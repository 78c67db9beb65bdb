package cart

// GuestKey is the storage key of the guest scope.
const GuestKey = "guest"

// Scope is either the guest or one authenticated user. The zero value is the
// guest.
type Scope struct {
	userID string
}

func Guest() Scope {
	return Scope{}
}

// User returns the scope of userID. An empty id yields the guest scope.
func User(userID string) Scope {
	return Scope{userID: userID}
}

func (s Scope) IsGuest() bool {
	return s.userID == ""
}

func (s Scope) UserID() string {
	return s.userID
}

// Key is the storage key owning this scope's snapshot.
func (s Scope) Key() string {
	if s.IsGuest() {
		return GuestKey
	}
	return s.userID
}

func (s Scope) String() string {
	if s.IsGuest() {
		return "guest"
	}
	return "user:" + s.userID
}

type BindingState int

const (
	Uninitialized BindingState = iota
	GuestBound
	UserBound
)

func (b BindingState) String() string {
	switch b {
	case GuestBound:
		return "guest_bound"
	case UserBound:
		return "user_bound"
	default:
		return "uninitialized"
	}
}

// Binding records which scope a session is attached to, if any.
type Binding struct {
	bound bool
	scope Scope
}

func Unbound() Binding {
	return Binding{}
}

func BoundTo(s Scope) Binding {
	return Binding{bound: true, scope: s}
}

func (b Binding) State() BindingState {
	switch {
	case !b.bound:
		return Uninitialized
	case b.scope.IsGuest():
		return GuestBound
	default:
		return UserBound
	}
}

// Scope returns the bound scope and false when the binding is uninitialized.
func (b Binding) Scope() (Scope, bool) {
	return b.scope, b.bound
}
