package telnet

// Direction selects which of the two negotiation tables a stance belongs to.
// Telnet negotiates each option independently in both directions: what this
// server does, and what it asks the peer to do.
type Direction int

const (
	// DirLocal covers options this server performs itself. Its stances are
	// WILL/WONT and it answers the peer's DO/DONT requests.
	DirLocal Direction = iota

	// DirPeer covers options the peer is asked to perform. Its stances are
	// DO/DONT and it answers the peer's WILL/WONT announcements.
	DirPeer
)

// String returns the direction name for debug logging.
func (d Direction) String() string {
	if d == DirLocal {
		return "local"
	}
	return "peer"
}

// stanceUnset marks a table slot that has never been declared or
// transmitted. Zero is safe as a sentinel because stances are always
// negotiation verbs (WILL/WONT/DO/DONT, 251-254).
const stanceUnset byte = 0

// Registry holds, per option code, the stance this server offers and the
// stance last transmitted, separately for both negotiation directions. The
// option code space is exactly the byte range, so lookups can never be out
// of bounds and no error conditions exist.
//
// One Registry exists per connection. It is mutated only by the Negotiator
// that owns the connection and is not safe for concurrent use.
type Registry struct {
	// offer is the declared stance per option, fixed after Declare calls at
	// session start and read-only thereafter.
	offer [2][256]byte

	// agreed is the stance last transmitted or accepted per option,
	// initialized to stanceUnset.
	agreed [2][256]byte
}

// NewRegistry returns a Registry with every option undeclared and
// unagreed.
func NewRegistry() *Registry {
	return &Registry{}
}

// Declare records the stance this server intends to offer for an option.
// It is called for a small fixed set of options before negotiation starts
// and must not be called once negotiation is underway.
func (r *Registry) Declare(dir Direction, opt, stance byte) {
	r.offer[dir][opt] = stance
}

// Offer returns the declared stance for an option, or the direction's
// refusal verb when the server never declared one.
func (r *Registry) Offer(dir Direction, opt byte) byte {
	if s := r.offer[dir][opt]; s != stanceUnset {
		return s
	}
	return Refusal(dir)
}

// Refusal returns the conservative refusal verb for a direction: WONT for
// options this server could perform, DONT for options the peer offers.
func Refusal(dir Direction) byte {
	if dir == DirLocal {
		return WONT
	}
	return DONT
}

// Reconcile decides whether stance must be transmitted for an option. It
// reports false when the agreed table already holds stance; replaying an
// identical peer command therefore never produces a duplicate reply, which
// keeps two disagreeing endpoints from answering each other forever. When
// it reports true the agreed table is updated before returning, so the
// caller must actually send the reply.
func (r *Registry) Reconcile(dir Direction, opt, stance byte) bool {
	if r.agreed[dir][opt] == stance {
		return false
	}
	r.agreed[dir][opt] = stance
	return true
}

// Agreed returns the stance last transmitted for an option, or stanceUnset
// if the option was never negotiated. It exists for tests and debugging.
func (r *Registry) Agreed(dir Direction, opt byte) byte {
	return r.agreed[dir][opt]
}

// DefaultRegistry returns a Registry declaring the honeypot's fixed option
// set: the server echoes and suppresses go-ahead, and the peer is asked to
// stay out of linemode, report its window size, and reveal its terminal
// type.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// What this server will do.
	r.Declare(DirLocal, ECHO, WILL)
	r.Declare(DirLocal, SGA, WILL)
	r.Declare(DirLocal, NEW_ENVIRON, WONT)

	// What the peer should do.
	r.Declare(DirPeer, ECHO, DONT)
	r.Declare(DirPeer, SGA, DO)
	r.Declare(DirPeer, NAWS, DO)
	r.Declare(DirPeer, TTYPE, DO)
	r.Declare(DirPeer, LINEMODE, DONT)
	r.Declare(DirPeer, NEW_ENVIRON, DO)

	return r
}

// eachDeclared calls fn for every option with a declared stance in the
// direction, in ascending option order.
func (r *Registry) eachDeclared(dir Direction, fn func(opt, stance byte)) {
	for opt := 0; opt < 256; opt++ {
		if s := r.offer[dir][opt]; s != stanceUnset {
			fn(byte(opt), s)
		}
	}
}
