package telnet

import "testing"

func TestRegistryOfferDefaults(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	tests := []struct {
		name string
		dir  Direction
		opt  byte
		want byte
	}{
		{name: "undeclared local option refuses with WONT", dir: DirLocal, opt: ECHO, want: WONT},
		{name: "undeclared peer option refuses with DONT", dir: DirPeer, opt: TTYPE, want: DONT},
		{name: "option zero is a valid code", dir: DirLocal, opt: 0, want: WONT},
		{name: "option 255 is a valid code", dir: DirPeer, opt: 255, want: DONT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := r.Offer(tt.dir, tt.opt); got != tt.want {
				t.Errorf("Offer(%v, %d) = %s, want %s", tt.dir, tt.opt, codeName(got), codeName(tt.want))
			}
		})
	}
}

func TestRegistryDeclare(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Declare(DirLocal, ECHO, WILL)
	r.Declare(DirPeer, NAWS, DO)

	if got := r.Offer(DirLocal, ECHO); got != WILL {
		t.Errorf("Offer(DirLocal, ECHO) = %s, want WILL", codeName(got))
	}
	if got := r.Offer(DirPeer, NAWS); got != DO {
		t.Errorf("Offer(DirPeer, NAWS) = %s, want DO", codeName(got))
	}

	// Declaring one direction must not leak into the other.
	if got := r.Offer(DirPeer, ECHO); got != DONT {
		t.Errorf("Offer(DirPeer, ECHO) = %s, want DONT", codeName(got))
	}
}

func TestRegistryReconcileIdempotent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	// First decision for an option must be transmitted.
	if !r.Reconcile(DirPeer, TTYPE, DO) {
		t.Fatal("first Reconcile should request a send")
	}

	// Replaying the identical stance must never produce a duplicate reply.
	for i := 0; i < 3; i++ {
		if r.Reconcile(DirPeer, TTYPE, DO) {
			t.Fatalf("replay %d produced a duplicate reply", i+1)
		}
	}

	// A genuine stance change is transmitted again.
	if !r.Reconcile(DirPeer, TTYPE, DONT) {
		t.Fatal("stance change should request a send")
	}
	if got := r.Agreed(DirPeer, TTYPE); got != DONT {
		t.Errorf("Agreed(DirPeer, TTYPE) = %s, want DONT", codeName(got))
	}
}

func TestRegistryReconcileAllOptionsIdempotent(t *testing.T) {
	t.Parallel()

	// Property from the negotiation design: for every option code, once a
	// stance is agreed, reconciling the same stance emits nothing.
	r := NewRegistry()
	for opt := 0; opt < 256; opt++ {
		if !r.Reconcile(DirLocal, byte(opt), WONT) {
			t.Fatalf("option %d: first reconcile suppressed", opt)
		}
		if r.Reconcile(DirLocal, byte(opt), WONT) {
			t.Fatalf("option %d: replay not suppressed", opt)
		}
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	tests := []struct {
		name string
		dir  Direction
		opt  byte
		want byte
	}{
		{name: "server will echo", dir: DirLocal, opt: ECHO, want: WILL},
		{name: "server will suppress go-ahead", dir: DirLocal, opt: SGA, want: WILL},
		{name: "server wont set environments", dir: DirLocal, opt: NEW_ENVIRON, want: WONT},
		{name: "peer should not echo", dir: DirPeer, opt: ECHO, want: DONT},
		{name: "peer should report window size", dir: DirPeer, opt: NAWS, want: DO},
		{name: "peer should reveal terminal type", dir: DirPeer, opt: TTYPE, want: DO},
		{name: "peer should stay out of linemode", dir: DirPeer, opt: LINEMODE, want: DONT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := r.Offer(tt.dir, tt.opt); got != tt.want {
				t.Errorf("Offer(%v, %s) = %s, want %s",
					tt.dir, codeName(tt.opt), codeName(got), codeName(tt.want))
			}
		})
	}
}
