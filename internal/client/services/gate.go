package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/cryptox"
	"github.com/dmitrijs2005/lifevault/internal/logging"
	"github.com/dmitrijs2005/lifevault/internal/timex"
	"github.com/google/uuid"
)

// GateState is the lock state of the vault for the current run.
type GateState int

const (
	// Uninitialized means the credential has not been probed yet.
	Uninitialized GateState = iota
	AwaitingSetup
	Locked
	Unlocked
)

func (s GateState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case AwaitingSetup:
		return "awaiting setup"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	}
	return fmt.Sprintf("GateState(%d)", int(s))
}

// Session is a snapshot of the current run's access state. ID changes on
// every successful unlock or setup.
type Session struct {
	ID         uuid.UUID
	State      GateState
	UnlockedAt time.Time
}

// Transition is emitted to subscribers on every state change.
type Transition struct {
	From      GateState
	To        GateState
	At        time.Time
	SessionID uuid.UUID
}

// Guard is consulted by the collection services before they touch the
// store.
type Guard interface {
	RequireUnlocked() error
}

// KeySource hands out the PIN of the unlocked session.
type KeySource interface {
	SessionPIN() ([]byte, error)
}

// AccessGate is the PIN state machine in front of the store.
//
// Contract:
//   - Init resolves Uninitialized to AwaitingSetup or Locked.
//   - SetCredential is allowed only while AwaitingSetup and unlocks.
//   - Unlock is allowed only while Locked; a wrong PIN returns false.
//   - Lock is idempotent and forgets the session PIN.
//   - WipeAll works from any state and ends in AwaitingSetup.
type AccessGate struct {
	store *storage.Store
	log   logging.Logger
	now   func() time.Time

	// unlockMu serializes every transition but Init so a check-then-move
	// never interleaves with another one. Subscribers run under it and must
	// not call back into Unlock, Lock, SetCredential or WipeAll.
	unlockMu sync.Mutex

	mu      sync.RWMutex
	state   GateState
	session Session
	pin     []byte

	subsMu  sync.Mutex
	subs    map[int]func(Transition)
	nextSub int
}

func NewAccessGate(store *storage.Store, log logging.Logger) *AccessGate {
	return &AccessGate{
		store: store,
		log:   log.With("component", "gate"),
		now:   timex.Now,
		subs:  make(map[int]func(Transition)),
	}
}

// Subscribe registers fn for state transitions. fn runs on the goroutine
// that caused the change, after the gate's locks are released. The
// returned func removes the subscription.
func (g *AccessGate) Subscribe(fn func(Transition)) (cancel func()) {
	g.subsMu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.subsMu.Unlock()

	return func() {
		g.subsMu.Lock()
		delete(g.subs, id)
		g.subsMu.Unlock()
	}
}

func (g *AccessGate) emit(t Transition) {
	g.subsMu.Lock()
	fns := make([]func(Transition), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.subsMu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}

// moveTo switches state and, when it changed, notifies subscribers. pin is
// kept only when entering Unlocked.
func (g *AccessGate) moveTo(ctx context.Context, to GateState, pin []byte) {
	g.mu.Lock()
	from := g.state
	at := g.now()

	if to == Unlocked {
		g.session = Session{ID: uuid.New(), State: Unlocked, UnlockedAt: at}
		g.pin = pin
	} else {
		common.WipeByteArray(g.pin)
		g.pin = nil
		g.session.State = to
		g.session.UnlockedAt = time.Time{}
	}
	g.state = to
	t := Transition{From: from, To: to, At: at, SessionID: g.session.ID}
	g.mu.Unlock()

	if from == to {
		return
	}
	g.log.Debug(ctx, "state changed", "from", from.String(), "to", to.String())
	g.emit(t)
}

func (g *AccessGate) State() GateState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Session returns a copy of the current session.
func (g *AccessGate) Session() Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := g.session
	s.State = g.state
	return s
}

// RequireUnlocked returns common.ErrLocked unless the vault is unlocked.
func (g *AccessGate) RequireUnlocked() error {
	if g.State() != Unlocked {
		return common.ErrLocked
	}
	return nil
}

// SessionPIN returns a copy of the PIN the session was unlocked with.
func (g *AccessGate) SessionPIN() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != Unlocked {
		return nil, common.ErrLocked
	}
	return append([]byte(nil), g.pin...), nil
}

// CheckCredentialExists probes storage without changing state.
func (g *AccessGate) CheckCredentialExists(ctx context.Context) (bool, error) {
	v, err := g.store.Metadata.Get(ctx, common.CredentialKey)
	if err != nil {
		return false, fmt.Errorf("check credential: %w", err)
	}
	return len(v) > 0, nil
}

// Init resolves the startup state. Calling it again is a no-op.
func (g *AccessGate) Init(ctx context.Context) error {
	if g.State() != Uninitialized {
		return nil
	}
	exists, err := g.CheckCredentialExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		g.moveTo(ctx, Locked, nil)
	} else {
		g.moveTo(ctx, AwaitingSetup, nil)
	}
	return nil
}

// SetCredential stores the first PIN and unlocks the vault.
func (g *AccessGate) SetCredential(ctx context.Context, pin string) error {
	g.unlockMu.Lock()
	defer g.unlockMu.Unlock()

	if st := g.State(); st != AwaitingSetup {
		return fmt.Errorf("set credential while %s: %w", st, common.ErrInvalidState)
	}
	if err := validation.ValidatePIN(pin); err != nil {
		return err
	}

	if err := g.store.Metadata.Set(ctx, common.CredentialKey, []byte(cryptox.HashPassword(pin))); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	g.moveTo(ctx, Unlocked, []byte(pin))
	g.log.Info(ctx, "credential created")
	return nil
}

// VerifyCredential compares pin with the stored hash without changing
// state. A missing credential verifies nothing.
func (g *AccessGate) VerifyCredential(ctx context.Context, pin string) (bool, error) {
	stored, err := g.store.Metadata.Get(ctx, common.CredentialKey)
	if err != nil {
		return false, fmt.Errorf("read credential: %w", err)
	}
	if len(stored) == 0 {
		return false, nil
	}
	return cryptox.VerifyPassword(pin, string(stored)), nil
}

// Unlock checks pin and opens a new session on a match. A PIN shorter
// than the minimum is rejected before the credential is read.
func (g *AccessGate) Unlock(ctx context.Context, pin string) (bool, error) {
	g.unlockMu.Lock()
	defer g.unlockMu.Unlock()

	if err := validation.ValidatePIN(pin); err != nil {
		return false, err
	}
	if st := g.State(); st != Locked {
		return false, fmt.Errorf("unlock while %s: %w", st, common.ErrInvalidState)
	}

	ok, err := g.VerifyCredential(ctx, pin)
	if err != nil {
		return false, err
	}
	if !ok {
		g.log.Warn(ctx, "unlock attempt with wrong PIN")
		return false, nil
	}

	g.moveTo(ctx, Unlocked, []byte(pin))
	return true, nil
}

// Lock ends the session. It does nothing unless the vault is unlocked.
func (g *AccessGate) Lock(ctx context.Context) {
	g.unlockMu.Lock()
	defer g.unlockMu.Unlock()

	if g.State() != Unlocked {
		return
	}
	g.moveTo(ctx, Locked, nil)
}

// WipeAll erases every collection, the credential and the reminders in
// one transaction. It cannot be undone.
func (g *AccessGate) WipeAll(ctx context.Context) error {
	g.unlockMu.Lock()
	defer g.unlockMu.Unlock()

	err := g.store.ClearAll(ctx, []string{common.CredentialKey}, []string{common.ReminderKeyPrefix})
	if err != nil {
		return fmt.Errorf("wipe: %w", err)
	}

	g.moveTo(ctx, AwaitingSetup, nil)
	g.log.Info(ctx, "vault wiped")
	return nil
}
