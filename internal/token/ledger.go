package token

import (
	"context"
	"fmt"
	"sync"
)

// InProcessLedger is the development and test double for the external
// asset services: a balance map with per-account authorities. It
// implements both Mover and Issuer.
type InProcessLedger struct {
	mu       sync.Mutex
	balances map[Account]uint64
	owners   map[Account]Authority
}

func NewInProcessLedger() *InProcessLedger {
	return &InProcessLedger{
		balances: make(map[Account]uint64),
		owners:   make(map[Account]Authority),
	}
}

// EnsureAccount registers an account with its authority. Idempotent
// when the authority matches; a mismatch is an error because authority
// over an account never changes.
func (l *InProcessLedger) EnsureAccount(account Account, authority Authority) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.owners[account]
	if ok {
		if existing != authority {
			return fmt.Errorf("account %s already registered with a different authority", account)
		}
		return nil
	}
	l.owners[account] = authority
	return nil
}

func (l *InProcessLedger) Mint(_ context.Context, to Account, baseUnits uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.owners[to]; !ok {
		return fmt.Errorf("account %s not registered", to)
	}
	next := l.balances[to] + baseUnits
	if next < l.balances[to] {
		return fmt.Errorf("mint overflows account %s", to)
	}
	l.balances[to] = next
	return nil
}

func (l *InProcessLedger) Transfer(_ context.Context, from, to Account, authority Authority, baseUnits uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.owners[from]
	if !ok {
		return fmt.Errorf("account %s not registered", from)
	}
	if owner != authority {
		return fmt.Errorf("authority does not control account %s", from)
	}
	if _, ok := l.owners[to]; !ok {
		return fmt.Errorf("account %s not registered", to)
	}
	if l.balances[from] < baseUnits {
		return fmt.Errorf("account %s holds %d base units, need %d", from, l.balances[from], baseUnits)
	}
	next := l.balances[to] + baseUnits
	if next < l.balances[to] {
		return fmt.Errorf("transfer overflows account %s", to)
	}
	l.balances[from] -= baseUnits
	l.balances[to] = next
	return nil
}

// Balance reports an account's holdings in base units.
func (l *InProcessLedger) Balance(account Account) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}
