package replica

import (
	"errors"
	"fmt"
	"sync"

	"github.com/buildwithgrove/outcall/metrics"
	"github.com/buildwithgrove/outcall/outcall"
)

// ErrInsufficientCycles is returned when a debit exceeds the balance.
var ErrInsufficientCycles = errors.New("insufficient cycles")

// Ledger is the cycles balance outcalls are charged against.
// Debits are final: failed outcalls are never refunded.
type Ledger struct {
	mu      sync.Mutex
	balance outcall.Cost
	charged outcall.Cost
}

// NewLedger returns a Ledger holding initial cycles.
func NewLedger(initial outcall.Cost) *Ledger {
	return &Ledger{balance: initial}
}

// Debit removes amount from the balance, or fails without changing it.
func (l *Ledger) Debit(amount outcall.Cost) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining, ok := l.balance.Sub(amount)
	metrics.PublishLedgerDebit(ok)
	if !ok {
		return fmt.Errorf("%w: balance %s, required %s", ErrInsufficientCycles, l.balance, amount)
	}

	l.balance = remaining
	l.charged = l.charged.Add(amount)
	return nil
}

// Deposit adds amount to the balance.
func (l *Ledger) Deposit(amount outcall.Cost) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance = l.balance.Add(amount)
}

// Balance returns the cycles left.
func (l *Ledger) Balance() outcall.Cost {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balance
}

// Charged returns the total cycles debited so far.
func (l *Ledger) Charged() outcall.Cost {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.charged
}

// Name identifies the ledger in health reports.
func (l *Ledger) Name() string {
	return "cycles_ledger"
}

// IsAlive reports whether any cycles are left.
func (l *Ledger) IsAlive() bool {
	return !l.Balance().IsZero()
}
