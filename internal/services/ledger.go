package services

import (
	"errors"
	"log"
	"sync"
)

// ErrInsufficientFunds is returned when a debit would take a balance below
// zero. The ledger is left unchanged.
var ErrInsufficientFunds = errors.New("insufficient funds")

type account struct {
	mu      sync.Mutex
	balance int64 // cents
}

// Ledger holds one account per player. All amounts are int64 cents so
// balance arithmetic stays exact. Mutations are serialized per player, never
// globally: the outer mutex only guards the accounts map.
type Ledger struct {
	mu              sync.Mutex
	accounts        map[string]*account
	startingBalance int64
	broadcaster     Broadcaster
}

func NewLedger(startingBalanceCents int64, broadcaster Broadcaster) *Ledger {
	return &Ledger{
		accounts:        make(map[string]*account),
		startingBalance: startingBalanceCents,
		broadcaster:     broadcaster,
	}
}

// Accounts are created lazily on first reference and live for the process
// lifetime.
func (l *Ledger) account(playerID string) *account {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[playerID]
	if !ok {
		acc = &account{balance: l.startingBalance}
		l.accounts[playerID] = acc
		log.Printf("Initialized player %s with balance %d", playerID, l.startingBalance)
	}
	return acc
}

// GetBalance returns the player's balance in cents, initializing the account
// if absent.
func (l *Ledger) GetBalance(playerID string) int64 {
	acc := l.account(playerID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance
}

// Adjust applies delta cents (positive credit, negative debit) and returns
// the new balance. A debit that would go negative fails with
// ErrInsufficientFunds and leaves the balance unchanged.
func (l *Ledger) Adjust(playerID string, delta int64) (int64, error) {
	acc := l.account(playerID)

	acc.mu.Lock()
	newBalance := acc.balance + delta
	if newBalance < 0 {
		acc.mu.Unlock()
		log.Printf("Rejected adjustment for player %s: balance would go negative", playerID)
		return 0, ErrInsufficientFunds
	}
	acc.balance = newBalance
	acc.mu.Unlock()

	log.Printf("Updated player %s balance: %d (%+d)", playerID, newBalance, delta)

	if l.broadcaster != nil {
		l.broadcaster.BroadcastBalanceUpdate(playerID, delta, newBalance)
	}

	return newBalance, nil
}

func (l *Ledger) ProcessBet(playerID string, betCents int64) (int64, error) {
	return l.Adjust(playerID, -betCents)
}

func (l *Ledger) ProcessWin(playerID string, winCents int64) (int64, error) {
	return l.Adjust(playerID, winCents)
}
