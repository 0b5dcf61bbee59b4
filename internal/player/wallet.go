// Package player holds the player's cash and progression level.
package player

import (
	"log/slog"
	"math"
	"sync"
)

// Wallet is the player's ledger. It is safe for concurrent use and satisfies
// the ledger interfaces of both the business and territory stores.
type Wallet struct {
	mu    sync.Mutex
	cash  float64
	level int
}

// Account is a point-in-time copy of a Wallet.
type Account struct {
	Cash  float64 `json:"cash"`
	Level int     `json:"level"`
}

// NewWallet creates a wallet. Levels below 1 are raised to 1 and negative
// cash is floored at zero.
func NewWallet(cash float64, level int) *Wallet {
	return &Wallet{cash: max(0, cash), level: max(1, level)}
}

// Cash returns the current balance.
func (w *Wallet) Cash() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cash
}

// Level returns the player's level.
func (w *Wallet) Level() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.level
}

// Spend deducts amount if the balance covers it.
func (w *Wallet) Spend(amount float64) bool {
	if amount < 0 || math.IsNaN(amount) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if amount > w.cash {
		return false
	}
	w.cash -= amount
	return true
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount float64) {
	if amount <= 0 || math.IsNaN(amount) {
		return
	}
	w.mu.Lock()
	w.cash += amount
	w.mu.Unlock()
}

// Debit charges a running cost such as dealer upkeep. Unlike Spend it cannot
// be refused; the balance bottoms out at zero and the shortfall is returned.
func (w *Wallet) Debit(amount float64) (shortfall float64) {
	if amount <= 0 || math.IsNaN(amount) {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if amount > w.cash {
		shortfall = amount - w.cash
		w.cash = 0
		slog.Warn("wallet overdrawn", "amount", amount, "shortfall", shortfall)
		return shortfall
	}
	w.cash -= amount
	return 0
}

// SetLevel changes the player's level. Levels below 1 are ignored.
func (w *Wallet) SetLevel(level int) {
	if level < 1 {
		return
	}
	w.mu.Lock()
	w.level = level
	w.mu.Unlock()
}

// Account returns a copy of the wallet.
func (w *Wallet) Account() Account {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Account{Cash: w.cash, Level: w.level}
}

// Restore overwrites the wallet from a saved account.
func (w *Wallet) Restore(a Account) {
	w.mu.Lock()
	w.cash = max(0, a.Cash)
	w.level = max(1, a.Level)
	w.mu.Unlock()
}
