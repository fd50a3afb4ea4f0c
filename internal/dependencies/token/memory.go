package token

import (
	"context"
	"sync"

	"github.com/mcoot/bingopot/internal/model"
)

// MemoryBank is an in-process Bank backed by a map
type MemoryBank struct {
	mu       sync.Mutex
	balances map[model.PlayerID]model.Amount
}

// Ensure MemoryBank implements Bank
var _ Bank = (*MemoryBank)(nil)

// NewMemoryBank creates an empty MemoryBank
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances: make(map[model.PlayerID]model.Amount),
	}
}

// TransferIn moves amount from the payer into custody
func (b *MemoryBank) TransferIn(ctx context.Context, from model.PlayerID, amount model.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[from] < amount {
		return ErrInsufficientFunds
	}
	b.balances[from] -= amount
	b.balances[CustodyAccount] += amount
	return nil
}

// TransferOut moves amount from custody to the payee
func (b *MemoryBank) TransferOut(ctx context.Context, to model.PlayerID, amount model.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[CustodyAccount] < amount {
		return ErrTransferFailed
	}
	b.balances[CustodyAccount] -= amount
	b.balances[to] += amount
	return nil
}

// Balance returns the player's balance, zero if never funded
func (b *MemoryBank) Balance(ctx context.Context, player model.PlayerID) (model.Amount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[player], nil
}

// Mint credits the player with newly created tokens
func (b *MemoryBank) Mint(ctx context.Context, player model.PlayerID, amount model.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[player] += amount
	return nil
}
