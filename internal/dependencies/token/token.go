package token

//go:generate mockgen -package=mocks -destination=mocks/mock_vault.go github.com/mcoot/bingopot/internal/dependencies/token Vault

import (
	"context"
	"errors"

	"github.com/mcoot/bingopot/internal/model"
)

// CustodyAccount holds entry fees between join and payout
const CustodyAccount model.PlayerID = "custody"

var (
	// ErrInsufficientFunds is returned by TransferIn when the payer cannot cover the amount
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransferFailed is returned by TransferOut when custody cannot pay the amount
	ErrTransferFailed = errors.New("transfer failed")

	// ErrAmountOutOfRange is returned when a backend cannot represent the amount
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Vault moves entry fees into and out of custody.
// Each call is all-or-nothing: on error no balance has changed.
type Vault interface {
	TransferIn(ctx context.Context, from model.PlayerID, amount model.Amount) error
	TransferOut(ctx context.Context, to model.PlayerID, amount model.Amount) error
}

// Wallet exposes balances and the faucet used to fund players
type Wallet interface {
	Balance(ctx context.Context, player model.PlayerID) (model.Amount, error)
	Mint(ctx context.Context, player model.PlayerID, amount model.Amount) error
}

// Bank is a complete token backend
type Bank interface {
	Vault
	Wallet
}
