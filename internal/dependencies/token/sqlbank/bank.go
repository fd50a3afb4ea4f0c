package sqlbank

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/model"
)

// Wallet is the persisted balance row for one account
type Wallet struct {
	PlayerID  string `gorm:"primaryKey;size:128"`
	Balance   uint64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// Bank is a SQL-backed token bank. Debits are conditional updates so a
// balance can never go negative, even across processes.
type Bank struct {
	db *gorm.DB
}

// Ensure Bank implements token.Bank
var _ token.Bank = (*Bank)(nil)

// Open connects to Postgres and migrates the wallet table
func Open(dsn string) (*Bank, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the wallet table
func New(db *gorm.DB) (*Bank, error) {
	if err := db.AutoMigrate(&Wallet{}); err != nil {
		return nil, fmt.Errorf("migrate wallets: %w", err)
	}
	return &Bank{db: db}, nil
}

// Close releases the underlying connection pool
func (b *Bank) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// TransferIn moves amount from the payer into custody
func (b *Bank) TransferIn(ctx context.Context, from model.PlayerID, amount model.Amount) error {
	if err := b.move(ctx, from, token.CustodyAccount, amount, token.ErrInsufficientFunds); err != nil {
		return fmt.Errorf("transfer in from %s: %w", from, err)
	}
	return nil
}

// TransferOut moves amount from custody to the payee
func (b *Bank) TransferOut(ctx context.Context, to model.PlayerID, amount model.Amount) error {
	if err := b.move(ctx, token.CustodyAccount, to, amount, token.ErrTransferFailed); err != nil {
		return fmt.Errorf("transfer out to %s: %w", to, err)
	}
	return nil
}

// Balance returns the player's balance, zero if never funded
func (b *Bank) Balance(ctx context.Context, player model.PlayerID) (model.Amount, error) {
	var w Wallet
	res := b.db.WithContext(ctx).Where("player_id = ?", string(player)).Limit(1).Find(&w)
	if res.Error != nil {
		return 0, res.Error
	}
	return model.Amount(w.Balance), nil
}

// Mint credits the player with newly created tokens
func (b *Bank) Mint(ctx context.Context, player model.PlayerID, amount model.Amount) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return credit(tx, player, amount)
	})
}

// move debits src and credits dst in one transaction. A zero amount always
// succeeds, even when neither wallet row exists yet.
func (b *Bank) move(ctx context.Context, src, dst model.PlayerID, amount model.Amount, short error) error {
	if amount == 0 {
		return nil
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Wallet{}).
			Where("player_id = ? AND balance >= ?", string(src), uint64(amount)).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance - ?", uint64(amount)),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return short
		}
		return credit(tx, dst, amount)
	})
}

func credit(tx *gorm.DB, player model.PlayerID, amount model.Amount) error {
	// Ensure the row exists before incrementing
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Wallet{PlayerID: string(player), UpdatedAt: time.Now()}).Error; err != nil {
		return err
	}
	return tx.Model(&Wallet{}).
		Where("player_id = ?", string(player)).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", uint64(amount)),
			"updated_at": time.Now(),
		}).Error
}
