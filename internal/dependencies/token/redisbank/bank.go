package redisbank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/model"
)

const (
	keyPrefix = "bingo"

	// maxRetries bounds optimistic retries when a watched balance changes mid-transfer
	maxRetries = 10
)

// Bank is a Redis-backed token bank. Balances are plain integer keys and
// transfers run as WATCH/MULTI/EXEC transactions.
type Bank struct {
	client *redis.Client
}

// Ensure Bank implements token.Bank
var _ token.Bank = (*Bank)(nil)

// New creates a bank on an existing client
func New(client *redis.Client) *Bank {
	return &Bank{client: client}
}

func walletKey(player model.PlayerID) string {
	return fmt.Sprintf("%s:wallet:%s", keyPrefix, player)
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
	return b.get(ctx, b.client, walletKey(player))
}

// Mint credits the player with newly created tokens
func (b *Bank) Mint(ctx context.Context, player model.PlayerID, amount model.Amount) error {
	delta, err := toDelta(amount)
	if err != nil {
		return err
	}
	return b.client.IncrBy(ctx, walletKey(player), delta).Err()
}

// toDelta converts amount for INCRBY/DECRBY, which take signed 64-bit values
func toDelta(amount model.Amount) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("%d: %w", amount, token.ErrAmountOutOfRange)
	}
	return int64(amount), nil
}

func (b *Bank) get(ctx context.Context, c redis.Cmdable, key string) (model.Amount, error) {
	v, err := c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt balance at %s: %w", key, err)
	}
	return model.Amount(n), nil
}

// move debits src and credits dst atomically, returning short when src cannot cover amount
func (b *Bank) move(ctx context.Context, src, dst model.PlayerID, amount model.Amount, short error) error {
	delta, err := toDelta(amount)
	if err != nil {
		return err
	}
	srcKey := walletKey(src)
	dstKey := walletKey(dst)

	txf := func(tx *redis.Tx) error {
		bal, err := b.get(ctx, tx, srcKey)
		if err != nil {
			return err
		}
		if bal < amount {
			return short
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.DecrBy(ctx, srcKey, delta)
			pipe.IncrBy(ctx, dstKey, delta)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := b.client.Watch(ctx, txf, srcKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}
