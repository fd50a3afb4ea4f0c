package game

import (
	"context"
	"sync"

	"github.com/mcoot/bingopot/internal/model"
)

type heldLockKey struct{}

// gameLocks serialises mutations per game. A game being settled rejects every
// caller immediately, so a payee calling back in during payout sees it as ended.
type gameLocks struct {
	mu       sync.Mutex
	sems     map[model.GameID]chan struct{}
	settling map[model.GameID]bool
}

func newGameLocks() *gameLocks {
	return &gameLocks{
		sems:     make(map[model.GameID]chan struct{}),
		settling: make(map[model.GameID]bool),
	}
}

// acquire blocks until the game's lock is free or ctx is done. The returned
// context marks the lock as held so a nested acquire fails instead of deadlocking.
func (l *gameLocks) acquire(ctx context.Context, id model.GameID) (context.Context, func(), error) {
	l.mu.Lock()
	if l.settling[id] {
		l.mu.Unlock()
		return nil, nil, model.ErrGameEnded
	}
	if held, ok := ctx.Value(heldLockKey{}).(model.GameID); ok && held == id {
		l.mu.Unlock()
		return nil, nil, model.ErrGameBusy
	}
	sem, ok := l.sems[id]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[id] = sem
	}
	l.mu.Unlock()

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	release := func() { <-sem }
	return context.WithValue(ctx, heldLockKey{}, id), release, nil
}

func (l *gameLocks) setSettling(id model.GameID, on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if on {
		l.settling[id] = true
	} else {
		delete(l.settling, id)
	}
}
