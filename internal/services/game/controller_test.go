package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/mcoot/bingopot/internal/dependencies/mocks"
	"github.com/mcoot/bingopot/internal/dependencies/token"
	tokenMocks "github.com/mcoot/bingopot/internal/dependencies/token/mocks"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/ledger"
	"github.com/mcoot/bingopot/internal/services/registry"
	"github.com/mcoot/bingopot/internal/services/win"
	"github.com/mcoot/bingopot/internal/storage/memory"
	"github.com/mcoot/bingopot/internal/testutil"
)

// recordingNotifier keeps every published event
type recordingNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

func (n *recordingNotifier) Publish(ctx context.Context, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.EventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

// reentrantVault calls back into the controller from inside TransferOut
type reentrantVault struct {
	*token.MemoryBank
	onTransferOut func(ctx context.Context)
}

func (v *reentrantVault) TransferOut(ctx context.Context, to model.PlayerID, amount model.Amount) error {
	if v.onTransferOut != nil {
		v.onTransferOut(ctx)
	}
	return v.MemoryBank.TransferOut(ctx, to, amount)
}

// slowVault delays TransferIn so concurrent joins overlap
type slowVault struct {
	*token.MemoryBank
	delay time.Duration
}

func (v *slowVault) TransferIn(ctx context.Context, from model.PlayerID, amount model.Amount) error {
	time.Sleep(v.delay)
	return v.MemoryBank.TransferIn(ctx, from, amount)
}

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	bank       *token.MemoryBank
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	registry   *registry.Service
	notifier   *recordingNotifier
	controller *Controller
	ctx        context.Context
	t0         time.Time
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.bank = token.NewMemoryBank()
	s.t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.clock = mocks.NewMockClock(s.t0)
	s.random = mocks.NewMockRandom()
	s.notifier = &recordingNotifier{}
	s.ctx = context.Background()

	cfg := registry.DefaultConfig()
	cfg.Configurator = "admin"
	s.registry = registry.New(s.storage, s.clock, cfg, testutil.NopLogger())
	s.Require().NoError(s.registry.SetParams(s.ctx, "admin", model.GameParams{
		JoinWindow:   100 * time.Second,
		TurnDuration: 600 * time.Second,
		EntryFee:     100,
	}))

	s.controller = s.newController(s.bank)

	for _, p := range []model.PlayerID{"alice", "bob"} {
		s.Require().NoError(s.bank.Mint(s.ctx, p, 1000))
	}
}

func (s *ControllerSuite) newController(vault token.Vault) *Controller {
	l := ledger.New(s.storage, vault, s.clock, s.random, testutil.NopLogger())
	return NewController(s.storage, s.registry, l, vault, s.clock, s.random, s.notifier, testutil.NopLogger())
}

// at sets the clock to t0 plus the given number of seconds
func (s *ControllerSuite) at(seconds int) {
	s.clock.Set(s.t0.Add(time.Duration(seconds) * time.Second))
}

func (s *ControllerSuite) balance(p model.PlayerID) model.Amount {
	b, err := s.bank.Balance(s.ctx, p)
	s.Require().NoError(err)
	return b
}

// rowZeroBoard has 1..5 across the top row and values from 100 elsewhere
func rowZeroBoard() model.Board {
	var b model.Board
	for i := range b {
		b[i] = uint8(100 + i)
	}
	copy(b[:5], []uint8{1, 2, 3, 4, 5})
	return b
}

// losingBoard never contains 1..9
func losingBoard() model.Board {
	var b model.Board
	for i := range b {
		b[i] = uint8(200 + i)
	}
	return b
}

// drawSequence draws one number per turn, starting just after the join window
func (s *ControllerSuite) drawSequence(gameID model.GameID, numbers ...uint8) {
	s.random.QueueDraws(numbers...)
	for i := range numbers {
		s.at(150 + i*600)
		_, err := s.controller.DrawNumber(s.ctx, gameID)
		s.Require().NoError(err)
	}
}

// StartGame tests

func (s *ControllerSuite) TestStartGamePublishes() {
	game, err := s.controller.StartGame(s.ctx)
	s.Require().NoError(err)

	s.Equal(model.GameID(1), game.ID)
	s.Equal(s.t0.Add(100*time.Second), game.EndTime)
	s.Equal([]model.EventType{model.EventGameStarted}, s.notifier.types())
	s.NotEmpty(s.notifier.events[0].ID)
}

// Lifecycle scenario

func (s *ControllerSuite) TestScenarioJoinThenDraw() {
	game, _ := s.controller.StartGame(s.ctx)

	s.at(10)
	m, err := s.controller.JoinGame(s.ctx, game.ID, "alice")
	s.Require().NoError(err)
	s.Equal(model.Marked, m.Board[model.FreeCell])

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(model.Amount(100), stored.Pot)

	s.at(50)
	_, err = s.controller.DrawNumber(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrJoinWindowStillOpen)

	s.at(150)
	_, err = s.controller.DrawNumber(s.ctx, game.ID)
	s.Require().NoError(err)
	stored, _ = s.controller.GetGame(s.ctx, game.ID)
	s.Len(stored.NumbersDrawn, 1)

	s.at(151)
	_, err = s.controller.DrawNumber(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrTurnTooSoon)
	stored, _ = s.controller.GetGame(s.ctx, game.ID)
	s.Len(stored.NumbersDrawn, 1)
}

func (s *ControllerSuite) TestDrawAtWindowCloseStillOpen() {
	game, _ := s.controller.StartGame(s.ctx)
	s.at(100)

	_, err := s.controller.DrawNumber(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrJoinWindowStillOpen)
}

func (s *ControllerSuite) TestDrawSucceedsAtAdvertisedNextDraw() {
	game, _ := s.controller.StartGame(s.ctx)
	s.random.QueueDraws(7, 9)

	s.clock.Set(game.NextDrawAt())
	_, err := s.controller.DrawNumber(s.ctx, game.ID)
	s.Require().NoError(err)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.clock.Set(stored.NextDrawAt())
	_, err = s.controller.DrawNumber(s.ctx, game.ID)
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestDrawAfterTurnElapsed() {
	game, _ := s.controller.StartGame(s.ctx)
	s.random.QueueDraws(7, 9)

	s.at(150)
	n, err := s.controller.DrawNumber(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(uint8(7), n)

	s.at(750)
	n, err = s.controller.DrawNumber(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(uint8(9), n)

	draws, _ := s.registry.Draws(s.ctx, game.ID)
	s.Equal([]uint8{7, 9}, draws)
}

func (s *ControllerSuite) TestDrawUnknownGame() {
	_, err := s.controller.DrawNumber(s.ctx, 5)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestLeaveDuringWindowRestoresBalance() {
	game, _ := s.controller.StartGame(s.ctx)
	s.at(10)
	_, err := s.controller.JoinGame(s.ctx, game.ID, "alice")
	s.Require().NoError(err)
	s.Equal(model.Amount(900), s.balance("alice"))

	s.at(20)
	s.Require().NoError(s.controller.LeaveGame(s.ctx, game.ID, "alice"))

	s.Equal(model.Amount(1000), s.balance("alice"))
	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Zero(stored.Pot)
	s.Equal([]model.EventType{
		model.EventGameStarted, model.EventPlayerJoined, model.EventPlayerLeft,
	}, s.notifier.types())
}

func (s *ControllerSuite) TestLeaveAfterWindowFails() {
	game, _ := s.controller.StartGame(s.ctx)
	s.at(10)
	_, _ = s.controller.JoinGame(s.ctx, game.ID, "alice")

	s.at(150)
	err := s.controller.LeaveGame(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrGameAlreadyStarted)
	s.Equal(model.Amount(900), s.balance("alice"))
}

// CheckBoard preconditions

func (s *ControllerSuite) TestCheckErrorsInOrder() {
	_, err := s.controller.CheckBoard(s.ctx, 1, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)

	game, _ := s.controller.StartGame(s.ctx)
	_, err = s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrNotAJoinedPlayer)

	s.at(10)
	_, _ = s.controller.JoinGame(s.ctx, game.ID, "alice")
	_, err = s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrJoinWindowStillOpen)

	s.at(150)
	_, err = s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrNoNumbersDrawnYet)

	s.drawSequence(game.ID, 1, 2, 3)
	_, err = s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrInsufficientDraws)
}

func (s *ControllerSuite) TestCheckWithoutWinPersistsMarks() {
	game, _ := s.controller.StartGame(s.ctx)
	s.random.QueueBoard(rowZeroBoard())
	s.at(10)
	_, _ = s.controller.JoinGame(s.ctx, game.ID, "alice")

	s.drawSequence(game.ID, 1, 2, 3, 4)
	result, err := s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.Require().NoError(err)

	s.False(result.Won)
	s.Equal(4, result.NewlyMarked)
	s.Empty(result.WinningLines)

	board, _ := s.storage.GetMembership(s.ctx, game.ID, "alice")
	s.True(board.Board.IsMarked(0))
	s.False(board.Board.IsMarked(4))

	again, err := s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.Require().NoError(err)
	s.Zero(again.NewlyMarked)
}

// Winning

func (s *ControllerSuite) TestRowWinPaysPotExactlyOnce() {
	game, _ := s.controller.StartGame(s.ctx)
	s.random.QueueBoard(rowZeroBoard())
	s.random.QueueBoard(losingBoard())
	s.at(10)
	_, _ = s.controller.JoinGame(s.ctx, game.ID, "alice")
	_, _ = s.controller.JoinGame(s.ctx, game.ID, "bob")

	s.drawSequence(game.ID, 1, 2, 3, 4, 5)

	result, err := s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.Require().NoError(err)
	s.True(result.Won)
	s.Equal([]win.Line{{Kind: win.LineRow, Index: 0}}, result.WinningLines)
	s.Equal(model.Amount(200), result.Payout)
	s.Equal(model.Amount(1100), s.balance("alice"))
	s.Equal(model.Amount(0), s.balance(token.CustodyAccount))

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.True(stored.Ended)
	s.Equal(model.PlayerID("alice"), stored.Winner)

	_, err = s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrGameEnded)
	_, err = s.controller.CheckBoard(s.ctx, game.ID, "bob")
	s.ErrorIs(err, model.ErrGameEnded)
	_, err = s.controller.DrawNumber(s.ctx, game.ID)
	s.ErrorIs(err, model.ErrGameEnded)
	_, err = s.controller.JoinGame(s.ctx, game.ID, "bob")
	s.ErrorIs(err, model.ErrGameEnded)
	s.Equal(model.Amount(1100), s.balance("alice"))

	stored, _ = s.controller.GetGame(s.ctx, game.ID)
	s.Len(stored.NumbersDrawn, 5)

	winnings, _ := s.controller.ledger.ListWinnings(s.ctx, "alice")
	s.Equal(model.Amount(200), winnings)

	types := s.notifier.types()
	s.Equal(model.EventPlayerWon, types[len(types)-1])
}

func (s *ControllerSuite) TestReentrantCallsDuringPayoutSeeGameEnded() {
	vault := &reentrantVault{MemoryBank: s.bank}
	s.controller = s.newController(vault)

	game, _ := s.controller.StartGame(s.ctx)
	s.random.QueueBoard(rowZeroBoard())
	s.at(10)
	_, _ = s.controller.JoinGame(s.ctx, game.ID, "alice")
	s.drawSequence(game.ID, 1, 2, 3, 4, 5)

	var reentrantErrs []error
	vault.onTransferOut = func(ctx context.Context) {
		_, err := s.controller.CheckBoard(ctx, game.ID, "alice")
		reentrantErrs = append(reentrantErrs, err)
		_, err = s.controller.CheckBoard(context.Background(), game.ID, "alice")
		reentrantErrs = append(reentrantErrs, err)
		_, err = s.controller.DrawNumber(ctx, game.ID)
		reentrantErrs = append(reentrantErrs, err)
	}

	result, err := s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.Require().NoError(err)
	s.True(result.Won)

	s.Require().Len(reentrantErrs, 3)
	for _, e := range reentrantErrs {
		s.ErrorIs(e, model.ErrGameEnded)
	}
	s.Equal(model.Amount(1000), s.balance("alice"))
}

func (s *ControllerSuite) TestFailedPayoutLeavesGameRunning() {
	ctrl := gomock.NewController(s.T())
	vault := tokenMocks.NewMockVault(ctrl)
	s.controller = s.newController(vault)

	game, _ := s.controller.StartGame(s.ctx)
	s.random.QueueBoard(rowZeroBoard())
	s.at(10)

	vault.EXPECT().TransferIn(gomock.Any(), model.PlayerID("alice"), model.Amount(100)).Return(nil)
	_, err := s.controller.JoinGame(s.ctx, game.ID, "alice")
	s.Require().NoError(err)

	s.drawSequence(game.ID, 1, 2, 3, 4, 5)

	vault.EXPECT().
		TransferOut(gomock.Any(), model.PlayerID("alice"), model.Amount(100)).
		Return(token.ErrTransferFailed)

	_, err = s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.ErrorIs(err, token.ErrTransferFailed)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.False(stored.Ended)
	s.Empty(stored.Winner)
	s.Equal(model.Amount(100), stored.Pot)

	m, _ := s.storage.GetMembership(s.ctx, game.ID, "alice")
	s.False(m.Board.IsMarked(0))

	vault.EXPECT().TransferOut(gomock.Any(), model.PlayerID("alice"), model.Amount(100)).Return(nil)
	result, err := s.controller.CheckBoard(s.ctx, game.ID, "alice")
	s.Require().NoError(err)
	s.True(result.Won)
}

func (s *ControllerSuite) TestFailedTransferInLeavesStateUnchanged() {
	game, _ := s.controller.StartGame(s.ctx)
	s.at(10)

	_, err := s.controller.JoinGame(s.ctx, game.ID, "pauper")
	s.ErrorIs(err, token.ErrInsufficientFunds)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Zero(stored.Pot)
	joined, _ := s.controller.ledger.HasJoined(s.ctx, game.ID, "pauper")
	s.False(joined)
	s.Equal([]model.EventType{model.EventGameStarted}, s.notifier.types())
}

func (s *ControllerSuite) TestReentrantJoinDuringTransferIsBusy() {
	vault := &reentrantVault{MemoryBank: s.bank}
	s.controller = s.newController(vault)
	game, _ := s.controller.StartGame(s.ctx)
	s.at(10)
	_, _ = s.controller.JoinGame(s.ctx, game.ID, "alice")

	var nested error
	vault.onTransferOut = func(ctx context.Context) {
		_, nested = s.controller.JoinGame(ctx, game.ID, "bob")
	}

	s.Require().NoError(s.controller.LeaveGame(s.ctx, game.ID, "alice"))
	s.ErrorIs(nested, model.ErrGameBusy)
}

// Concurrency

func (s *ControllerSuite) TestConcurrentDrawsSerialise() {
	game, _ := s.controller.StartGame(s.ctx)
	s.at(150)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.controller.DrawNumber(s.ctx, game.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		s.True(errors.Is(err, model.ErrTurnTooSoon))
	}
	s.Equal(1, ok)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Len(stored.NumbersDrawn, 1)
}

func (s *ControllerSuite) TestConcurrentJoinsKeepPotConsistent() {
	game, _ := s.controller.StartGame(s.ctx)
	s.at(10)

	players := []model.PlayerID{"p1", "p2", "p3", "p4", "p5", "p6"}
	for _, p := range players {
		s.Require().NoError(s.bank.Mint(s.ctx, p, 100))
	}

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(p model.PlayerID) {
			defer wg.Done()
			_, _ = s.controller.JoinGame(s.ctx, game.ID, p)
		}(p)
	}
	wg.Wait()

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.Equal(model.Amount(600), stored.Pot)
	s.Equal(model.Amount(600), s.balance(token.CustodyAccount))
}

func (s *ControllerSuite) TestConcurrentJoinsBySamePlayerIndexEveryGame() {
	const games = 20
	controller := s.newController(&slowVault{MemoryBank: s.bank, delay: 5 * time.Millisecond})
	s.Require().NoError(s.bank.Mint(s.ctx, "carol", games*100))

	ids := make([]model.GameID, games)
	for i := range ids {
		g, err := controller.StartGame(s.ctx)
		s.Require().NoError(err)
		ids[i] = g.ID
	}
	s.at(10)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id model.GameID) {
			defer wg.Done()
			_, err := controller.JoinGame(s.ctx, id, "carol")
			s.NoError(err)
		}(id)
	}
	wg.Wait()

	s.Equal(model.Amount(0), s.balance("carol"))
	indexed, err := controller.ledger.PlayerGames(s.ctx, "carol")
	s.Require().NoError(err)
	s.ElementsMatch(ids, indexed)
}

func (s *ControllerSuite) TestFreeGameEndsWithZeroPayout() {
	s.Require().NoError(s.registry.SetParams(s.ctx, "admin", model.GameParams{
		JoinWindow:   100 * time.Second,
		TurnDuration: 600 * time.Second,
	}))
	game, _ := s.controller.StartGame(s.ctx)
	s.random.QueueBoard(rowZeroBoard())
	s.at(10)

	_, err := s.controller.JoinGame(s.ctx, game.ID, "pauper")
	s.Require().NoError(err)

	s.drawSequence(game.ID, 1, 2, 3, 4, 5)

	result, err := s.controller.CheckBoard(s.ctx, game.ID, "pauper")
	s.Require().NoError(err)
	s.True(result.Won)
	s.Equal(model.Amount(0), result.Payout)

	stored, _ := s.controller.GetGame(s.ctx, game.ID)
	s.True(stored.Ended)
	s.Equal(model.PlayerID("pauper"), stored.Winner)
}

func (s *ControllerSuite) TestAcquireHonoursCancelledContext() {
	game, _ := s.controller.StartGame(s.ctx)
	_, release, err := s.controller.locks.acquire(s.ctx, game.ID)
	s.Require().NoError(err)
	defer release()

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err = s.controller.DrawNumber(ctx, game.ID)
	s.ErrorIs(err, context.Canceled)
}

// DrawDue

func (s *ControllerSuite) TestDrawDueDrawsOnlyDueGames() {
	first, _ := s.controller.StartGame(s.ctx)
	s.at(90)
	_, _ = s.controller.StartGame(s.ctx)

	s.at(150)
	drawn, err := s.controller.DrawDue(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, drawn)

	stored, _ := s.controller.GetGame(s.ctx, first.ID)
	s.Len(stored.NumbersDrawn, 1)

	s.at(200)
	drawn, err = s.controller.DrawDue(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, drawn)

	drawn, err = s.controller.DrawDue(s.ctx)
	s.Require().NoError(err)
	s.Zero(drawn)
}
