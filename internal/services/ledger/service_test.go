package ledger

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
	"github.com/mcoot/bingopot/internal/storage"
	"github.com/mcoot/bingopot/internal/storage/memory"
	"github.com/mcoot/bingopot/internal/testutil"
)

// flakyStorage fails Apply on demand
type flakyStorage struct {
	*memory.Storage
	applyErr error
}

func (f *flakyStorage) Apply(ctx context.Context, u *storage.Update) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	return f.Storage.Apply(ctx, u)
}

// slowVault widens the window between reading state and committing a join
type slowVault struct {
	token.Vault
	delay time.Duration
}

func (v *slowVault) TransferIn(ctx context.Context, from model.PlayerID, amount model.Amount) error {
	time.Sleep(v.delay)
	return v.Vault.TransferIn(ctx, from, amount)
}

type ServiceSuite struct {
	suite.Suite
	storage *flakyStorage
	bank    *token.MemoryBank
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
	start   time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = &flakyStorage{Storage: memory.New()}
	s.bank = token.NewMemoryBank()
	s.start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.clock = mocks.NewMockClock(s.start)
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.bank, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()

	s.Require().NoError(s.bank.Mint(s.ctx, "alice", 1000))
	s.Require().NoError(s.bank.Mint(s.ctx, "bob", 1000))
}

// createGame stores game 1 with a 100s window and fee 100
func (s *ServiceSuite) createGame() *model.Game {
	id, _ := s.storage.NextGameID(s.ctx)
	game := &model.Game{
		ID:        id,
		StartTime: s.clock.Now(),
		EndTime:   s.clock.Now().Add(100 * time.Second),
		Params:    model.GameParams{JoinWindow: 100 * time.Second, TurnDuration: 600 * time.Second, EntryFee: 100},
	}
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))
	return game
}

func (s *ServiceSuite) balance(p model.PlayerID) model.Amount {
	b, err := s.bank.Balance(s.ctx, p)
	s.Require().NoError(err)
	return b
}

// Join tests

func (s *ServiceSuite) TestJoinChargesFeeAndDealsBoard() {
	game := s.createGame()
	s.random.QueueSeeds(model.Seed{1, 2, 3})

	m, updated, err := s.service.Join(s.ctx, game.ID, "alice")
	s.Require().NoError(err)

	s.True(m.Joined)
	s.Equal(uint8(1), m.Board[0])
	s.Equal(model.Marked, m.Board[model.FreeCell])
	s.Equal(model.Amount(100), updated.Pot)
	s.Equal(model.Amount(900), s.balance("alice"))
	s.Equal(model.Amount(100), s.balance(token.CustodyAccount))

	joined, _ := s.service.HasJoined(s.ctx, game.ID, "alice")
	s.True(joined)

	ids, _ := s.service.PlayerGames(s.ctx, "alice")
	s.Equal([]model.GameID{game.ID}, ids)
}

func (s *ServiceSuite) TestJoinUnknownGame() {
	_, _, err := s.service.Join(s.ctx, 9, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ServiceSuite) TestJoinEndedGame() {
	game := s.createGame()
	game.Ended = true
	_ = s.storage.SaveGame(s.ctx, game)

	_, _, err := s.service.Join(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrGameEnded)
}

func (s *ServiceSuite) TestJoinTwiceRejected() {
	game := s.createGame()
	_, _, err := s.service.Join(s.ctx, game.ID, "alice")
	s.Require().NoError(err)

	_, _, err = s.service.Join(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrAlreadyJoined)
	s.Equal(model.Amount(900), s.balance("alice"))
}

func (s *ServiceSuite) TestJoinAtWindowCloseAllowed() {
	game := s.createGame()
	s.clock.Set(game.EndTime)

	_, _, err := s.service.Join(s.ctx, game.ID, "alice")
	s.NoError(err)
}

func (s *ServiceSuite) TestJoinAfterWindowRejected() {
	game := s.createGame()
	s.clock.Set(game.EndTime.Add(time.Second))

	_, _, err := s.service.Join(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrJoinWindowClosed)
}

func (s *ServiceSuite) TestJoinInsufficientFundsChangesNothing() {
	game := s.createGame()

	_, _, err := s.service.Join(s.ctx, game.ID, "pauper")
	s.ErrorIs(err, token.ErrInsufficientFunds)

	stored, _ := s.storage.GetGame(s.ctx, game.ID)
	s.Zero(stored.Pot)
	joined, _ := s.service.HasJoined(s.ctx, game.ID, "pauper")
	s.False(joined)
	ids, _ := s.service.PlayerGames(s.ctx, "pauper")
	s.Empty(ids)
}

func (s *ServiceSuite) TestJoinStorageFailureRefunds() {
	game := s.createGame()
	s.storage.applyErr = errors.New("disk full")

	_, _, err := s.service.Join(s.ctx, game.ID, "alice")
	s.Error(err)

	s.Equal(model.Amount(1000), s.balance("alice"))
	s.Equal(model.Amount(0), s.balance(token.CustodyAccount))
}

func (s *ServiceSuite) TestJoinVaultFailureFromMock() {
	ctrl := gomock.NewController(s.T())
	vault := tokenMocks.NewMockVault(ctrl)
	svc := New(s.storage, vault, s.clock, s.random, testutil.NopLogger())
	game := s.createGame()

	vault.EXPECT().
		TransferIn(gomock.Any(), model.PlayerID("alice"), model.Amount(100)).
		Return(token.ErrInsufficientFunds)

	_, _, err := svc.Join(s.ctx, game.ID, "alice")
	s.ErrorIs(err, token.ErrInsufficientFunds)

	stored, _ := s.storage.GetGame(s.ctx, game.ID)
	s.Zero(stored.Pot)
}

// Leave tests

func (s *ServiceSuite) TestLeaveRefundsAndClearsMembership() {
	game := s.createGame()
	_, _, _ = s.service.Join(s.ctx, game.ID, "alice")
	_, _, _ = s.service.Join(s.ctx, game.ID, "bob")

	updated, err := s.service.Leave(s.ctx, game.ID, "alice")
	s.Require().NoError(err)

	s.Equal(model.Amount(100), updated.Pot)
	s.Equal(model.Amount(1000), s.balance("alice"))
	joined, _ := s.service.HasJoined(s.ctx, game.ID, "alice")
	s.False(joined)
	ids, _ := s.service.PlayerGames(s.ctx, "alice")
	s.Empty(ids)

	_, err = s.service.GetBoard(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrNotAJoinedPlayer)
}

func (s *ServiceSuite) TestLeaveThenRejoin() {
	game := s.createGame()
	_, _, _ = s.service.Join(s.ctx, game.ID, "alice")
	_, _ = s.service.Leave(s.ctx, game.ID, "alice")

	_, updated, err := s.service.Join(s.ctx, game.ID, "alice")
	s.Require().NoError(err)
	s.Equal(model.Amount(100), updated.Pot)
}

func (s *ServiceSuite) TestLeaveUnknownGame() {
	_, err := s.service.Leave(s.ctx, 9, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ServiceSuite) TestLeaveNotJoined() {
	game := s.createGame()
	_, err := s.service.Leave(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrNotAJoinedPlayer)
}

func (s *ServiceSuite) TestLeaveAtWindowCloseRejected() {
	game := s.createGame()
	_, _, _ = s.service.Join(s.ctx, game.ID, "alice")
	s.clock.Set(game.EndTime)

	_, err := s.service.Leave(s.ctx, game.ID, "alice")
	s.ErrorIs(err, model.ErrGameAlreadyStarted)
	s.Equal(model.Amount(900), s.balance("alice"))
}

func (s *ServiceSuite) TestLeaveRefundFailureRestoresState() {
	ctrl := gomock.NewController(s.T())
	vault := tokenMocks.NewMockVault(ctrl)
	svc := New(s.storage, vault, s.clock, s.random, testutil.NopLogger())
	game := s.createGame()

	vault.EXPECT().TransferIn(gomock.Any(), model.PlayerID("alice"), model.Amount(100)).Return(nil)
	vault.EXPECT().TransferOut(gomock.Any(), model.PlayerID("alice"), model.Amount(100)).Return(token.ErrTransferFailed)

	_, _, err := svc.Join(s.ctx, game.ID, "alice")
	s.Require().NoError(err)

	_, err = svc.Leave(s.ctx, game.ID, "alice")
	s.ErrorIs(err, token.ErrTransferFailed)

	stored, _ := s.storage.GetGame(s.ctx, game.ID)
	s.Equal(model.Amount(100), stored.Pot)
	joined, _ := svc.HasJoined(s.ctx, game.ID, "alice")
	s.True(joined)
	ids, _ := svc.PlayerGames(s.ctx, "alice")
	s.Equal([]model.GameID{game.ID}, ids)
}

func (s *ServiceSuite) TestPotTracksJoinsMinusLeaves() {
	game := s.createGame()
	players := []model.PlayerID{"p1", "p2", "p3", "p4"}
	for _, p := range players {
		_ = s.bank.Mint(s.ctx, p, 100)
		_, _, err := s.service.Join(s.ctx, game.ID, p)
		s.Require().NoError(err)
	}
	_, _ = s.service.Leave(s.ctx, game.ID, "p2")
	_, _ = s.service.Leave(s.ctx, game.ID, "p4")

	stored, _ := s.storage.GetGame(s.ctx, game.ID)
	s.Equal(model.Amount(200), stored.Pot)
	s.Equal(model.Amount(200), s.balance(token.CustodyAccount))
}

// Index tests

func (s *ServiceSuite) TestConcurrentJoinsBySamePlayerKeepEveryGameIndexed() {
	const games = 20
	svc := New(s.storage, &slowVault{Vault: s.bank, delay: 5 * time.Millisecond}, s.clock, s.random, testutil.NopLogger())
	s.Require().NoError(s.bank.Mint(s.ctx, "carol", games*100))

	ids := make([]model.GameID, games)
	for i := range ids {
		ids[i] = s.createGame().ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, games)
	for _, id := range ids {
		wg.Add(1)
		go func(id model.GameID) {
			defer wg.Done()
			_, _, err := svc.Join(s.ctx, id, "carol")
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	indexed, err := svc.PlayerGames(s.ctx, "carol")
	s.Require().NoError(err)
	s.ElementsMatch(ids, indexed)

	// Leave half of them concurrently
	for _, id := range ids[:games/2] {
		wg.Add(1)
		go func(id model.GameID) {
			defer wg.Done()
			_, err := svc.Leave(s.ctx, id, "carol")
			s.NoError(err)
		}(id)
	}
	wg.Wait()

	indexed, err = svc.PlayerGames(s.ctx, "carol")
	s.Require().NoError(err)
	s.ElementsMatch(ids[games/2:], indexed)
	s.Equal(model.Amount(games/2*100), s.balance("carol"))
}

func (s *ServiceSuite) TestLeaveRemovesOnlyThatGame() {
	g1 := s.createGame()
	g2 := s.createGame()
	g3 := s.createGame()
	for _, g := range []*model.Game{g1, g2, g3} {
		_, _, err := s.service.Join(s.ctx, g.ID, "alice")
		s.Require().NoError(err)
	}

	_, err := s.service.Leave(s.ctx, g1.ID, "alice")
	s.Require().NoError(err)

	ids, _ := s.service.PlayerGames(s.ctx, "alice")
	s.ElementsMatch([]model.GameID{g2.ID, g3.ID}, ids)
}

// Free games

func (s *ServiceSuite) TestUnfundedPlayerJoinsAndLeavesFreeGame() {
	id, _ := s.storage.NextGameID(s.ctx)
	game := &model.Game{
		ID:      id,
		EndTime: s.clock.Now().Add(100 * time.Second),
		Params:  model.GameParams{JoinWindow: 100 * time.Second},
	}
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	_, stored, err := s.service.Join(s.ctx, game.ID, "pauper")
	s.Require().NoError(err)
	s.Equal(model.Amount(0), stored.Pot)

	_, err = s.service.Leave(s.ctx, game.ID, "pauper")
	s.Require().NoError(err)
	s.Equal(model.Amount(0), s.balance("pauper"))
}

// ListWinnings tests

func (s *ServiceSuite) TestListWinningsSumsWonPots() {
	g1 := s.createGame()
	g2 := s.createGame()
	g3 := s.createGame()
	for _, g := range []*model.Game{g1, g2, g3} {
		_, _, err := s.service.Join(s.ctx, g.ID, "alice")
		s.Require().NoError(err)
		_, _, err = s.service.Join(s.ctx, g.ID, "bob")
		s.Require().NoError(err)
	}

	for _, g := range []*model.Game{g1, g3} {
		stored, _ := s.storage.GetGame(s.ctx, g.ID)
		stored.Ended = true
		stored.Winner = "alice"
		_ = s.storage.SaveGame(s.ctx, stored)
	}

	total, err := s.service.ListWinnings(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.Amount(400), total)

	total, err = s.service.ListWinnings(s.ctx, "bob")
	s.Require().NoError(err)
	s.Zero(total)
}
