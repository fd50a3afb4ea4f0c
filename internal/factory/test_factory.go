package factory

import (
	"context"
	"time"

	"github.com/mcoot/bingopot/internal/dependencies/mocks"
	"github.com/mcoot/bingopot/internal/dependencies/token"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/storage/memory"
	"github.com/mcoot/bingopot/internal/testutil"
)

// TestConfigurator is the configurator player of every TestApp
const TestConfigurator model.PlayerID = "u_admin"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MemoryBank *token.MemoryBank
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	bank := token.NewMemoryBank()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := Config{}
	cfg.RegistryConfig.Configurator = TestConfigurator

	app := newWithDependencies(store, bank, mockClock, mockRandom, cfg, testutil.NopLogger())
	app.StorageType = StorageTypeMemory
	app.BankType = BankTypeMemory

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MemoryBank: bank,
	}
}

// Fund mints tokens for each player, panicking on failure
func (t *TestApp) Fund(amount model.Amount, players ...model.PlayerID) {
	for _, p := range players {
		if err := t.Bank.Mint(context.Background(), p, amount); err != nil {
			panic(err)
		}
	}
}

// CloseJoinWindow moves the clock just past the game's join window
func (t *TestApp) CloseJoinWindow(game *model.Game) {
	t.MockClock.Set(game.EndTime.Add(time.Nanosecond))
}
