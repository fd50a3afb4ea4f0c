package drawer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Drawer is the subset of the game controller the moderator drives
type Drawer interface {
	DrawDue(ctx context.Context) (int, error)
}

// Config holds moderator settings
type Config struct {
	// Interval between sweeps. Zero disables automatic drawing.
	Interval time.Duration

	// Timeout bounds a single sweep
	Timeout time.Duration
}

// DefaultConfig returns default moderator configuration
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		Timeout:  30 * time.Second,
	}
}

// Moderator periodically draws numbers for games whose turn has elapsed
type Moderator struct {
	drawer    Drawer
	cfg       Config
	logger    *slog.Logger
	scheduler gocron.Scheduler
}

// New creates a Moderator. It does nothing until Start is called.
func New(drawer Drawer, cfg Config, logger *slog.Logger) *Moderator {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Moderator{
		drawer: drawer,
		cfg:    cfg,
		logger: logger,
	}
}

// Start schedules the sweep job. A zero interval leaves the moderator idle.
func (m *Moderator) Start() error {
	if m.cfg.Interval <= 0 {
		m.logger.Info("auto-draw disabled")
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(m.cfg.Interval),
		gocron.NewTask(m.Sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule draw job: %w", err)
	}

	sched.Start()
	m.scheduler = sched
	m.logger.Info("auto-draw started", slog.Duration("interval", m.cfg.Interval))
	return nil
}

// Sweep runs one pass over every game in the drawing phase
func (m *Moderator) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	drawn, err := m.drawer.DrawDue(ctx)
	if err != nil {
		m.logger.Error("auto-draw sweep failed", slog.String("error", err.Error()))
		return
	}
	if drawn > 0 {
		m.logger.Debug("auto-draw sweep", slog.Int("drawn", drawn))
	}
}

// Stop shuts down the scheduler, waiting for a running sweep to finish.
// Stopping an idle or already stopped moderator is a no-op.
func (m *Moderator) Stop() error {
	if m.scheduler == nil {
		return nil
	}
	sched := m.scheduler
	m.scheduler = nil
	return sched.Shutdown()
}
