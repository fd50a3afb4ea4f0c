package drawer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bingopot/internal/testutil"
)

type countingDrawer struct {
	calls atomic.Int32
	err   error
}

func (d *countingDrawer) DrawDue(ctx context.Context) (int, error) {
	d.calls.Add(1)
	return 1, d.err
}

type ModeratorSuite struct {
	suite.Suite
	drawer *countingDrawer
}

func TestModeratorSuite(t *testing.T) {
	suite.Run(t, new(ModeratorSuite))
}

func (s *ModeratorSuite) SetupTest() {
	s.drawer = &countingDrawer{}
}

func (s *ModeratorSuite) TestSweepCallsDrawer() {
	m := New(s.drawer, DefaultConfig(), testutil.NopLogger())
	m.Sweep()
	s.Equal(int32(1), s.drawer.calls.Load())
}

func (s *ModeratorSuite) TestSweepSurvivesErrors() {
	s.drawer.err = errors.New("storage down")
	m := New(s.drawer, DefaultConfig(), testutil.NopLogger())
	m.Sweep()
	m.Sweep()
	s.Equal(int32(2), s.drawer.calls.Load())
}

func (s *ModeratorSuite) TestZeroIntervalDisables() {
	m := New(s.drawer, Config{}, testutil.NopLogger())
	s.Require().NoError(m.Start())
	s.NoError(m.Stop())
	s.Zero(s.drawer.calls.Load())
}

func (s *ModeratorSuite) TestScheduledSweeps() {
	m := New(s.drawer, Config{Interval: 20 * time.Millisecond}, testutil.NopLogger())
	s.Require().NoError(m.Start())
	defer func() { _ = m.Stop() }()

	s.Eventually(func() bool {
		return s.drawer.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *ModeratorSuite) TestStopTwiceIsSafe() {
	m := New(s.drawer, Config{Interval: time.Hour}, testutil.NopLogger())
	s.Require().NoError(m.Start())
	s.NoError(m.Stop())
	s.NoError(m.Stop())
}
