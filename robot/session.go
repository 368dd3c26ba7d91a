package robot

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/robosim-dev/robosim/kinematics"
)

// Session drives a robot at a fixed simulation rate from wall-clock time. Wall
// time is accumulated and consumed in whole dt-sized steps, so the simulation
// stays deterministic regardless of scheduler jitter; a late tick runs as many
// catch-up steps as the accumulated time covers.
type Session struct {
	robot  *Robot
	clk    clock.Clock
	logger golog.Logger

	mu     sync.Mutex
	forces []float64
}

// NewSession creates a session over the robot using the given clock. Pass
// clock.New() for wall time; tests inject a mock.
func NewSession(r *Robot, clk clock.Clock, logger golog.Logger) *Session {
	return &Session{
		robot:  r,
		clk:    clk,
		logger: logger,
		forces: make([]float64, r.DoF()),
	}
}

// SetForces replaces the generalized forces applied on every subsequent step.
// Safe to call while Run is looping.
func (s *Session) SetForces(forces []float64) error {
	if len(forces) != s.robot.DoF() {
		return kinematics.NewIncorrectDoFError(len(forces), s.robot.DoF())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.forces, forces)
	return nil
}

func (s *Session) currentForces() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.forces...)
}

// Run steps the robot until the context is cancelled, returning nil on a clean
// cancellation. Integration errors abort the run and are returned as-is.
func (s *Session) Run(ctx context.Context) error {
	period := time.Duration(s.robot.Dt() * float64(time.Second))
	ticker := s.clk.Ticker(period)
	defer ticker.Stop()

	last := s.clk.Now()
	var pending time.Duration
	for {
		select {
		case <-ctx.Done():
			s.logger.Debugw("session stopped", "steps", s.robot.Snapshot().Step)
			return nil
		case now := <-ticker.C:
			pending += now.Sub(last)
			last = now
			for pending >= period {
				if err := s.robot.Step(s.currentForces()); err != nil {
					return err
				}
				pending -= period
			}
		}
	}
}
