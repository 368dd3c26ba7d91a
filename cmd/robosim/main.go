// Package main runs a robot simulation scenario from the command line.
package main

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"github.com/robosim-dev/robosim/kinematics"
	"github.com/robosim-dev/robosim/robot"
)

var logger = golog.NewDevelopmentLogger("robosim")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Scenario string `flag:"0,required,usage=path to a scenario YAML file"`
	Model    string `flag:"model,usage=robot description JSON (overrides the scenario)"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	scenario, err := robot.LoadScenario(argsParsed.Scenario)
	if err != nil {
		return err
	}
	modelPath := scenario.Model
	if argsParsed.Model != "" {
		modelPath = argsParsed.Model
	}
	chain, err := kinematics.ParseModelFile(modelPath, "")
	if err != nil {
		return err
	}
	return runScenario(ctx, scenario, chain, logger)
}

func runScenario(ctx context.Context, scenario *robot.Scenario, chain *kinematics.Chain, logger golog.Logger) error {
	r, err := scenario.Build(chain, logger)
	if err != nil {
		return err
	}
	logger.Infow("scenario loaded",
		"chain", chain.Name(),
		"dof", r.DoF(),
		"dt", r.Dt(),
		"duration", scenario.Duration,
	)

	session := robot.NewSession(r, clock.New(), logger)
	if err := session.SetForces(scenario.StepForces(r.DoF())); err != nil {
		return err
	}

	if scenario.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(scenario.Duration*float64(time.Second)))
		defer cancel()
	}

	reportEvery := time.Second
	done := make(chan error, 1)
	goutils.PanicCapturingGo(func() {
		done <- session.Run(ctx)
	})

	ticker := time.NewTicker(reportEvery)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			logSnapshot(r, logger)
			return err
		case <-ticker.C:
			logSnapshot(r, logger)
		}
	}
}

func logSnapshot(r *robot.Robot, logger golog.Logger) {
	s := r.Snapshot()
	logger.Infow("state",
		"step", s.Step,
		"time", s.Time,
		"positions", s.Positions,
		"velocities", s.Velocities,
	)
}
