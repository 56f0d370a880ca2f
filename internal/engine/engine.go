// Package engine orchestrates a provisioning run: for every target host it
// executes the two installer steps in their fixed order, requirements
// first, then the project install, with the second step contingent on the
// first succeeding.
//
// Hosts are independent: they fan out in parallel under a bounded
// errgroup, a failed host never affects another, and there is no retry or
// partial-completion policy beyond what pip itself guarantees. Both steps
// are idempotent from the installer's point of view — pip no-ops when the
// desired state already holds — so re-applying a playbook is safe.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"venvctl/internal/model"
	"venvctl/internal/pip"
	"venvctl/internal/playbook"
	"venvctl/internal/target"
)

// DefaultForks is the default number of hosts provisioned concurrently,
// matching the fan-out default of comparable orchestration tools.
const DefaultForks = 5

// Step pairs a step kind with the exact argv it will execute, after
// privilege-escalation wrapping. The check command prints these without
// executing them; apply feeds them to a transport.
type Step struct {
	Kind model.StepKind
	Argv []string
}

// Plan derives the ordered step list for a playbook. The order is fixed:
// the requirements step always precedes the project step, because the
// project step skips dependency resolution and relies on the requirements
// step having satisfied every pin.
func Plan(pb *playbook.Playbook) []Step {
	become := target.Become{
		Enabled: pb.Become,
		Method:  pb.BecomeMethod,
		User:    pb.BecomeUser,
	}

	return []Step{
		{
			Kind: model.StepRequirements,
			Argv: become.Wrap(pip.RequirementsArgs(pb.PipPath(), pb.PipCache, pb.RequirementsPath())),
		},
		{
			Kind: model.StepProject,
			Argv: become.Wrap(pip.ProjectArgs(pb.PipPath(), pb.ProjectDir, pb.IsEditable())),
		},
	}
}

// RunnerFactory creates the transport for one host. It is a field on the
// Engine so tests can substitute a fake transport.
type RunnerFactory func(ctx context.Context, host model.Host) (target.Runner, error)

// Engine executes playbook plans against resolved hosts.
type Engine struct {
	logger    *zap.Logger
	forks     int
	newRunner RunnerFactory
}

// New creates an Engine with the given logger and host-level parallelism.
// A forks value below 1 falls back to DefaultForks.
func New(logger *zap.Logger, forks int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if forks < 1 {
		forks = DefaultForks
	}
	return &Engine{
		logger:    logger,
		forks:     forks,
		newRunner: target.New,
	}
}

// WithRunnerFactory returns the engine with its transport factory replaced.
// Used by tests to inject fake runners.
func (e *Engine) WithRunnerFactory(f RunnerFactory) *Engine {
	e.newRunner = f
	return e
}

// Apply provisions every host with the playbook's two steps and returns
// the aggregated run report.
//
// Hosts run concurrently up to the fork limit; steps within a host run
// strictly in order. A step or connection failure marks only its own host
// as failed — the other hosts always run to completion, which is why the
// worker goroutines never return errors to the group.
func (e *Engine) Apply(ctx context.Context, playbookPath string, pb *playbook.Playbook, hosts []model.Host) *model.RunReport {
	report := &model.RunReport{
		Playbook:  playbookPath,
		Hosts:     make([]model.HostReport, len(hosts)),
		StartedAt: time.Now().UTC(),
	}

	steps := Plan(pb)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.forks)

	for i, host := range hosts {
		i, host := i, host
		g.Go(func() error {
			report.Hosts[i] = e.provisionHost(gctx, host, steps)
			return nil
		})
	}

	// Wait cannot fail: workers record failures in their own report slot.
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	return report
}

// provisionHost runs the ordered steps on a single host. The first failed
// step aborts the host; remaining steps are recorded as skipped.
func (e *Engine) provisionHost(ctx context.Context, host model.Host, steps []Step) model.HostReport {
	log := e.logger.With(
		zap.String("host", host.Name),
		zap.String("connection", host.Connection.String()),
	)

	hr := model.HostReport{Host: host}

	runner, err := e.newRunner(ctx, host)
	if err != nil {
		log.Error("connection failed", zap.Error(err))
		hr.Error = err.Error()
		for _, step := range steps {
			hr.Steps = append(hr.Steps, model.StepResult{
				Kind:   step.Kind,
				Status: model.StepSkipped,
				Argv:   step.Argv,
			})
		}
		return hr
	}
	defer func() { _ = runner.Close() }()

	aborted := false
	for _, step := range steps {
		if aborted {
			log.Warn("step skipped", zap.String("step", step.Kind.String()))
			hr.Steps = append(hr.Steps, model.StepResult{
				Kind:   step.Kind,
				Status: model.StepSkipped,
				Argv:   step.Argv,
			})
			continue
		}

		log.Info("step started",
			zap.String("step", step.Kind.String()),
			zap.Strings("argv", step.Argv),
		)

		start := time.Now()
		output, runErr := runner.Run(ctx, step.Argv)
		result := model.StepResult{
			Kind:     step.Kind,
			Argv:     step.Argv,
			Output:   output,
			Duration: time.Since(start),
		}

		if runErr != nil {
			result.Status = model.StepFailed
			result.Err = runErr
			result.Error = runErr.Error()
			aborted = true
			log.Error("step failed",
				zap.String("step", step.Kind.String()),
				zap.Duration("duration", result.Duration),
				zap.Error(runErr),
			)
		} else {
			result.Status = model.StepOK
			log.Info("step complete",
				zap.String("step", step.Kind.String()),
				zap.Duration("duration", result.Duration),
			)
		}

		hr.Steps = append(hr.Steps, result)
	}

	return hr
}
