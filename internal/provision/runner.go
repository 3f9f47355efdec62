package provision

import (
	"context"
	"errors"
	"time"

	"github.com/aws/smithy-go"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Runner executes steps sequentially, reporting each outcome.
type Runner struct {
	reporter *Reporter
	logger   *log.Logger
	now      func() time.Time
}

func NewRunner(reporter *Reporter, logger *log.Logger) *Runner {
	return &Runner{
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes every step in order. A failed step is reported and the next
// one starts anyway. The only early exit is context cancellation: steps not
// yet started are recorded as skipped.
func (r *Runner) Run(ctx context.Context, steps []Step) Report {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
		Results:   make([]Result, 0, len(steps)),
	}
	st := &State{}

	r.logger.Info("starting provisioning", "run", report.RunID, "steps", len(steps))

	for i, step := range steps {
		if ctx.Err() != nil {
			report.Cancelled = true
			res := Result{Step: step.Name, Desc: step.Description, Status: StatusSkipped, Err: ctx.Err()}
			report.Results = append(report.Results, res)
			r.reporter.Step(res)
			continue
		}

		logger := r.logger.With("step", step.Name, "n", i+1, "of", len(steps))
		logger.Info("starting")

		res := Result{Step: step.Name, Desc: step.Description, Started: r.now()}
		err := step.Run(ctx, st)
		res.Duration = r.now().Sub(res.Started)

		if err != nil {
			res.Status = StatusFailure
			res.Err = err
			logger.Error("failed", append([]any{"err", err, "took", res.Duration.Round(time.Millisecond)}, apiErrorAttrs(err)...)...)
		} else {
			res.Status = StatusSuccess
			logger.Info("completed", "took", res.Duration.Round(time.Millisecond))
		}

		report.Results = append(report.Results, res)
		r.reporter.Step(res)
	}

	report.RepositoryURI = st.RepositoryURI
	report.FinishedAt = r.now()
	r.logger.Info("provisioning finished",
		"run", report.RunID,
		"outcome", report.Outcome(),
		"failed", len(report.Failed()),
		"took", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
	return report
}

// apiErrorAttrs extracts the AWS error code and fault for logging.
func apiErrorAttrs(err error) []any {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	return []any{"code", apiErr.ErrorCode(), "fault", apiErr.ErrorFault().String()}
}
