// Package provision runs the fixed sequence of host provisioning steps.
//
// Every step runs regardless of how earlier steps ended: a failure prints a
// FAILURE line and the runner moves on. Nothing is retried or rolled back.
package provision

import (
	"context"
	"errors"
	"time"

	awsecr "tasnim.dev/hostprep/internal/aws/ecr"
)

var (
	// ErrRepositoryURIUnavailable is returned by steps that need the URI
	// captured by create-repository when that step produced none.
	ErrRepositoryURIUnavailable = errors.New("repository URI unavailable")

	// ErrMissingDockerfile means the build context has no Dockerfile.
	ErrMissingDockerfile = errors.New("dockerfile not found")

	// ErrSourceNotConfigured means no repository URL was given to clone.
	ErrSourceNotConfigured = errors.New("source repository URL not configured")
)

// Status is the outcome of a single step.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	// StatusSkipped is only used for steps never started because the run was cancelled.
	StatusSkipped Status = "skipped"
)

// Step is one provisioning action.
type Step struct {
	// Name is a stable kebab-case identifier, e.g. "push-image".
	Name string
	// Description is the human text printed after SUCCESS/FAILURE.
	Description string
	Run         func(ctx context.Context, st *State) error
}

// State is per-run scratch space shared between steps.
type State struct {
	RepositoryURI string
	Credentials   awsecr.Credentials
}

// Result records how a step ended.
type Result struct {
	Step     string
	Desc     string
	Status   Status
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Report is the outcome of a whole run.
type Report struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Results       []Result
	RepositoryURI string
	Cancelled     bool
}

// Failed returns the results with StatusFailure, in run order.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Status == StatusFailure {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded reports whether every step ran and none failed.
func (r Report) Succeeded() bool {
	if r.Cancelled {
		return false
	}
	for _, res := range r.Results {
		if res.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// Outcome summarises the run as "success", "partial" or "cancelled".
func (r Report) Outcome() string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Succeeded():
		return "success"
	default:
		return "partial"
	}
}
