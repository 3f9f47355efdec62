package journal

import "time"

// Run is a journal row summarising one provisioning run.
type Run struct {
	ID            string
	AccountID     string
	Region        string
	RepositoryURI string
	Outcome       string
	StartedAt     time.Time
	FinishedAt    time.Time
	Steps         int
	Failures      int
}

type StepRecord struct {
	Position    int
	Name        string
	Description string
	Status      string
	Error       string
	Duration    time.Duration
}
