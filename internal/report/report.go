// Package report renders run reports for upload.
package report

import (
	"time"

	"gopkg.in/yaml.v3"

	"tasnim.dev/hostprep/internal/provision"
)

// Document is the YAML shape of an uploaded run report.
type Document struct {
	RunID         string    `yaml:"run_id"`
	Host          string    `yaml:"host,omitempty"`
	AccountID     string    `yaml:"account_id,omitempty"`
	Region        string    `yaml:"region,omitempty"`
	Outcome       string    `yaml:"outcome"`
	RepositoryURI string    `yaml:"repository_uri,omitempty"`
	StartedAt     time.Time `yaml:"started_at"`
	FinishedAt    time.Time `yaml:"finished_at"`
	Steps         []Step    `yaml:"steps"`
}

type Step struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Error       string `yaml:"error,omitempty"`
	DurationMS  int64  `yaml:"duration_ms"`
}

// Meta is run context that the provision.Report does not carry.
type Meta struct {
	Host      string
	AccountID string
	Region    string
}

// FromReport converts a provision.Report into a Document.
func FromReport(r provision.Report, meta Meta) Document {
	doc := Document{
		RunID:         r.RunID,
		Host:          meta.Host,
		AccountID:     meta.AccountID,
		Region:        meta.Region,
		Outcome:       r.Outcome(),
		RepositoryURI: r.RepositoryURI,
		StartedAt:     r.StartedAt.UTC(),
		FinishedAt:    r.FinishedAt.UTC(),
		Steps:         make([]Step, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		s := Step{
			Name:        res.Step,
			Description: res.Desc,
			Status:      string(res.Status),
			DurationMS:  res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			s.Error = res.Err.Error()
		}
		doc.Steps = append(doc.Steps, s)
	}
	return doc
}

// Marshal renders the report as YAML.
func Marshal(r provision.Report, meta Meta) ([]byte, error) {
	return yaml.Marshal(FromReport(r, meta))
}
