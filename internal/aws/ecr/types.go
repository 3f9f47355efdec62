package ecr

import "time"

type ECRRepo struct {
	Name      string
	ARN       string
	URI       string
	CreatedAt time.Time
}

type ECRImage struct {
	Tags     []string
	Digest   string
	SizeMB   float64
	PushedAt time.Time
}

// Credentials is a docker login for the registry.
type Credentials struct {
	Username string
	Password string
	Endpoint string
}
