package provision

import (
	"context"
	"fmt"
	"strings"

	awsecr "tasnim.dev/hostprep/internal/aws/ecr"
	"tasnim.dev/hostprep/internal/constants"
	"tasnim.dev/hostprep/internal/shell"
)

// Registry creates the image repository and hands out login credentials.
// *awsecr.Client satisfies it using the ECR API directly.
type Registry interface {
	CreateRepository(ctx context.Context, name string) (string, error)
	Credentials(ctx context.Context) (awsecr.Credentials, error)
}

// Commander runs external tools.
type Commander interface {
	Run(ctx context.Context, c shell.Command) error
	Output(ctx context.Context, c shell.Command) (string, error)
}

// CLIRegistry drives the aws CLI and parses its text output.
type CLIRegistry struct {
	exec    Commander
	profile string
	region  string
}

func NewCLIRegistry(exec Commander, profile, region string) *CLIRegistry {
	return &CLIRegistry{exec: exec, profile: profile, region: region}
}

func (r *CLIRegistry) CreateRepository(ctx context.Context, name string) (string, error) {
	out, err := r.exec.Output(ctx, r.aws("ecr", "create-repository", "--repository-name", name, "--output", "text"))
	if err != nil {
		return "", err
	}
	uri, err := awsecr.ParseRepositoryURI(out)
	if err != nil {
		return "", fmt.Errorf("parsing create-repository output: %w", err)
	}
	return uri, nil
}

func (r *CLIRegistry) Credentials(ctx context.Context) (awsecr.Credentials, error) {
	out, err := r.exec.Output(ctx, r.aws("ecr", "get-login-password"))
	if err != nil {
		return awsecr.Credentials{}, err
	}
	pass := strings.TrimSpace(out)
	if pass == "" {
		return awsecr.Credentials{}, fmt.Errorf("get-login-password: %w", awsecr.ErrNoAuthorizationData)
	}
	return awsecr.Credentials{Username: constants.RegistryUsername, Password: pass}, nil
}

func (r *CLIRegistry) aws(args ...string) shell.Command {
	if r.region != "" {
		args = append(args, "--region", r.region)
	}
	if r.profile != "" {
		args = append(args, "--profile", r.profile)
	}
	return shell.Command{Name: "aws", Args: args}
}

// unavailableRegistry fails every call with the error that prevented a real
// registry from being built, so the registry steps still run and report.
type unavailableRegistry struct {
	err error
}

// UnavailableRegistry returns a Registry whose calls all fail with err.
func UnavailableRegistry(err error) Registry {
	return unavailableRegistry{err: err}
}

func (u unavailableRegistry) CreateRepository(context.Context, string) (string, error) {
	return "", u.err
}

func (u unavailableRegistry) Credentials(context.Context) (awsecr.Credentials, error) {
	return awsecr.Credentials{}, u.err
}

// dryRunRegistry fabricates a plausible URI without calling AWS.
type dryRunRegistry struct {
	accountID string
	region    string
}

// DryRunRegistry returns a Registry for --dry-run that never touches AWS.
func DryRunRegistry(accountID, region string) Registry {
	if accountID == "" {
		accountID = "000000000000"
	}
	if region == "" {
		region = "us-east-1"
	}
	return dryRunRegistry{accountID: accountID, region: region}
}

func (d dryRunRegistry) CreateRepository(_ context.Context, name string) (string, error) {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s", d.accountID, d.region, name), nil
}

func (d dryRunRegistry) Credentials(context.Context) (awsecr.Credentials, error) {
	return awsecr.Credentials{Username: constants.RegistryUsername, Password: "dry-run"}, nil
}
