package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	awsclient "tasnim.dev/hostprep/internal/aws"
	awss3 "tasnim.dev/hostprep/internal/aws/s3"
	"tasnim.dev/hostprep/internal/config"
	"tasnim.dev/hostprep/internal/constants"
	"tasnim.dev/hostprep/internal/journal"
	"tasnim.dev/hostprep/internal/provision"
	"tasnim.dev/hostprep/internal/report"
	"tasnim.dev/hostprep/internal/shell"
)

// runEnv holds the collaborators run builds. Tests replace them.
type runEnv struct {
	execOptions []shell.Option
	newServices func(ctx context.Context, profile, region string) (*awsclient.ServiceClient, error)
}

func NewRunCmd(g *GlobalOptions) *cobra.Command {
	return newRunCmd(g, runEnv{newServices: awsclient.NewServiceClient})
}

func newRunCmd(g *GlobalOptions, env runEnv) *cobra.Command {
	var strict, dryRun bool
	var repoURL, branch string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision this host and push the analysis image to ECR",
		Long: `Runs every provisioning step in order, printing a SUCCESS or FAILURE
line after each one. A failed step does not stop the steps after it.

The repository to clone has no default. Set source.repository_url in the
config file or pass --repo-url, otherwise the clone step fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, profile, region, err := g.load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg.MergeSource(repoURL, branch)
			logger := g.logger(cmd.ErrOrStderr())
			if cfg.Source.RepositoryURL == "" {
				logger.Warn("no repository to clone, pass --repo-url or set source.repository_url")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := []shell.Option{
				shell.WithSudo(cfg.Sudo()),
				shell.WithDryRun(dryRun),
				shell.WithLogger(logger),
				shell.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			}
			exec := shell.NewExecutor(append(opts, env.execOptions...)...)

			var services *awsclient.ServiceClient
			var accountID string
			var awsErr error
			if dryRun {
				logger.Debug("dry run, AWS session not loaded")
			} else {
				services, awsErr = env.newServices(ctx, profile, region)
				switch {
				case awsErr != nil && cfg.Registry.Mode == constants.RegistryModeCLI:
					logger.Warn("AWS session unavailable, report upload disabled", "err", awsErr)
				case awsErr != nil:
					logger.Warn("AWS session unavailable, registry steps will fail", "err", awsErr)
				default:
					region = services.Region
					accountID = services.AccountID(ctx)
					logger.Info("AWS session", "account", accountID, "region", region, "profile", profile)
				}
			}

			registry := selectRegistry(cfg, services, awsErr, exec, profile, region, accountID, dryRun)
			steps := provision.DefaultSteps(cfg, provision.Deps{Exec: exec, Registry: registry, RemoveAll: exec.Remove})
			rep := provision.NewRunner(provision.NewReporter(cmd.OutOrStdout()), logger).Run(ctx, steps)

			if !dryRun {
				recordRun(logger, cfg, rep, accountID, region)
				uploadReport(logger, cfg, services, rep, accountID, region)
			}

			if rep.Cancelled {
				return fmt.Errorf("run cancelled: %w", context.Cause(ctx))
			}
			if strict && !rep.Succeeded() {
				return fmt.Errorf("%d of %d steps failed", len(rep.Failed()), len(rep.Results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any step fails")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print commands instead of running them")
	cmd.Flags().StringVar(&repoURL, "repo-url", "", "analysis repository to clone (required unless set in config)")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to clone")

	return cmd
}

func selectRegistry(cfg *config.Config, services *awsclient.ServiceClient, awsErr error, exec *shell.Executor,
	profile, region, accountID string, dryRun bool) provision.Registry {
	switch {
	case dryRun:
		return provision.DryRunRegistry(accountID, region)
	case cfg.Registry.Mode == constants.RegistryModeCLI:
		return provision.NewCLIRegistry(exec, profile, region)
	case awsErr != nil:
		return provision.UnavailableRegistry(awsErr)
	default:
		return services.ECR.ReuseExisting(cfg.Registry.ReuseExisting)
	}
}

// recordRun writes the report to the journal. Failures are logged only.
func recordRun(logger *log.Logger, cfg *config.Config, rep provision.Report, accountID, region string) {
	if cfg.Journal.Disabled || cfg.Journal.Path == "" {
		return
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logger.Warn("journal unavailable", "err", err)
		return
	}
	defer j.Close()

	if err := j.Record(context.Background(), rep, accountID, region); err != nil {
		logger.Warn("recording run failed", "err", err)
		return
	}
	logger.Debug("run recorded", "journal", cfg.Journal.Path, "run", rep.RunID)
}

// uploadReport pushes a YAML summary to S3 when a bucket is configured.
func uploadReport(logger *log.Logger, cfg *config.Config, services *awsclient.ServiceClient,
	rep provision.Report, accountID, region string) {
	if cfg.Report.S3Bucket == "" {
		return
	}
	if services == nil {
		logger.Warn("skipping report upload, no AWS session", "bucket", cfg.Report.S3Bucket)
		return
	}

	host, _ := os.Hostname()
	body, err := report.Marshal(rep, report.Meta{Host: host, AccountID: accountID, Region: region})
	if err != nil {
		logger.Warn("rendering report failed", "err", err)
		return
	}

	key := awss3.ReportKey(cfg.Report.S3Prefix, rep.RunID, rep.StartedAt)
	obj, err := services.S3.PutReport(context.Background(), cfg.Report.S3Bucket, key, body)
	if err != nil {
		logger.Warn("report upload failed", "err", err)
		return
	}
	logger.Info("report uploaded", "url", obj.URL())
}
