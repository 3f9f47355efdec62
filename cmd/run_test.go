package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awsclient "tasnim.dev/hostprep/internal/aws"
	"tasnim.dev/hostprep/internal/journal"
	"tasnim.dev/hostprep/internal/shell"
)

const createRepositoryText = "arn:aws:ecr:us-east-1:123456789012:repository/data-pipeline-docker\t1.7e9\tMUTABLE\t123456789012\tdata-pipeline-docker\t123456789012.dkr.ecr.us-east-1.amazonaws.com/data-pipeline-docker\n"

// fakeTools re-executes the test binary in place of yum, pip, git, docker
// and aws. The tool named failOn exits 1.
func fakeTools(failOn string) shell.ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			"GO_HELPER_FAIL_ON=" + failOn,
		}
		return cmd
	}
}

// TestHelperProcess is not a real test. It is the child process body.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	args = args[1:]
	_, _ = io.ReadAll(os.Stdin)

	if args[0] == os.Getenv("GO_HELPER_FAIL_ON") {
		os.Exit(1)
	}
	if args[0] == "aws" {
		switch args[2] {
		case "create-repository":
			fmt.Fprint(os.Stdout, createRepositoryText)
		case "get-login-password":
			fmt.Fprintln(os.Stdout, "token")
		}
	}
	os.Exit(0)
}

type runFixture struct {
	configPath  string
	cloneDir    string
	journalPath string
}

// newRunFixture writes a config pointing every path into a temp dir.
// extra is appended verbatim to the YAML.
func newRunFixture(t *testing.T, extra string) runFixture {
	t.Helper()
	dir := t.TempDir()

	build := filepath.Join(dir, "build")
	require.NoError(t, os.MkdirAll(build, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(build, "Dockerfile"), []byte("FROM scratch\n"), 0644))

	f := runFixture{
		configPath:  filepath.Join(dir, "config.yaml"),
		cloneDir:    filepath.Join(dir, "analysis"),
		journalPath: filepath.Join(dir, "journal.db"),
	}
	cfg := fmt.Sprintf(`host:
  use_sudo: false
source:
  repository_url: https://example.com/analysis.git
  clone_dir: %q
image:
  build_context: %q
journal:
  path: %q
%s`, f.cloneDir, build, f.journalPath, extra)
	require.NoError(t, writeFile(f.configPath, cfg))
	return f
}

func noSession(context.Context, string, string) (*awsclient.ServiceClient, error) {
	return nil, errors.New("no credentials")
}

func executeRun(t *testing.T, ctx context.Context, env runEnv, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeRunLogs(t, ctx, env, args...)
	return out, err
}

// executeRunLogs also returns what was written to stderr, which carries the logs.
func executeRunLogs(t *testing.T, ctx context.Context, env runEnv, args ...string) (string, string, error) {
	t.Helper()
	root, g := newTestRoot(t)
	root.AddCommand(newRunCmd(g, env))

	var out, logs bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(append([]string{"run"}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), logs.String(), err
}

func statusLines(out string) map[string]int {
	counts := map[string]int{}
	for _, line := range strings.Split(out, "\n") {
		if status, _, ok := strings.Cut(line, ": "); ok {
			counts[status]++
		}
	}
	return counts
}

func TestRunCmd_ExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		failOn   string
		strict   bool
		wantErr  string
		wantFail int
	}{
		{name: "all steps succeed", mode: "cli"},
		{name: "all steps succeed strict", mode: "cli", strict: true},
		{name: "failed step default mode", mode: "cli", failOn: "git", wantFail: 1},
		{name: "failed step strict", mode: "cli", failOn: "git", strict: true, wantErr: "1 of 10 steps failed", wantFail: 1},
		{name: "no session default mode", mode: "sdk", wantFail: 4},
		{name: "no session strict", mode: "sdk", strict: true, wantErr: "4 of 10 steps failed", wantFail: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunFixture(t, "registry:\n  mode: "+tt.mode+"\n")
			env := runEnv{
				execOptions: []shell.Option{shell.WithExecCommand(fakeTools(tt.failOn))},
				newServices: noSession,
			}
			args := []string{"--config", f.configPath}
			if tt.strict {
				args = append(args, "--strict")
			}

			out, err := executeRun(t, context.Background(), env, args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			counts := statusLines(out)
			assert.Equal(t, tt.wantFail, counts["FAILURE"], out)
			assert.Equal(t, 10-tt.wantFail, counts["SUCCESS"], out)
		})
	}
}

func TestRunCmd_RecordsJournal(t *testing.T) {
	f := newRunFixture(t, "registry:\n  mode: cli\n")
	env := runEnv{
		execOptions: []shell.Option{shell.WithExecCommand(fakeTools("docker"))},
		newServices: noSession,
	}

	_, err := executeRun(t, context.Background(), env, "--config", f.configPath)
	require.NoError(t, err)

	j, err := journal.Open(f.journalPath)
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "partial", runs[0].Outcome)
	assert.Equal(t, 4, runs[0].Failures)
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/data-pipeline-docker", runs[0].RepositoryURI)
}

func TestRunCmd_SideChannelErrorsKeepOutcome(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, writeFile(blocker, "x"))

	extra := "registry:\n  mode: cli\nreport:\n  s3_bucket: reports\n"
	f := newRunFixture(t, extra)
	// Point the journal below a regular file so it cannot be opened.
	cfg, err := os.ReadFile(f.configPath)
	require.NoError(t, err)
	cfg = bytes.Replace(cfg, []byte(fmt.Sprintf("%q", f.journalPath)), []byte(fmt.Sprintf("%q", filepath.Join(blocker, "journal.db"))), 1)
	require.NoError(t, os.WriteFile(f.configPath, cfg, 0600))

	env := runEnv{
		execOptions: []shell.Option{shell.WithExecCommand(fakeTools(""))},
		newServices: noSession,
	}

	out, err := executeRun(t, context.Background(), env, "--config", f.configPath, "--strict")
	require.NoError(t, err)
	assert.Equal(t, 10, statusLines(out)["SUCCESS"], out)
}

func TestRunCmd_DryRunLeavesHostUntouched(t *testing.T) {
	f := newRunFixture(t, "")
	require.NoError(t, os.MkdirAll(filepath.Join(f.cloneDir, ".git"), 0755))

	env := runEnv{
		execOptions: []shell.Option{shell.WithExecCommand(func(context.Context, string, ...string) *exec.Cmd {
			t.Fatal("dry run must not start processes")
			return nil
		})},
		newServices: func(context.Context, string, string) (*awsclient.ServiceClient, error) {
			t.Fatal("dry run must not load an AWS session")
			return nil, nil
		},
	}

	out, err := executeRun(t, context.Background(), env, "--config", f.configPath, "--dry-run", "--strict")
	require.NoError(t, err)

	assert.Contains(t, out, "+ rm -rf "+f.cloneDir+"\n")
	assert.Contains(t, out, "+ git clone --branch master https://example.com/analysis.git "+f.cloneDir+"\n")
	assert.Contains(t, out, "+ docker push 000000000000.dkr.ecr.us-east-1.amazonaws.com/data-pipeline-docker\n")
	assert.Equal(t, 10, statusLines(out)["SUCCESS"], out)

	_, err = os.Stat(filepath.Join(f.cloneDir, ".git"))
	assert.NoError(t, err, "dry run removed the previous clone")

	_, err = os.Stat(f.journalPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "dry run must not write the journal")
}

func TestRunCmd_Cancelled(t *testing.T) {
	f := newRunFixture(t, "registry:\n  mode: cli\n")
	env := runEnv{
		execOptions: []shell.Option{shell.WithExecCommand(fakeTools(""))},
		newServices: noSession,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := executeRun(t, ctx, env, "--config", f.configPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "run cancelled")
	assert.Equal(t, 10, statusLines(out)["SKIPPED"], out)

	j, err := journal.Open(f.journalPath)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cancelled", runs[0].Outcome)
}

func TestRunCmd_SessionWarningFollowsRegistryMode(t *testing.T) {
	tests := []struct {
		mode    string
		want    string
		notWant string
	}{
		{mode: "cli", want: "report upload disabled", notWant: "registry steps will fail"},
		{mode: "sdk", want: "registry steps will fail", notWant: "report upload disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			f := newRunFixture(t, "registry:\n  mode: "+tt.mode+"\n")
			env := runEnv{
				execOptions: []shell.Option{shell.WithExecCommand(fakeTools(""))},
				newServices: noSession,
			}

			_, logs, err := executeRunLogs(t, context.Background(), env, "--config", f.configPath)
			require.NoError(t, err)
			assert.Contains(t, logs, tt.want)
			assert.NotContains(t, logs, tt.notWant)
		})
	}
}

func TestRunCmd_MissingSourceWarns(t *testing.T) {
	f := newRunFixture(t, "registry:\n  mode: cli\n")
	cfg, err := os.ReadFile(f.configPath)
	require.NoError(t, err)
	cfg = bytes.Replace(cfg, []byte("  repository_url: https://example.com/analysis.git\n"), nil, 1)
	require.NoError(t, os.WriteFile(f.configPath, cfg, 0600))

	env := runEnv{
		execOptions: []shell.Option{shell.WithExecCommand(fakeTools(""))},
		newServices: noSession,
	}

	out, logs, err := executeRunLogs(t, context.Background(), env, "--config", f.configPath)
	require.NoError(t, err)
	assert.Contains(t, logs, "--repo-url")
	assert.Contains(t, out, "FAILURE: clone branch master of <unset>\n")
}

func TestRunCmd_HelpMentionsRepoURL(t *testing.T) {
	_, g := newTestRoot(t)
	cmd := NewRunCmd(g)
	assert.Contains(t, cmd.Long, "--repo-url")
	assert.NotNil(t, cmd.Flags().Lookup("repo-url"))
}
