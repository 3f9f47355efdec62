package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	awsecr "tasnim.dev/hostprep/internal/aws/ecr"
	"tasnim.dev/hostprep/internal/config"
	"tasnim.dev/hostprep/internal/shell"
)

// Deps are the collaborators the default steps act through.
type Deps struct {
	Exec     Commander
	Registry Registry
	// RemoveAll and Stat default to the os package.
	RemoveAll func(path string) error
	Stat      func(name string) (os.FileInfo, error)
}

// DefaultSteps returns the ten provisioning steps in their fixed order.
func DefaultSteps(cfg *config.Config, deps Deps) []Step {
	if deps.RemoveAll == nil {
		deps.RemoveAll = os.RemoveAll
	}
	if deps.Stat == nil {
		deps.Stat = os.Stat
	}
	b := &stepBuilder{cfg: cfg, deps: deps}

	return []Step{
		b.updatePackages(),
		b.installPackages(),
		b.installCLI(),
		b.removeClone(),
		b.clone(),
		b.buildImage(),
		b.createRepository(),
		b.tagImage(),
		b.registryLogin(),
		b.pushImage(),
	}
}

type stepBuilder struct {
	cfg  *config.Config
	deps Deps
}

func (b *stepBuilder) run(name string, privileged bool, args ...string) func(context.Context, *State) error {
	return func(ctx context.Context, _ *State) error {
		return b.deps.Exec.Run(ctx, shell.Command{Name: name, Args: args, Privileged: privileged})
	}
}

func (b *stepBuilder) updatePackages() Step {
	return Step{
		Name:        "update-packages",
		Description: "update OS packages",
		Run:         b.run(b.cfg.Host.PackageManager, true, "update", "-y"),
	}
}

func (b *stepBuilder) installPackages() Step {
	pkgs := b.cfg.Host.Packages
	return Step{
		Name:        "install-packages",
		Description: fmt.Sprintf("install %s", strings.Join(pkgs, ", ")),
		Run:         b.run(b.cfg.Host.PackageManager, true, append([]string{"install", "-y"}, pkgs...)...),
	}
}

func (b *stepBuilder) installCLI() Step {
	return Step{
		Name:        "install-cli",
		Description: fmt.Sprintf("install %s for the current user", b.cfg.Host.CLIPackage),
		Run:         b.run(b.cfg.Host.Pip, false, "install", b.cfg.Host.CLIPackage, "--upgrade", "--user"),
	}
}

func (b *stepBuilder) removeClone() Step {
	dir := b.cfg.Source.CloneDir
	return Step{
		Name:        "remove-clone",
		Description: fmt.Sprintf("remove previous clone %s", dir),
		Run: func(ctx context.Context, _ *State) error {
			// RemoveAll returns nil for a missing path.
			if err := b.deps.RemoveAll(dir); err != nil {
				return fmt.Errorf("removing %s: %w", dir, err)
			}
			return nil
		},
	}
}

func (b *stepBuilder) clone() Step {
	src := b.cfg.Source
	return Step{
		Name:        "clone",
		Description: fmt.Sprintf("clone branch %s of %s", src.Branch, displayURL(src.RepositoryURL)),
		Run: func(ctx context.Context, _ *State) error {
			if src.RepositoryURL == "" {
				return ErrSourceNotConfigured
			}
			return b.deps.Exec.Run(ctx, shell.Command{
				Name: "git",
				Args: []string{"clone", "--branch", src.Branch, src.RepositoryURL, src.CloneDir},
			})
		},
	}
}

func (b *stepBuilder) buildImage() Step {
	img := b.cfg.Image
	return Step{
		Name:        "build-image",
		Description: fmt.Sprintf("build image %s", img.Name),
		Run: func(ctx context.Context, _ *State) error {
			dockerfile := filepath.Join(img.BuildContext, img.Dockerfile)
			if _, err := b.deps.Stat(dockerfile); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("%w: %s", ErrMissingDockerfile, dockerfile)
				}
				return err
			}

			args := []string{"build", "-t", img.Name}
			if img.Dockerfile != "Dockerfile" {
				args = append(args, "-f", dockerfile)
			}
			args = append(args, img.BuildContext)
			return b.deps.Exec.Run(ctx, shell.Command{Name: "docker", Args: args, Privileged: true})
		},
	}
}

func (b *stepBuilder) createRepository() Step {
	name := b.cfg.Registry.RepositoryName
	return Step{
		Name:        "create-repository",
		Description: fmt.Sprintf("create ECR repository %s", name),
		Run: func(ctx context.Context, st *State) error {
			uri, err := b.deps.Registry.CreateRepository(ctx, name)
			if err != nil {
				return err
			}
			st.RepositoryURI = uri
			return nil
		},
	}
}

func (b *stepBuilder) tagImage() Step {
	img := b.cfg.Image.Name
	return Step{
		Name:        "tag-image",
		Description: fmt.Sprintf("tag image %s with the repository URI", img),
		Run: func(ctx context.Context, st *State) error {
			if st.RepositoryURI == "" {
				return ErrRepositoryURIUnavailable
			}
			return b.deps.Exec.Run(ctx, shell.Command{
				Name:       "docker",
				Args:       []string{"tag", img, st.RepositoryURI},
				Privileged: true,
			})
		},
	}
}

func (b *stepBuilder) registryLogin() Step {
	return Step{
		Name:        "registry-login",
		Description: "log in to the container registry",
		Run: func(ctx context.Context, st *State) error {
			creds, err := b.deps.Registry.Credentials(ctx)
			if err != nil {
				return err
			}
			st.Credentials = creds

			host := awsecr.RegistryHost(st.RepositoryURI)
			if host == "" {
				host = awsecr.RegistryHost(creds.Endpoint)
			}
			if host == "" {
				return ErrRepositoryURIUnavailable
			}

			return b.deps.Exec.Run(ctx, shell.Command{
				Name:       "docker",
				Args:       []string{"login", "--username", creds.Username, "--password-stdin", host},
				Privileged: true,
				Stdin:      strings.NewReader(creds.Password),
			})
		},
	}
}

func (b *stepBuilder) pushImage() Step {
	return Step{
		Name:        "push-image",
		Description: "push image to the container registry",
		Run: func(ctx context.Context, st *State) error {
			if st.RepositoryURI == "" {
				return ErrRepositoryURIUnavailable
			}
			return b.deps.Exec.Run(ctx, shell.Command{
				Name:       "docker",
				Args:       []string{"push", st.RepositoryURI},
				Privileged: true,
			})
		},
	}
}

func displayURL(url string) string {
	if url == "" {
		return "<unset>"
	}
	return url
}
