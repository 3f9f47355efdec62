package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tasnim.dev/hostprep/internal/constants"
)

// Config holds provisioning settings loaded from ~/.config/hostprep/config.yaml.
type Config struct {
	DefaultProfile string `yaml:"default_profile"`
	DefaultRegion  string `yaml:"default_region"`

	Host     HostConfig     `yaml:"host"`
	Source   SourceConfig   `yaml:"source"`
	Image    ImageConfig    `yaml:"image"`
	Registry RegistryConfig `yaml:"registry"`
	Journal  JournalConfig  `yaml:"journal"`
	Report   ReportConfig   `yaml:"report"`
}

type HostConfig struct {
	PackageManager string   `yaml:"package_manager"`
	Packages       []string `yaml:"packages"`
	Pip            string   `yaml:"pip"`
	CLIPackage     string   `yaml:"cli_package"`
	UseSudo        *bool    `yaml:"use_sudo"`
}

type SourceConfig struct {
	RepositoryURL string `yaml:"repository_url"`
	Branch        string `yaml:"branch"`
	CloneDir      string `yaml:"clone_dir"`
}

type ImageConfig struct {
	Name         string `yaml:"name"`
	BuildContext string `yaml:"build_context"`
	Dockerfile   string `yaml:"dockerfile"`
}

type RegistryConfig struct {
	RepositoryName string `yaml:"repository_name"`
	// Mode is "sdk" (structured ECR API responses) or "cli" (aws CLI text output).
	Mode          string `yaml:"mode"`
	ReuseExisting bool   `yaml:"reuse_existing"`
}

type JournalConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

type ReportConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
}

// DefaultPath returns ~/.config/hostprep/config.yaml, or "" when the home
// directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", constants.AppName, "config.yaml")
}

// Load reads the config file at path, falling back to DefaultPath when path
// is empty. A missing file yields the built-in defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host.PackageManager == "" {
		c.Host.PackageManager = "yum"
	}
	if len(c.Host.Packages) == 0 {
		c.Host.Packages = []string{"docker", "git"}
	}
	if c.Host.Pip == "" {
		c.Host.Pip = "pip3"
	}
	if c.Host.CLIPackage == "" {
		c.Host.CLIPackage = "awscli"
	}
	if c.Host.UseSudo == nil {
		sudo := true
		c.Host.UseSudo = &sudo
	}
	if c.Source.Branch == "" {
		c.Source.Branch = constants.DefaultBranch
	}
	if c.Source.CloneDir == "" {
		c.Source.CloneDir = constants.DefaultCloneDir
	}
	if c.Image.Name == "" {
		c.Image.Name = constants.DefaultImageName
	}
	if c.Image.BuildContext == "" {
		c.Image.BuildContext = "."
	}
	if c.Image.Dockerfile == "" {
		c.Image.Dockerfile = "Dockerfile"
	}
	if c.Registry.RepositoryName == "" {
		c.Registry.RepositoryName = constants.DefaultRepositoryName
	}
	if c.Registry.Mode == "" {
		c.Registry.Mode = constants.RegistryModeSDK
	}
	if c.Journal.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Journal.Path = filepath.Join(home, ".local", "state", constants.AppName, "journal.db")
		}
	}
}

// Sudo reports whether privileged commands run through sudo.
func (c *Config) Sudo() bool {
	return c.Host.UseSudo == nil || *c.Host.UseSudo
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// MergeSource applies --repo-url and --branch overrides in place.
func (c *Config) MergeSource(repoURL, branch string) {
	if repoURL != "" {
		c.Source.RepositoryURL = repoURL
	}
	if branch != "" {
		c.Source.Branch = branch
	}
}
