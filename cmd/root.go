package cmd

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"tasnim.dev/hostprep/internal/config"
	"tasnim.dev/hostprep/internal/constants"
)

// GlobalOptions are the persistent flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	Profile    string
	Region     string
	Verbose    bool
}

// BindGlobalFlags registers the persistent flags on root.
func BindGlobalFlags(root *cobra.Command) *GlobalOptions {
	g := &GlobalOptions{}
	flags := root.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "config file (default ~/.config/hostprep/config.yaml)")
	flags.StringVarP(&g.Profile, "profile", "p", "", "AWS profile to use")
	flags.StringVarP(&g.Region, "region", "r", "", "AWS region to use")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "log every command before it runs")
	return g
}

// load reads the config file and returns it with the effective profile and region.
func (g *GlobalOptions) load() (*config.Config, string, string, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, "", "", err
	}
	profile, region := cfg.Merge(g.Profile, g.Region)
	return cfg, profile, region, nil
}

func (g *GlobalOptions) logger(w io.Writer) *log.Logger {
	level := log.InfoLevel
	if g.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          constants.AppName,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}
