package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	awsclient "tasnim.dev/hostprep/internal/aws"
	"tasnim.dev/hostprep/internal/theme"
	"tasnim.dev/hostprep/internal/utils"
)

func NewImagesCmd(g *GlobalOptions) *cobra.Command {
	var repository string
	var all bool

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List images pushed to the ECR repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, profile, region, err := g.load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if repository == "" {
				repository = cfg.Registry.RepositoryName
			}

			client, err := awsclient.NewServiceClient(cmd.Context(), profile, region)
			if err != nil {
				return fmt.Errorf("initializing AWS client: %w", err)
			}
			w := cmd.OutOrStdout()

			if all {
				repos, err := client.ECR.ListRepositories(cmd.Context())
				if err != nil {
					return err
				}
				tbl := utils.NewTable(theme.HeaderStyle, 32, 16)
				tbl.Header("REPOSITORY", "CREATED", "URI")
				for _, r := range repos {
					tbl.Row(r.Name, utils.TimeOrDash(r.CreatedAt, utils.DateTime), r.URI)
				}
				fmt.Fprint(w, tbl.String())
				fmt.Fprintln(w)
			}

			images, err := client.ECR.ListImages(cmd.Context(), repository)
			if err != nil {
				return err
			}
			if len(images) == 0 {
				fmt.Fprintln(w, theme.MutedStyle.Render("no images in "+repository))
				return nil
			}

			tbl := utils.NewTable(theme.HeaderStyle, 24, 20, 10)
			tbl.Header("TAGS", "DIGEST", "SIZE", "PUSHED")
			for _, img := range images {
				tags := strings.Join(img.Tags, ",")
				if tags == "" {
					tags = "<untagged>"
				}
				tbl.Row(tags, img.Digest, fmt.Sprintf("%.1f MB", img.SizeMB), utils.TimeOrDash(img.PushedAt, utils.DateTime))
			}
			fmt.Fprint(w, tbl.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&repository, "repository", "", "repository name (default from config)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "also list every repository in the region")

	return cmd
}
