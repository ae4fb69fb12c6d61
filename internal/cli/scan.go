package cli

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jo-hoe/goclipart/internal/artwork"
	"github.com/jo-hoe/goclipart/internal/gallery"
	"github.com/spf13/cobra"
)

func newScanCmd(configPath *string) *cobra.Command {
	var decode bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the clip art found under the Activities directory",
		Example: `  # Print every candidate file
  clipart scan

  # Also report how many of them decode into thumbnails
  clipart scan --decode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			fs := osfs.New("/")
			paths := artwork.NewScanner(fs, config.ActivitiesRoot).Scan()
			out := cmd.OutOrStdout()
			for _, path := range paths {
				fmt.Fprintln(out, path)
			}

			if decode {
				g := gallery.Populate(paths, artwork.NewThumbnailDecoder(fs), config.ThumbnailSize)
				fmt.Fprintf(out, "%d of %d files decoded\n", g.Len(), len(paths))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&decode, "decode", "d", false, "Decode each file and report how many succeed")

	return cmd
}
