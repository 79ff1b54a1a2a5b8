package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newModifyCmd(g *globalFlags) *cobra.Command {
	var (
		imagePath string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:     "modify <instruction>",
		Short:   "Edit an image with a text instruction",
		Example: `  studio modify --image mockup.png "make the lighting warmer" -o warmer.png`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studio, _, err := g.setup()
			if err != nil {
				return err
			}
			base, err := readImage(imagePath)
			if err != nil {
				return err
			}

			ws := studio.Sessions.Create()
			defer studio.Sessions.Delete(ws.ID)

			img, err := ws.Modify(cmd.Context(), base, strings.Join(args, " "))
			if err != nil {
				return err
			}
			path, err := writeImage(outPath, "modified", img)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Image to edit")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default modified.<ext>)")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

