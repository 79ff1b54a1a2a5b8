package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"product-mockup-studio/internal/overlay"
)

func newOverlayCmd(g *globalFlags) *cobra.Command {
	var (
		productPath  string
		layoutPath   string
		outPath      string
		lang         string
		vibeElements bool
		matchBG      bool
		showContent  bool
	)

	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Add localized marketing text to a product image",
		Long: `Overlay reads the text layout of a reference design, extracts the facts printed
on the product, writes marketing copy in the target language and renders it
onto the product image.`,
		Example: `  studio overlay --product mockup.png --layout ad.jpg --lang sq -o final.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			studio, logger, err := g.setup()
			if err != nil {
				return err
			}
			product, err := readImage(productPath)
			if err != nil {
				return err
			}
			layout, err := readImage(layoutPath)
			if err != nil {
				return err
			}
			if lang == "" {
				lang = studio.Config.OverlayLanguage
			}

			p := overlay.NewPipeline(overlay.PipelineOptions{Runner: studio.Overlay, Language: lang, Logger: logger})
			if err := p.SetOptions(overlay.RenderOptions{
				Language:             lang,
				AddVibeElements:      vibeElements,
				MatchStyleBackground: matchBG,
			}); err != nil {
				return err
			}
			p.SetProduct(product)
			p.SetStyle(layout)

			runErr := p.RunAll(cmd.Context())
			snap := p.Snapshot()
			out := cmd.OutOrStdout()
			if showContent && snap.Content.Present {
				raw, err := json.MarshalIndent(snap.Content.Value, "", "  ")
				if err == nil {
					fmt.Fprintf(out, "%s\n", raw)
				}
			}
			if runErr != nil {
				return runErr
			}

			path, err := writeImage(outPath, "overlay", snap.Render.Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s (%s)\n", path, snap.Options.Language)
			return nil
		},
	}

	cmd.Flags().StringVar(&productPath, "product", "", "Image to put text on")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "Reference design whose text layout is copied")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default overlay.<ext>)")
	cmd.Flags().StringVar(&lang, "lang", "", "Target language (default OVERLAY_LANGUAGE)")
	cmd.Flags().BoolVar(&vibeElements, "vibe-elements", false, "Allow small decorative elements")
	cmd.Flags().BoolVar(&matchBG, "match-background", false, "Restyle the background to match the reference")
	cmd.Flags().BoolVar(&showContent, "print-content", false, "Print the generated text content as JSON")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("layout")

	return cmd
}
