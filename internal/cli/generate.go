package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"product-mockup-studio/internal/session"
)

func newGenerateCmd(g *globalFlags) *cobra.Command {
	var (
		productPath string
		stylePath   string
		outPath     string
		useStyle    bool
		matchVibe   bool
		png         bool
		showPrompt  bool
		options     map[string]string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a studio mockup of a product photo",
		Example: `  studio generate --product bottle.jpg --set surface="light oak" -o mockup.png
  studio generate --product bottle.jpg --style ad.jpg --use-style --vibe --png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			studio, logger, err := g.setup()
			if err != nil {
				return err
			}
			product, err := readImage(productPath)
			if err != nil {
				return err
			}
			style, err := readOptionalImage(stylePath)
			if err != nil {
				return err
			}

			ws := studio.Sessions.Create()
			defer studio.Sessions.Delete(ws.ID)

			if err := ws.UpdateSettings(session.SettingsPatch{
				UseStyleReference: &useStyle,
				MatchProductVibe:  &matchVibe,
				OutputPNG:         &png,
				Options:           options,
			}); err != nil {
				return err
			}
			ws.SetProduct(product)
			ws.SetStyle(style)
			if err := ws.AwaitAnalyses(cmd.Context()); err != nil {
				return err
			}

			img, gen, err := ws.Generate(cmd.Context())
			out := cmd.OutOrStdout()
			if gen != nil {
				if showPrompt {
					fmt.Fprintf(out, "%s\n\n%s\n\n", gen.Prompt, gen.Summary)
				}
				if gen.ExtractedText != "" {
					fmt.Fprintf(out, "Label text:\n%s\n\n", gen.ExtractedText)
				}
				if gen.ExtractionError != "" {
					logger.Warn("label extraction failed", "err", gen.ExtractionError)
				}
			}
			if err != nil {
				return err
			}

			path, err := writeImage(outPath, "mockup", img)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&productPath, "product", "", "Product photo")
	cmd.Flags().StringVar(&stylePath, "style", "", "Style reference image")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default mockup.<ext>)")
	cmd.Flags().BoolVar(&useStyle, "use-style", false, "Follow the style reference")
	cmd.Flags().BoolVar(&matchVibe, "vibe", false, "Match the product vibe (needs --use-style)")
	cmd.Flags().BoolVar(&png, "png", false, "Ask for a transparent PNG")
	cmd.Flags().BoolVar(&showPrompt, "print-prompt", false, "Print the prompt and settings summary")
	cmd.Flags().StringToStringVar(&options, "set", nil, "Photographic options as option=value (see studio options)")
	_ = cmd.MarkFlagRequired("product")

	return cmd
}
