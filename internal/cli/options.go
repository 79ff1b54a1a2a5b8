package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"product-mockup-studio/internal/catalog"
)

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options [option]",
		Short: "List photographic options and their allowed values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				opt, ok := cat.Option(args[0])
				if !ok {
					return fmt.Errorf("unknown option %q (known: %s)", args[0], strings.Join(catalog.Fields, ", "))
				}
				fmt.Fprintf(out, "%s (%s), default %q\n", opt.Label, opt.Field, opt.Default)
				for _, v := range opt.Values {
					fmt.Fprintf(out, "  %s\n", v)
				}
				return nil
			}

			for _, opt := range cat.Options() {
				fmt.Fprintf(out, "%-20s %s [default: %s]\n", opt.Field, opt.Label, opt.Default)
			}
			return nil
		},
	}
}
