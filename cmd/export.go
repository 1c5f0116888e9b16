package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lattice/internal/blueprint"
	"lattice/internal/config"
	"lattice/internal/export"
	"lattice/internal/scale"
	"lattice/internal/state"
)

func exportCmd() *cobra.Command {
	var (
		out      string
		imgScale float64
	)
	cmd := &cobra.Command{
		Use:   "export <board.json>",
		Short: "Render a board to a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := newLogger(cfg, false)

			bp, err := blueprint.Load(args[0])
			if err != nil {
				bad.Fprintf(os.Stderr, "lattice: %v\n", err)
				return err
			}
			st := state.NewStore(log)
			blueprint.Apply(bp, st)

			if out == "" {
				out = strings.TrimSuffix(args[0], ".json") + ".png"
			}
			if imgScale == 0 {
				imgScale = cfg.Export.Scale
			}
			calc := scale.NewCalculator(scale.DefaultMeasurer(log))
			opts := export.Options{Scale: imgScale, Background: cfg.Export.Background}
			if err := export.ToPNG(out, st.Snapshot(), calc, opts); err != nil {
				bad.Fprintf(os.Stderr, "lattice: %v\n", err)
				return err
			}
			good.Printf("wrote %s\n", out)
			subtle.Printf("  %d nodes, %d connections\n", st.Len(), len(st.Connections()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: board name with .png)")
	cmd.Flags().Float64Var(&imgScale, "scale", 0, "pixels per world unit")
	return cmd
}
