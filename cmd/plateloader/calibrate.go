package main

import (
	"fmt"
	"math"

	"github.com/fatih/color"
	"github.com/mastercactapus/plateloader/plate"
	"github.com/spf13/cobra"
)

func calibrateCmd(cfgPath *string) *cobra.Command {
	var well string

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Show the calibrated well positions",
		Long: `Computes the rotation-corrected plate grid from the measured first and
last wells in the config file and prints every well position.

Examples:
  plateloader calibrate            # print all 96 wells
  plateloader calibrate --well H12 # print a single well`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *cfgPath)
			if err != nil {
				return err
			}
			layout, err := cfg.Layout()
			if err != nil {
				return err
			}

			cos, sin := layout.Rotation()
			major, minor := layout.Basis()
			fmt.Printf("rotation:    %.4f deg\n", math.Atan2(sin, cos)*180/math.Pi)
			fmt.Printf("major basis: (%.4f, %.4f)\n", major.X, major.Y)
			fmt.Printf("minor basis: (%.4f, %.4f)\n", minor.X, minor.Y)
			if w := layout.Warning(); w != nil {
				fmt.Printf("%s %v\n", color.New(color.FgYellow).Sprint("WARNING"), w)
			} else {
				fmt.Printf("diagonal:    %s\n", color.New(color.FgGreen).Sprint("OK"))
			}
			fmt.Println()

			wells := make([]plate.Well, 0, plate.Count)
			if well != "" {
				w, err := plate.ParseWell(well)
				if err != nil {
					return err
				}
				wells = append(wells, w)
			} else {
				for i := plate.Well(0); i < plate.Count; i++ {
					wells = append(wells, i)
				}
			}

			name := color.New(color.FgCyan)
			for _, w := range wells {
				p, err := layout.WellPosition(w)
				if err != nil {
					return err
				}
				fmt.Printf("%s  %3d  X%9.3f  Y%9.3f  Z%8.3f\n", name.Sprintf("%-3s", w.Name()), int(w), p.X, p.Y, p.Z)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&well, "well", "", "Only print this well (name or index).")
	return cmd
}
