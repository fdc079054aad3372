package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"cyclist-energy/internal/energy"
)

var (
	rmrSex     string
	rmrWeight  float64
	rmrHeight  float64
	rmrAge     int
	rmrFormula string
	rmrPAL     float64
)

// rmrCmd is a one-off calculator that needs no profile or database.
var rmrCmd = &cobra.Command{
	Use:   "rmr",
	Short: "Estimate resting metabolic rate from sex, weight, height and age",
	Example: `  energy rmr --sex M --weight 70 --height 175 --age 30
  energy rmr --sex F --weight 58 --height 165 --age 42 --formula mifflin --pal 1.5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sex energy.Sex
		switch strings.ToUpper(strings.TrimSpace(rmrSex)) {
		case "M", "MALE":
			sex = energy.SexMale
		case "F", "FEMALE":
			sex = energy.SexFemale
		default:
			return fmt.Errorf("--sex must be M or F, got %q", rmrSex)
		}

		var formulas []energy.Formula
		if cmd.Flags().Changed("formula") {
			f, err := energy.ParseFormula(rmrFormula)
			if err != nil {
				return err
			}
			formulas = []energy.Formula{f}
		} else {
			formulas = []energy.Formula{energy.FormulaTenHaaf, energy.FormulaMifflin}
		}
		if rmrPAL != 0 && !energy.ValidPAL(rmrPAL) {
			return fmt.Errorf("--pal must be one of the levels listed by: energy profile pal")
		}

		for _, f := range formulas {
			rmr := energy.EstimateRMR(f, sex, rmrWeight, rmrHeight, rmrAge)
			line := fmt.Sprintf("%.1f kcal/day", rmr)
			if rmrPAL != 0 {
				line += fmt.Sprintf(", base %s at PAL %g", kcal(int(math.Round(rmr*rmrPAL))), rmrPAL)
			}
			printMetric(f.Label(), green(line))
		}
		return nil
	},
}

func init() {
	f := rmrCmd.Flags()
	f.StringVar(&rmrSex, "sex", "M", "M or F")
	f.Float64Var(&rmrWeight, "weight", 70, "Weight in kg")
	f.Float64Var(&rmrHeight, "height", 175, "Height in cm")
	f.IntVar(&rmrAge, "age", energy.DefaultAge, "Age in years")
	f.StringVar(&rmrFormula, "formula", "", "tenhaaf or mifflin (default: both)")
	f.Float64Var(&rmrPAL, "pal", 0, "Also show BMR × PAL")
	rootCmd.AddCommand(rmrCmd)
}
