package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

var (
	logDate    string
	logPAL     float64
	logMinutes []string
	logWatts   []string
	logDryRun  bool
	logKeep    bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a day: minutes per zone, optional power per zone, PAL",
	Example: `  energy log -p Alice --min Endurance=90 --min Tempo=20
  energy log -p Alice --date 2024-06-01 --pal 1.5 --min "RE Génération=60" --watts "RE Génération=205"
  energy log -p Alice --dry-run --min Threshold=30`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireProfile()
		if err != nil {
			return err
		}
		minutes, err := parseZoneMinutes(logMinutes)
		if err != nil {
			return err
		}
		watts, err := parseZoneWatts(logWatts)
		if err != nil {
			return err
		}

		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		js := env.Journal()
		p, err := js.Unlock(name, profilePIN)
		if err != nil {
			return fmt.Errorf("failed to open profile %q: %w", name, err)
		}
		date, err := parseDay(logDate, js.Today())
		if err != nil {
			return err
		}

		zones := energy.EnsureFullRecovery(p.Zones)
		if minutes, err = resolveZoneNames(zones, minutes, sumMinutes); err != nil {
			return err
		}
		if watts, err = resolveZoneNames(zones, watts, singlePower); err != nil {
			return err
		}

		in := energy.DayInput{PAL: logPAL, Minutes: minutes, WattOverrides: watts}
		if logKeep {
			day, _, err := js.Day(name, date)
			if err != nil {
				return err
			}
			in = service.MergeInputs(day, in)
			if logPAL != 0 {
				in.PAL = logPAL
			}
		}

		fmt.Printf("%s %s\n\n", magenta(p.Name), cyan(energy.DayKey(date)))
		if logDryRun {
			res, err := js.Preview(p, in, date)
			if err != nil {
				return err
			}
			printDay(res)
			fmt.Println(faint("\n  dry run, nothing saved"))
			return nil
		}

		res, err := js.Record(p, in, date)
		if err != nil {
			return fmt.Errorf("failed to record day: %w", err)
		}
		printDay(res)
		return nil
	},
}

func init() {
	f := logCmd.Flags()
	f.StringVar(&logDate, "date", "", "Day to record (YYYY-MM-DD, today, yesterday)")
	f.Float64Var(&logPAL, "pal", 0, "PAL for the day (default: the profile's)")
	f.StringArrayVar(&logMinutes, "min", nil, "Minutes in a zone, ZONE=MIN (repeatable)")
	f.StringArrayVar(&logWatts, "watts", nil, "Mean power in a zone for this day, ZONE=W (repeatable)")
	f.BoolVar(&logDryRun, "dry-run", false, "Show the estimate without saving")
	f.BoolVar(&logKeep, "add", false, "Add to the minutes already logged that day instead of replacing them")
	rootCmd.AddCommand(logCmd)
}
