package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cyclist-energy/internal/archive"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

var (
	historyCSV  bool
	historyDays int
)

// historyCmd shows a profile's diary, oldest first, with a summary.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display the energy diary of a profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireProfile()
		if err != nil {
			return err
		}
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		js := env.Journal()
		if _, err := js.Unlock(name, profilePIN); err != nil {
			return fmt.Errorf("failed to open profile %q: %w", name, err)
		}

		var entries []energy.DiaryEntry
		if historyDays > 0 {
			entries, err = js.Recent(name, historyDays)
		} else {
			entries, err = js.History(name)
		}
		if err != nil {
			return fmt.Errorf("failed to retrieve diary: %w", err)
		}

		if historyCSV {
			return archive.WriteHistoryCSV(os.Stdout, entries)
		}

		if len(entries) == 0 {
			fmt.Println("No diary entries.")
			return nil
		}

		fmt.Printf("  %s\n", cyan(fmt.Sprintf("%-12s %5s %7s %7s %9s %7s", "Date", "PAL", "BMR", "Base", "Training", "TDEE")))
		for _, e := range entries {
			fmt.Printf("  %-12s %5g %7d %7d %9d %s\n", e.Date, e.PAL, e.BMR, e.Base, e.TrainingKcal, bold(fmt.Sprintf("%7d", e.TDEE)))
		}
		fmt.Println()

		sum, err := js.Summary(name)
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

func printSummary(s service.Summary) {
	printMetric("Days logged", fmt.Sprintf("%d (%s → %s)", s.Days, s.First, s.Last))
	printMetric("Average TDEE", kcal(s.AvgTDEE))
	printMetric("Avg training", kcal(s.AvgTraining))
	printMetric("Total training", kcal(s.TotalTraining))
	printMetric("Last 7 days", kcal(s.WeekTraining)+" of training")
	printMetric("Highest TDEE", fmt.Sprintf("%s on %s", kcal(s.MaxTDEE), s.MaxTDEEDate))
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [date]",
	Short: "Delete one day from the diary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireProfile()
		if err != nil {
			return err
		}
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		js := env.Journal()
		date, err := parseDay(args[0], js.Today())
		if err != nil {
			return err
		}
		key := energy.DayKey(date)
		if err := js.DeleteEntry(name, profilePIN, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		fmt.Printf("✅ Deleted %s (%s) from '%s'\n", key, humanize.Time(date), name)
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyCSV, "csv", false, "Write date,BMR,Base,Training,TDEE as CSV to stdout")
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "Only the last N days")
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
