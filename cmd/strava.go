package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cyclist-energy/internal/auth"
	"cyclist-energy/internal/config"
	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
	"cyclist-energy/internal/store"
)

var stravaCmd = &cobra.Command{
	Use:   "strava",
	Short: "Connect Strava and turn power files into journal minutes",
}

var loginPort int

var stravaLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize read access to your Strava rides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if !env.cfg.HasStrava() {
			configDir, _ := config.GetConfigDir()
			return fmt.Errorf("add strava.client_id and strava.client_secret to %s/config.json first", configDir)
		}

		sc := env.stravaConfig()
		sc.CallbackPort = loginPort
		grant, err := auth.Login(cmd.Context(), auth.NewOAuthConfig(sc), loginPort, os.Stdout)
		if err != nil {
			return fmt.Errorf("authentication: %w", err)
		}

		stored := &store.Auth{
			AthleteID:    grant.AthleteID,
			AccessToken:  grant.Token.AccessToken,
			RefreshToken: grant.Token.RefreshToken,
			ExpiresAt:    grant.Token.Expiry,
		}
		if err := env.db.SaveAuth(stored); err != nil {
			return fmt.Errorf("saving auth: %w", err)
		}

		fmt.Println()
		fmt.Printf("✅ Successfully authenticated as athlete %d!\n", grant.AthleteID)
		return nil
	},
}

var stravaLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored Strava tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.db.DeleteAuth(); err != nil {
			return err
		}
		fmt.Println("✅ Strava tokens removed")
		return nil
	},
}

var ridesLimit int

var stravaRidesCmd = &cobra.Command{
	Use:   "rides",
	Short: "List your latest rides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		rs, err := env.Rides(cmd.Context())
		if err != nil {
			return err
		}
		rides, err := rs.RecentRides(cmd.Context(), ridesLimit)
		if err != nil {
			return fmt.Errorf("failed to list rides: %w", err)
		}
		last, _ := rs.LastImported()

		if len(rides) == 0 {
			fmt.Println("No rides found.")
			return nil
		}
		fmt.Printf("  %s\n", cyan(fmt.Sprintf("%-12s %-12s %-30s %9s %7s %6s", "ID", "Date", "Name", "Distance", "Time", "Avg W")))
		for _, a := range rides {
			avg := "-"
			if a.AverageWatts > 0 {
				avg = fmt.Sprintf("%.0f", a.AverageWatts)
			}
			mark := ""
			if a.ID == last {
				mark = " " + yellow("(last imported)")
			}
			fmt.Printf("  %-12d %-12s %s %9s %7s %6s%s\n",
				a.ID, a.Day(), padRight(truncate(a.Name, 30), 30),
				humanize.FtoaWithDigits(a.Distance/1000, 1)+" km",
				fmt.Sprintf("%d:%02d", a.MovingTime/3600, a.MovingTime%3600/60), avg, mark)
		}
		return nil
	},
}

var (
	importAdd    bool
	importDryRun bool
)

var stravaImportCmd = &cobra.Command{
	Use:   "import [activity-id]",
	Short: "Split a ride's power stream into the profile's zones and log it",
	Long: `Split a ride's power stream into the profile's zones and record the
result on the ride's date. Minutes are added to whatever is already logged
that day; pass --add=false to overwrite the day instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireProfile()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return errors.New("activity id must be a positive integer")
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
		rs, err := env.Rides(cmd.Context())
		if err != nil {
			return err
		}

		ride, err := rs.ImportRide(cmd.Context(), p, id)
		if err != nil {
			return fmt.Errorf("failed to import ride: %w", err)
		}

		fmt.Printf("%s %s %s\n\n", magenta(ride.Activity.Name), cyan(energy.DayKey(ride.Date)), faint(fmt.Sprintf("(%d)", ride.Activity.ID)))
		for _, zt := range ride.Zones {
			fmt.Printf("  %s %4d:%02d  %6.1f W\n", padRight(truncate(zt.Zone, 22), 22), zt.Seconds/60, zt.Seconds%60, zt.MeanW)
		}
		fmt.Println()

		in := ride.Input
		if importAdd {
			day, _, err := js.Day(p.Name, ride.Date)
			if err != nil {
				return err
			}
			in = service.MergeInputs(day, ride.Input)
		}

		if importDryRun {
			res, err := js.Preview(p, in, ride.Date)
			if err != nil {
				return err
			}
			printDay(res)
			fmt.Println(faint("\n  dry run, nothing saved"))
			return nil
		}
		res, err := js.Record(p, in, ride.Date)
		if err != nil {
			return fmt.Errorf("failed to record day: %w", err)
		}
		if err := rs.MarkImported(ride.Activity.ID); err != nil {
			return err
		}
		printDay(res)
		return nil
	},
}

func init() {
	stravaLoginCmd.Flags().IntVar(&loginPort, "port", auth.CallbackPort, "Local port for the OAuth callback")
	stravaRidesCmd.Flags().IntVarP(&ridesLimit, "limit", "n", service.RecentRidesLimit, "Number of rides")

	stravaImportCmd.Flags().BoolVar(&importAdd, "add", true, "Add to the minutes already logged that day")
	stravaImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show the estimate without saving")

	stravaCmd.AddCommand(stravaLoginCmd, stravaLogoutCmd, stravaRidesCmd, stravaImportCmd)
	rootCmd.AddCommand(stravaCmd)
}
