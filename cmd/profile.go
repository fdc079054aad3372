package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "List, show and edit cyclist profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		names, err := env.Profiles().List()
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("No profiles yet. Create one with: energy profile create NAME")
			return nil
		}
		for _, name := range names {
			p, err := env.db.GetProfile(name)
			if err != nil {
				return err
			}
			lock := ""
			if p.HasPIN() {
				lock = " " + yellow("(PIN)")
			}
			fmt.Printf("  • %s%s %s\n", magenta(name), lock, faint(fmt.Sprintf("PAL %g, %d zones", p.PAL, len(p.Zones))))
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile with its BMR and zones",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := profileArg(args)
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
		printProfile(p, js.Today(), env.cfg.Energy.DefaultEfficiency)
		return nil
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a profile with default data and zones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ps := env.Profiles()
		p, err := ps.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		if newPIN != "" {
			if p, err = ps.SetPIN(p.Name, "", newPIN); err != nil {
				return err
			}
		}
		fmt.Printf("✅ Profile '%s' created. Set your data with: energy profile set -p '%s' --weight 70 --height 175\n", p.Name, p.Name)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a profile, its zones and its whole diary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := profileArg(args)
		if err != nil {
			return err
		}
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Journal().DeleteProfile(name, profilePIN); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		fmt.Printf("✅ Profile '%s' deleted\n", name)
		return nil
	},
}

var (
	setSex     string
	setBirth   string
	setHeight  float64
	setWeight  float64
	setBMR     string
	setPAL     float64
	setFormula string
	newPIN     string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change profile data (only the flags given are changed)",
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
		p, err := js.Unlock(name, profilePIN)
		if err != nil {
			return fmt.Errorf("failed to open profile %q: %w", name, err)
		}
		if err := applyProfileFlags(cmd, &p); err != nil {
			return err
		}

		ps := env.Profiles()
		if p, err = ps.Update(p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		if cmd.Flags().Changed("new-pin") {
			if p, err = ps.SetPIN(name, profilePIN, newPIN); err != nil {
				return fmt.Errorf("failed to change PIN: %w", err)
			}
		}

		printProfile(p, js.Today(), env.cfg.Energy.DefaultEfficiency)
		return nil
	},
}

// applyProfileFlags copies the flags the user actually passed onto p
func applyProfileFlags(cmd *cobra.Command, p *energy.Profile) error {
	flags := cmd.Flags()
	if flags.Changed("sex") {
		switch strings.ToUpper(strings.TrimSpace(setSex)) {
		case "M", "MALE":
			p.Sex = energy.SexMale
		case "F", "FEMALE":
			p.Sex = energy.SexFemale
		default:
			return fmt.Errorf("--sex must be M or F, got %q", setSex)
		}
	}
	if flags.Changed("birth") {
		if setBirth == "" || strings.EqualFold(setBirth, "none") {
			p.Birth = time.Time{}
		} else {
			t, err := time.Parse(energy.DateLayout, setBirth)
			if err != nil {
				return fmt.Errorf("--birth must be YYYY-MM-DD, got %q", setBirth)
			}
			p.Birth = t
		}
	}
	if flags.Changed("height") {
		p.HeightCm = setHeight
	}
	if flags.Changed("weight") {
		p.WeightKg = setWeight
	}
	if flags.Changed("bmr") {
		v, err := parseOptionalFloat(setBMR)
		if err != nil {
			return fmt.Errorf("--bmr: %w", err)
		}
		p.BMRManual = v
	}
	if flags.Changed("pal") {
		if !energy.ValidPAL(setPAL) {
			return service.ErrInvalidPAL
		}
		p.PAL = setPAL
	}
	if flags.Changed("formula") {
		f, err := energy.ParseFormula(setFormula)
		if err != nil {
			return err
		}
		p.Formula = f
	}
	return nil
}

// profileArg takes the profile from a positional argument or --profile
func profileArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return requireProfile()
}

var palLevelsCmd = &cobra.Command{
	Use:   "pal",
	Short: "List the accepted PAL values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, l := range energy.PALLevels {
			fmt.Printf("  %s  %s\n", bold(strconv.FormatFloat(l.Value, 'f', -1, 64)), l.Label)
		}
		return nil
	},
}

func init() {
	profileCreateCmd.Flags().StringVar(&newPIN, "new-pin", "", "Protect the profile with a 4-digit PIN")

	f := profileSetCmd.Flags()
	f.StringVar(&setSex, "sex", "", "M or F")
	f.StringVar(&setBirth, "birth", "", "Birth date YYYY-MM-DD (none clears)")
	f.Float64Var(&setHeight, "height", 0, "Height in cm")
	f.Float64Var(&setWeight, "weight", 0, "Weight in kg")
	f.StringVar(&setBMR, "bmr", "", "Manual BMR in kcal (none uses the formula)")
	f.Float64Var(&setPAL, "pal", 0, "Default physical activity level")
	f.StringVar(&setFormula, "formula", "", "RMR formula: tenhaaf or mifflin")
	f.StringVar(&newPIN, "new-pin", "", "New 4-digit PIN (empty removes it)")

	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileCreateCmd, profileDeleteCmd, profileSetCmd, palLevelsCmd)
	rootCmd.AddCommand(profileCmd)
}

var errNoZones = errors.New("profile has no zones")
