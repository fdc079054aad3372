package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/service"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Show or replace a profile's power zones",
}

var zonesTOML bool

var zonesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the zones of a profile",
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

		p, err := env.Journal().Unlock(name, profilePIN)
		if err != nil {
			return fmt.Errorf("failed to open profile %q: %w", name, err)
		}
		if zonesTOML {
			// the stored set, suitable for editing and importing back
			return service.WriteZonesTOML(os.Stdout, p.Zones)
		}
		if len(p.Zones) == 0 {
			return errNoZones
		}
		printZones(p.Zones, env.cfg.Energy.DefaultEfficiency)
		return nil
	},
}

var zonesImportCmd = &cobra.Command{
	Use:   "import [file.toml]",
	Short: "Replace a profile's zones with a TOML template",
	Long: `Replace a profile's zones with a TOML template of [[zone]] tables:

  [[zone]]
  name = "Endurance"
  min_w = 180
  max_w = 220
  mean_w = 200
  eff = 0.21

Every key except name is optional. Run "energy zones show --toml" for a
starting point.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireProfile()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		defer f.Close()

		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Journal().Unlock(name, profilePIN); err != nil {
			return fmt.Errorf("failed to open profile %q: %w", name, err)
		}
		p, err := env.Profiles().ImportZonesTOML(name, f)
		if err != nil {
			return fmt.Errorf("failed to import zones: %w", err)
		}

		fmt.Printf("✅ %d zones imported into '%s'\n", len(p.Zones), p.Name)
		printZones(p.Zones, env.cfg.Energy.DefaultEfficiency)
		return nil
	},
}

var zonesDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in zone template as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.WriteZonesTOML(os.Stdout, energy.DefaultZones())
	},
}

func init() {
	zonesShowCmd.Flags().BoolVar(&zonesTOML, "toml", false, "Print as a TOML template")
	zonesCmd.AddCommand(zonesShowCmd, zonesImportCmd, zonesDefaultCmd)
	rootCmd.AddCommand(zonesCmd)
}
