package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cyclist-energy/internal/archive"
)

var transferDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all profiles and diaries to profiles.json and diary.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		dir, err := transferTarget(env)
		if err != nil {
			return err
		}
		res, err := archive.Export(env.db, dir)
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		fmt.Printf("✅ Exported %d profiles and %d diary entries to %s %s\n",
			res.Profiles, res.Entries, dir, faint("(batch "+res.BatchID+")"))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load profiles.json and diary.json, replacing records with the same name and date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		dir, err := transferTarget(env)
		if err != nil {
			return err
		}
		res, err := archive.Import(env.db, dir)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}
		fmt.Printf("✅ Imported %d profiles and %d diary entries from %s %s\n",
			res.Profiles, res.Entries, dir, faint("(batch "+res.BatchID+")"))
		for _, s := range res.Skipped {
			fmt.Printf("  %s %s\n", yellow("skipped"), s)
		}
		return nil
	},
}

func transferTarget(env *env) (string, error) {
	if transferDir != "" {
		return transferDir, nil
	}
	return env.cfg.DataDir()
}

func init() {
	exportCmd.Flags().StringVar(&transferDir, "dir", "", "Directory for the JSON files (default: storage.data_dir)")
	importCmd.Flags().StringVar(&transferDir, "dir", "", "Directory for the JSON files (default: storage.data_dir)")
	rootCmd.AddCommand(exportCmd, importCmd)
}
