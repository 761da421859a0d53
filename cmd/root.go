package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/daruyar/daruyar_backend/cmd/http"
	systemcmd "github.com/daruyar/daruyar_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "daruyar",
	Short: "Daruyar medication management backend.",
	Long: `Daruyar is a medication management backend for patients and their families.
It tracks medicines, dosage schedules, intakes, vitals and appointments, and
lets family members share the care of a patient from a single deployment.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
