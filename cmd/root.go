package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Biometric attendance service for institutional events",
	Long: `Face Attendance registers event attendance by matching a live camera
feed against a gallery of enrolled facial embeddings. Enrollment captures
several frames per person and averages them into one robust reference
vector; recognition runs a time-bounded loop against the gallery and asks
a touch-screen device for confirmation before committing.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
