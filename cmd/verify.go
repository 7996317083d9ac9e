package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/recognition"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify one identity against the camera",
	Long: `Run a 1:1 check: capture from the camera and compare against the
reference vector of a single enrolled person. Uses the stricter
verification threshold and never writes attendance.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("rut", "", "RUT of the person to verify (required)")
	verifyCmd.MarkFlagRequired("rut")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	rut := gallery.NormalizeRUT(mustGetString(cmd, "rut"))

	pool, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	service, err := newRecognitionService(cfg, store)
	if err != nil {
		return err
	}

	fmt.Println("Look at the camera...")
	resp, err := service.Recognize(context.Background(), recognition.Request{VerifyRUT: rut})
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if resp.Matched {
		fmt.Printf("Verified %s (%s), similarity %.3f\n", resp.Name, resp.RUT, resp.Similarity)
	} else {
		fmt.Printf("NOT verified (similarity %.3f, %d frames)\n", resp.Similarity, resp.FramesSampled)
	}
	return nil
}
