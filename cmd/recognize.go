package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/recognition"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run one live recognition pass",
	Long: `Sample frames from the camera for the configured deadline and rank
them against the enrolled gallery. With --event, a confirmed match
registers attendance; with --dry-run, the match is only reported.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("event", "", "Event ID to register attendance against")
	recognizeCmd.Flags().String("shift", "", "Restrict the gallery to one shift (D or V)")
	recognizeCmd.Flags().Bool("dry-run", false, "Match without writing attendance")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	eventID := mustGetString(cmd, "event")
	dryRun := mustGetBool(cmd, "dry-run")
	if eventID == "" && !dryRun {
		return fmt.Errorf("either --event or --dry-run is required")
	}

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
	resp, err := service.Recognize(context.Background(), recognition.Request{
		EventID: eventID,
		Shift:   mustGetString(cmd, "shift"),
		DryRun:  dryRun,
	})
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	switch resp.State {
	case recognition.StateConnectFailed:
		return fmt.Errorf("camera unavailable")
	case recognition.StateExhausted:
		fmt.Printf("No match (best similarity %.3f over %d entries, %d frames)\n",
			resp.Similarity, resp.TotalCompared, resp.FramesSampled)
	case recognition.StateConfirmed:
		fmt.Printf("Matched %s (%s), similarity %.3f\n", resp.Name, resp.RUT, resp.Similarity)
		if resp.Device != "" {
			fmt.Printf("Device: %s\n", resp.Device)
		}
		if resp.Attendance != "" {
			fmt.Printf("Attendance: %s\n", resp.Attendance)
		}
	}
	return nil
}
