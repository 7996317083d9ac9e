package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/engine"
	"github.com/rleal/face-attendance/internal/enroll"
	"github.com/rleal/face-attendance/internal/gallery"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a person from the camera",
	Long: `Capture frames from the configured camera, aggregate the face
embeddings into one reference vector, and store the enrollment.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("rut", "", "RUT of the person (required)")
	enrollCmd.Flags().String("name", "", "Full name (required)")
	enrollCmd.Flags().String("career", "", "Career")
	enrollCmd.Flags().String("shift", gallery.ShiftDay, "Shift: D (day) or V (evening)")
	enrollCmd.MarkFlagRequired("rut")
	enrollCmd.MarkFlagRequired("name")
}

// watchProgress mirrors the capture tracker onto a terminal progress bar
// until done is closed.
func watchProgress(tracker *enroll.Tracker, done <-chan struct{}) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Capturing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var started bool
	for {
		select {
		case <-done:
			bar.Finish()
			return
		case <-ticker.C:
			snap := tracker.Snapshot()
			if snap.Total > 0 && !started {
				bar.ChangeMax(snap.Total)
				started = true
			}
			bar.Set(snap.Current)
		}
	}
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	rut := gallery.NormalizeRUT(mustGetString(cmd, "rut"))
	name := gallery.NormalizeName(mustGetString(cmd, "name"))
	career := mustGetString(cmd, "career")
	shift := mustGetString(cmd, "shift")
	if rut == "" || name == "" {
		return fmt.Errorf("rut and name are required")
	}
	if shift != gallery.ShiftDay && shift != gallery.ShiftEvening {
		return fmt.Errorf("shift must be %s or %s", gallery.ShiftDay, gallery.ShiftEvening)
	}

	pool, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	opener, err := newVideoOpener(cfg)
	if err != nil {
		return err
	}
	embedder := engine.NewClient(cfg.Engine.URL, cfg.Engine.Dim)

	tracker := enroll.NewTracker()
	session := enroll.NewSession(opener, embedder, tracker, cfg.Capture)

	fmt.Printf("Enrolling %s (%s), look at the camera...\n", name, rut)

	done := make(chan struct{})
	go watchProgress(tracker, done)

	ctx := context.Background()
	result, err := session.Run(ctx)
	close(done)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	entry := gallery.Entry{
		RUT:    rut,
		Name:   name,
		Career: career,
		Shift:  shift,
		Active: true,
	}
	if err := store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	if err := store.SetReferenceVector(ctx, rut, result.ReferenceVector, result.ProfileFrame); err != nil {
		return fmt.Errorf("saving enrollment: %w", err)
	}

	fmt.Printf("\nEnrolled %s with %d samples\n", rut, result.SamplesUsed)
	return nil
}
