package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/engine"
	"github.com/rleal/face-attendance/internal/enroll"
	"github.com/rleal/face-attendance/internal/gallery"
	"github.com/rleal/face-attendance/internal/recognition"
	"github.com/rleal/face-attendance/internal/web"
	"github.com/rleal/face-attendance/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the Face Attendance web server.
The server exposes the recognition, enrollment, user and event APIs
consumed by the kiosk frontend.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// buildDedupIndex loads all enrolled vectors into the in-memory
// duplicate-identity index.
func buildDedupIndex(ctx context.Context, store gallery.Reader) *gallery.DedupIndex {
	dedup := gallery.NewDedupIndex()
	entries, err := store.ListActive(ctx, "")
	if err != nil {
		fmt.Printf("Warning: failed to load gallery for duplicate detection: %v\n", err)
		return dedup
	}
	dedup.Build(entries)
	fmt.Printf("Duplicate-identity index built with %d vectors\n", dedup.Len())
	return dedup
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Printf("Connecting to PostgreSQL database...\n")
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

	loop := recognition.NewLoop(opener, embedder, cfg.Recognition.Deadline)
	recognizer := recognition.NewService(
		loop, store, newConfirmer(cfg),
		cfg.Recognition.MatchThreshold, cfg.Recognition.VerifyThreshold,
	)

	tracker := enroll.NewTracker()
	session := enroll.NewSession(opener, embedder, tracker, cfg.Capture)
	dedup := buildDedupIndex(context.Background(), store)

	// New enrollment closer than this cosine distance to another person
	// is flagged as a likely duplicate.
	dedupMaxDistance := 1 - cfg.Recognition.StrictThreshold

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(host, port, web.Handlers{
		Recognize:  handlers.NewRecognizeHandler(recognizer),
		Enroll:     handlers.NewEnrollHandler(session, tracker, store, dedup, dedupMaxDistance),
		Users:      handlers.NewUsersHandler(store),
		Events:     handlers.NewEventsHandler(store),
		Attendance: handlers.NewAttendanceHandler(store),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
