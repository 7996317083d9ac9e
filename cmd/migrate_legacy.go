package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/engine"
	"github.com/rleal/face-attendance/internal/gallery"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Data migrations",
}

var migrateLegacyCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Import users from the legacy MySQL database",
	Long: `Import users from the legacy attendance system. Rows carrying a
stored face vector are imported as-is; rows with only a profile photo
are re-embedded through the engine. Rows with neither are imported
unenrolled.`,
	RunE: runMigrateLegacy,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateLegacyCmd)

	migrateLegacyCmd.Flags().Bool("re-embed", true, "Re-embed profile photos through the engine")
}

// legacyUser mirrors one row of the legacy usuarios table.
type legacyUser struct {
	RUT        string
	Name       string
	Career     sql.NullString
	Shift      sql.NullString
	VectorJSON sql.NullString // legacy vector_facial stored as JSON array
	PhotoJPEG  []byte
}

func openLegacyDB() (*sql.DB, error) {
	dsn := os.Getenv("LEGACY_MYSQL_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("LEGACY_MYSQL_DSN environment variable is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping legacy database: %w", err)
	}
	return db, nil
}

func loadLegacyUsers(ctx context.Context, db *sql.DB) ([]legacyUser, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT rut, nombre, carrera, jornada, vector_facial, imagen
		FROM usuarios
	`)
	if err != nil {
		return nil, fmt.Errorf("querying legacy users: %w", err)
	}
	defer rows.Close()

	var users []legacyUser
	for rows.Next() {
		var u legacyUser
		if err := rows.Scan(&u.RUT, &u.Name, &u.Career, &u.Shift, &u.VectorJSON, &u.PhotoJPEG); err != nil {
			return nil, fmt.Errorf("scanning legacy user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy users: %w", err)
	}
	return users, nil
}

// legacyVector parses the JSON-encoded vector carried by legacy rows.
// Wrong-dimension vectors are dropped so re-embedding can take over.
func legacyVector(u legacyUser, dim int) []float32 {
	if !u.VectorJSON.Valid || u.VectorJSON.String == "" {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal([]byte(u.VectorJSON.String), &vec); err != nil {
		return nil
	}
	if len(vec) != dim {
		return nil
	}
	return vec
}

func runMigrateLegacy(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	reEmbed := mustGetBool(cmd, "re-embed")

	legacyDB, err := openLegacyDB()
	if err != nil {
		return err
	}
	defer legacyDB.Close()

	pool, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	embedder := engine.NewClient(cfg.Engine.URL, cfg.Engine.Dim)

	ctx := context.Background()
	users, err := loadLegacyUsers(ctx, legacyDB)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d users in the legacy database\n\n", len(users))

	bar := progressbar.NewOptions(len(users),
		progressbar.OptionSetDescription("Migrating"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	var imported, reEmbedded, unenrolled, failed int
	for _, u := range users {
		bar.Add(1)

		rut := gallery.NormalizeRUT(u.RUT)
		if rut == "" {
			failed++
			continue
		}

		entry := gallery.Entry{
			RUT:    rut,
			Name:   gallery.NormalizeName(u.Name),
			Career: u.Career.String,
			Shift:  u.Shift.String,
			Active: true,
		}
		if entry.Shift != gallery.ShiftDay && entry.Shift != gallery.ShiftEvening {
			entry.Shift = gallery.ShiftDay
		}

		vector := legacyVector(u, cfg.Engine.Dim)
		if vector == nil && reEmbed && len(u.PhotoJPEG) > 0 {
			detections, err := embedder.DetectFaces(ctx, u.PhotoJPEG)
			if err == nil {
				if best := engine.BestDetection(detections); best != nil {
					vector = best.Embedding
					reEmbedded++
				}
			}
		}

		if err := store.Upsert(ctx, entry); err != nil {
			failed++
			continue
		}
		if vector != nil {
			if err := store.SetReferenceVector(ctx, rut, vector, u.PhotoJPEG); err != nil {
				failed++
				continue
			}
			imported++
		} else {
			unenrolled++
		}
	}

	fmt.Printf("\n\nMigration complete\n")
	fmt.Printf("  Imported with vector: %d (%d re-embedded)\n", imported, reEmbedded)
	fmt.Printf("  Imported unenrolled:  %d\n", unenrolled)
	fmt.Printf("  Failed:               %d\n", failed)
	return nil
}
