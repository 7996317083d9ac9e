package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/gallery"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage enrolled users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active users",
	RunE:  runUsersList,
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <rut>",
	Short: "Deactivate a user so matching skips them",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDeactivate,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeactivateCmd)

	usersListCmd.Flags().String("shift", "", "Restrict to one shift (D or V)")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	entries, err := store.ListActive(context.Background(), mustGetString(cmd, "shift"))
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	for _, e := range entries {
		enrolled := " "
		if e.HasReferenceVector() {
			enrolled = "*"
		}
		fmt.Printf("%s %-14s %-30s %-25s %s\n", enrolled, e.RUT, e.Name, e.Career, e.Shift)
	}
	fmt.Printf("%d users (* = enrolled)\n", len(entries))
	return nil
}

func runUsersDeactivate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	rut := gallery.NormalizeRUT(args[0])

	pool, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := store.SetActive(context.Background(), rut, false); err != nil {
		return fmt.Errorf("deactivating %s: %w", rut, err)
	}
	fmt.Printf("Deactivated %s\n", rut)
	return nil
}
