package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/device"
	"github.com/rleal/face-attendance/internal/gallery"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Interact with the confirmation display device",
}

var deviceTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test credential to the device",
	Long: `Render a synthetic credential and send it over the confirmation
protocol. Useful to check the device address, timeout, and touch input
without a real recognition pass.`,
	RunE: runDeviceTest,
}

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(deviceTestCmd)
}

func runDeviceTest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Device.Addr == "" {
		return fmt.Errorf("DEVICE_ADDR environment variable is required")
	}

	credential, err := device.RenderCredential(&gallery.Entry{
		RUT:    "11111111-1",
		Name:   "prueba dispositivo",
		Career: "Prueba",
		Shift:  gallery.ShiftDay,
	})
	if err != nil {
		return fmt.Errorf("rendering test credential: %w", err)
	}

	fmt.Printf("Sending test credential to %s (touch the screen to respond)...\n", cfg.Device.Addr)
	client := device.NewClient(cfg.Device.Addr, cfg.Device.Timeout)
	outcome := client.Confirm(context.Background(), credential)

	fmt.Printf("Device answered: %s\n", outcome)
	return nil
}
