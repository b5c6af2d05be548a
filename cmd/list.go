package cmd

import (
	"fmt"

	evdev "github.com/holoplot/go-evdev"
	"github.com/spf13/cobra"

	"github.com/joywake/joywake/internal/hotplug"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List joystick devices that would be watched",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	if _, err := initConfig(); err != nil {
		return err
	}

	descriptors, err := hotplug.Detect().Enumerate()
	if err != nil {
		return fmt.Errorf("enumerating input devices: %w", err)
	}

	found := 0
	for _, d := range descriptors {
		if !d.Joystick || d.Node == "" {
			continue
		}
		found++
		fmt.Printf("%-20s %-6s %s\n", d.Node, d.Style, deviceName(d))
	}
	if found == 0 {
		fmt.Println("No joystick devices found")
	}
	return nil
}

// deviceName prefers the kernel-reported name on event nodes, falling back
// to the descriptor's vendor/model strings
func deviceName(d hotplug.Descriptor) string {
	if d.Style == hotplug.StyleEvent {
		if dev, err := evdev.Open(d.Node); err == nil {
			defer dev.Close()
			if name, err := dev.Name(); err == nil && name != "" {
				return name
			}
		}
	}
	return d.Label()
}
