package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joywake/joywake/internal/config"
	"github.com/joywake/joywake/internal/hotplug"
	"github.com/joywake/joywake/internal/logger"
	"github.com/joywake/joywake/internal/monitor"
	"github.com/joywake/joywake/internal/waker"
)

// Distinct exit codes for the two fatal wake-capability conditions, so logs
// and service managers can tell them apart.
const (
	exitNoWakers        = 3
	exitAllWakersFailed = 4
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "joywake",
		Short: "Joywake - keep the screen awake while a joystick is in use",
		Long: `Joywake watches joystick and gamepad devices for activity and pokes the
screensaver whenever they are used, so the display does not lock or sleep
mid-game on setups where the only input is a gamepad.`,
		SilenceUsage: true,
		RunE:         runMonitor,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.Flags().String("loglevel", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Int("interval", 0, "Minimum seconds between wake broadcasts")
	rootCmd.Flags().String("command", "", "Extra wake command to run on joystick activity")
	rootCmd.Flags().String("prefer", "", "Preferred device interface when a joystick has both (js or event)")

	// Bind flags to viper
	viper.BindPFlag("logging.log_level", rootCmd.Flags().Lookup("loglevel"))
	viper.BindPFlag("wake.interval", rootCmd.Flags().Lookup("interval"))
	viper.BindPFlag("wake.command", rootCmd.Flags().Lookup("command"))
	viper.BindPFlag("wake.prefer", rootCmd.Flags().Lookup("prefer"))

	// Add commands
	rootCmd.AddCommand(listCmd)
}

func initConfig() (*config.Config, error) {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return nil, err
	}
	cfg := config.Get()
	if cfg.Logging.LogLevel != "" {
		logger.SetLevel(cfg.Logging.LogLevel)
	}
	return cfg, nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}

	wakers, err := waker.Builtin(cfg.Wake.Command, logger.IsDebug())
	if err != nil {
		return err
	}

	mon := monitor.New(monitor.Options{
		Source:   hotplug.Detect(),
		Wakers:   wakers,
		Interval: time.Duration(cfg.Wake.Interval) * time.Second,
		Prefer:   hotplug.StyleFromString(cfg.Wake.Prefer),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = mon.Run(ctx)
	switch {
	case errors.Is(err, monitor.ErrNoWakers):
		logger.Error("nothing to wake the screen with; refusing to run")
		os.Exit(exitNoWakers)
	case errors.Is(err, monitor.ErrAllWakersFailed):
		logger.Error("every wake action has failed; giving up")
		os.Exit(exitAllWakersFailed)
	}
	return err
}
