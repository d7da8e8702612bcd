package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/swapstation/app"
	"github.com/kilianp07/swapstation/config"
	"github.com/kilianp07/swapstation/infra/logger"
)

var (
	cfgPath   string
	httpAddr  string
	stationID string
)

var rootCmd = &cobra.Command{
	Use:          "swapstation",
	Short:        "Battery swap station simulator",
	RunE:         run,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the station with its operator API",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&httpAddr, "http-addr", "", "operator API listen address")
		c.Flags().StringVar(&stationID, "station-id", "", "station identifier")
	}
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if stationID != "" {
		cfg.Station.ID = stationID
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
