// Command cadence-worker runs the notification delivery loop as a
// standalone process. It shares nothing with the web server except the
// database file: all coordination goes through the durable queue table.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cadence-tracker/cadence/internal/channel"
	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/internal/store"
	"github.com/cadence-tracker/cadence/internal/worker"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cadence-worker",
		Short: "Deliver queued Cadence notifications",
		Long: "cadence-worker polls the notification queue and delivers " +
			"pending messages over email and push, with bounded retries.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", model.DefaultConfigPath(),
		"path to the configuration file")

	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	db, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	w := worker.New(
		db,
		db,
		channel.NewEmailSender(cfg.SMTP),
		channel.NewPushSender(cfg.Push.Server),
		cfg.Worker,
		log,
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w.Run(ctx)
	return nil
}
