package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sheetledger/internal/amqp"
	"sheetledger/internal/cli"
	"sheetledger/internal/log"
	"sheetledger/internal/services"
)

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Consume entry-appended events and keep running totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd.Context())
		},
	}
}

func runEvents(ctx context.Context) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel)
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the events consumer")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}

	processor := services.NewEventProcessor(logger.WithComponent(log.ComponentAMQP))
	logger.Info("Starting events consumer",
		log.FieldOperation, log.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	runErr := processor.Run(ctx, client)
	shutdownErr := cli.GracefulShutdown(logger, 5*time.Second, func(context.Context) error {
		return client.Close()
	})
	return errors.Join(runErr, shutdownErr)
}
