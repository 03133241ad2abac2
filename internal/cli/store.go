package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"logshelf/config"
	core "logshelf/ingestion/service/core"
	grpcclient "logshelf/ingestion/service/grpc"
	"logshelf/ingestion/source"
	"logshelf/internal/messaging/producer"
	"logshelf/internal/models"
	"logshelf/storage/store"
)

func newStoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "Run one ingestion pass, replacing the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			var result *core.IngestResult
			if opts.grpcAddr != "" {
				client, err := grpcclient.Dial(opts.grpcAddr)
				if err != nil {
					return err
				}
				defer client.Close()

				if result, err = client.StoreLogs(ctx); err != nil {
					return fmt.Errorf("remote ingestion pass failed: %w", err)
				}
			} else {
				logger := newLogger(cmd.ErrOrStderr())
				err := withLocalService(ctx, opts.configDir, logger, func(svc *core.Service) error {
					var err error
					result, err = svc.StoreLogs(ctx)
					return err
				})
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logs stored in database\npass: %s\nstored: %d\nlines: %d\nmalformed timestamps: %d\ndropped lines: %d\n",
				result.PassID, result.Stored, result.Lines, result.MalformedTimestamps, result.DroppedLines)
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the stored records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			var records []models.LogRecord
			if opts.grpcAddr != "" {
				client, err := grpcclient.Dial(opts.grpcAddr)
				if err != nil {
					return err
				}
				defer client.Close()

				if records, err = client.ListLogs(ctx); err != nil {
					return fmt.Errorf("remote list failed: %w", err)
				}
			} else {
				logger := newLogger(cmd.ErrOrStderr())
				err := withLocalService(ctx, opts.configDir, logger, func(svc *core.Service) error {
					var err error
					records, err = svc.ListLogs(ctx)
					return err
				})
				if err != nil {
					return err
				}
			}

			return renderRecords(cmd.OutOrStdout(), records, opts.output)
		},
	}
}

// withLocalService wires a Service from the configuration in configDir, runs fn
// and tears everything down again
func withLocalService(ctx context.Context, configDir string, logger *log.Logger, fn func(*core.Service) error) error {
	appCfg, err := config.LoadConfig(configDir)
	if err != nil {
		return err
	}
	cfg := appCfg.Ingestion

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := producer.New(cfg.KafkaProducer, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	svc := core.NewService(st, source.NewFileSource(cfg.Source.Path, cfg.Source.MaxLineBytes), p, logger,
		cfg.Publisher.BatchSize, cfg.Publisher.BatchTimeout, cfg.Publisher.FlushChannelBuffer)
	defer svc.Close()

	return fn(svc)
}
