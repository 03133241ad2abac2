package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"logshelf/config"
	"logshelf/internal/messaging/consumer"
	"logshelf/internal/models"
)

func newFollowCmd(opts *options) *cobra.Command {
	var (
		brokers []string
		topic   string
		groupID string
	)

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Print records as the ingestion service publishes them to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}

			appCfg, err := config.LoadConfig(opts.configDir)
			if err != nil {
				return err
			}
			cfg := appCfg.Ingestion.KafkaConsumer
			if len(brokers) > 0 {
				cfg.Brokers = brokers
			}
			if topic != "" {
				cfg.Topic = topic
			}
			if groupID != "" {
				cfg.GroupID = groupID
			}

			logger := newLogger(cmd.ErrOrStderr())
			c, err := consumer.NewKafkaConsumer(cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			n, err := followRecords(ctx, c, cmd.OutOrStdout(), opts.output, cfg.RetryDelay, logger)
			logger.Printf("Followed %d records", n)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&brokers, "brokers", nil, "Kafka brokers (overrides kafka_consumer.brokers)")
	cmd.Flags().StringVar(&topic, "topic", "", "Records topic (overrides kafka_consumer.topic)")
	cmd.Flags().StringVar(&groupID, "group", "", "Consumer group (overrides kafka_consumer.group_id)")
	return cmd
}

// followRecords prints one line per consumed record
func followRecords(ctx context.Context, c consumer.Consumer, w io.Writer, format string, retryDelay time.Duration, logger *log.Logger) (int, error) {
	enc := json.NewEncoder(w)
	return consumer.Follow(ctx, c, retryDelay, logger, func(rec models.LogRecord) error {
		if format == outputJSON {
			return enc.Encode(rec)
		}
		_, err := fmt.Fprintf(w, "%s %s %s - %s\n", rec.Timestamp.UTC().Format(displayLayout), rec.Severity, rec.Logger, rec.Message)
		return err
	})
}
