package cli

import (
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"
)

// options holds the flags shared by every subcommand
type options struct {
	configDir string
	grpcAddr  string
	output    string
	timeout   time.Duration
}

// NewRootCmd builds the logctl command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "logctl",
		Short: "logctl - parse, store and query multi-line application logs",
		Long: `logctl assembles "date time SEVERITY logger - message" log files into records.
It can parse a file locally, run an ingestion pass into the configured store,
query a running ingestion service over gRPC, or follow the records it publishes.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", "./config", "Directory containing the ingestion configuration")
	rootCmd.PersistentFlags().StringVar(&opts.grpcAddr, "grpc", "", "Address of a running ingestion service; empty uses the configured store directly")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Timeout for store and list operations")

	// Add subcommands
	rootCmd.AddCommand(newParseCmd(opts))
	rootCmd.AddCommand(newStoreCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newFollowCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger writes diagnostics to the command's error stream
func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[LOGCTL] ", log.LstdFlags)
}
