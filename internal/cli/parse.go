package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"logshelf/ingestion/parser"
	"logshelf/ingestion/source"
)

func newParseCmd(opts *options) *cobra.Command {
	var maxLineBytes int

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Assemble a log file into records without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}

			reader, err := source.NewFileSource(args[0], maxLineBytes).Open()
			if err != nil {
				return err
			}
			defer reader.Close()

			logger := newLogger(cmd.ErrOrStderr())
			res, err := parser.NewAssembler(parser.NewParser(), logger).Assemble(cmd.Context(), reader)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			if err := renderRecords(cmd.OutOrStdout(), res.Records, opts.output); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "records: %d, lines: %d, malformed timestamps: %d, dropped lines: %d\n",
				len(res.Records), res.Lines,
				res.Count(parser.EventMalformedTimestamp), res.Count(parser.EventUnattachableContinuation))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxLineBytes, "max-line-bytes", source.DefaultMaxLineBytes, "Longest accepted physical line")
	return cmd
}
