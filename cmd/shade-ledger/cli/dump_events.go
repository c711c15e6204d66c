package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/observability/tracing"
	"github.com/shade-protocol/shade-ledger/internal/queue"
)

const defaultDumpPageSize = 500

func DumpEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-events",
		Short: "Prints the audit log as JSON lines",
		Args:  cobra.ExactArgs(0),
		RunE:  dumpEvents,
	}

	cmd.Flags().Uint64("after", 0, "Only print records with a sequence number greater than this")
	cmd.Flags().Int64("limit", 0, "Maximum number of records to print, 0 prints all")

	return cmd
}

func dumpEvents(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	after, err := cmd.Flags().GetUint64("after")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt64("limit")
	if err != nil {
		return err
	}

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}

	service, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var printed int64
	for limit == 0 || printed < limit {
		pageSize := int64(defaultDumpPageSize)
		if limit > 0 {
			pageSize = min(pageSize, limit-printed)
		}

		records, err := service.ListEvents(ctx, after, pageSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			msg, err := queue.NewMessage(record)
			if err != nil {
				return fmt.Errorf("failed to decode event %d: %w", record.Seq, err)
			}
			buff, err := msg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(buff))
		}

		after = records[len(records)-1].Seq
		printed += int64(len(records))
	}

	return nil
}
