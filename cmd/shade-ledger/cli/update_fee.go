package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/observability/tracing"
)

const feeBasisPointsFlag = "fee-basis-points"

func UpdateFeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-fee",
		Short: "Changes the protocol fee, signed by the configured protocol authority",
		Args:  cobra.ExactArgs(0),
		RunE:  updateFee,
	}

	cmd.Flags().Uint16(feeBasisPointsFlag, 0, "New protocol fee in basis points")
	_ = cmd.MarkFlagRequired(feeBasisPointsFlag)

	return cmd
}

func updateFee(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	feeBasisPoints, err := cmd.Flags().GetUint16(feeBasisPointsFlag)
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

	authority, _, _ := cfg.Protocol.Addresses()
	if err := service.UpdateFee(ctx, authority, feeBasisPoints); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Protocol fee set to %d bps\n", feeBasisPoints)
	return nil
}
