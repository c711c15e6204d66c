package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/observability/tracing"
)

func InitProtocolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-protocol",
		Short: "Creates the protocol config from the protocol section of the config file",
		Args:  cobra.ExactArgs(0),
		RunE:  initProtocol,
	}

	return cmd
}

func initProtocol(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

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

	authority, feeVault, stakingVault := cfg.Protocol.Addresses()
	protocolConfig, err := service.InitializeProtocol(ctx, authority, feeVault, stakingVault, cfg.Protocol.FeeBasisPoints)
	if err != nil {
		return err
	}

	buff, err := json.MarshalIndent(protocolConfig, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(buff))
	return nil
}
