package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shade-protocol/shade-ledger/internal/config"
	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/observability/tracing"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the fee distribution keeper and the metrics server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	service, cleanup, err := newService(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating service")
	}
	defer cleanup()

	// a fresh store gets the protocol from config, an existing one keeps its own
	_, err = service.GetProtocolConfig(ctx)
	switch {
	case types.CodeOf(err) == types.NotFound:
		authority, feeVault, stakingVault := cfg.Protocol.Addresses()
		_, err = service.InitializeProtocol(ctx, authority, feeVault, stakingVault, cfg.Protocol.FeeBasisPoints)
		if err != nil {
			log.Fatal().Err(err).Msg("error while initializing protocol")
		}
	case err != nil:
		log.Fatal().Err(err).Msg("error while loading protocol config")
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	service.StartKeeper(ctx)
	return nil
}
