package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/weatherchat/internal/gateway"
)

// defaultPingTimeout applies when no per-query timeout is configured
const defaultPingTimeout = 10 * time.Second

// pinger is implemented by gateways that expose the backend's liveness route
type pinger interface {
	Ping(ctx context.Context) (string, error)
}

// NewPingCmd creates the backend liveness check command
func NewPingCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the weather backend is reachable",
		Long: `Call the backend's root route and print its status message.

The check always uses HTTP, even when chat runs over WebSocket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd, deps, flags)
		},
	}
}

func runPing(cmd *cobra.Command, deps *Dependencies, flags *globalFlags) error {
	sess, err := newSession(deps, flags, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, ok := sess.gateway.(pinger)
	if !ok {
		p, err = gateway.NewHTTPGateway(sess.cfg.Endpoint, gateway.WithHTTPLogger(sess.logger))
		if err != nil {
			return fmt.Errorf("failed to create gateway: %w", err)
		}
	}

	timeout := sess.cfg.Timeout()
	if timeout == 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	decorated := deps.StdoutTTY()
	var spin *spinner
	if decorated {
		spin = newSpinner(deps.Stderr, "Pinging "+sess.cfg.Endpoint)
		spin.start()
	}

	start := time.Now()
	msg, err := p.Ping(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		if spin != nil {
			spin.stopWithError("Backend unreachable")
		}
		sess.logger.Warn().Err(err).Str("endpoint", sess.cfg.Endpoint).Msg("ping failed")
		return fmt.Errorf("ping failed: %w", err)
	}

	if spin != nil {
		spin.stopWithSuccess(fmt.Sprintf("Backend up (%s)", elapsed))
	}
	if msg != "" {
		fmt.Fprintln(deps.Stdout, msg)
	}
	return nil
}
