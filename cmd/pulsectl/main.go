package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"trend-pulse/src/grpc_control"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	addr    string
	timeout time.Duration
)

// -----------------------------------------------------------------------------

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pulsectl",
		Short:        "Control a running trend-pulse instance over gRPC",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:50051", "control plane address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "per-call timeout")

	root.AddCommand(
		simpleCmd("sources", "List ingestion sources", 0, func(ctx context.Context, c *grpc_control.PulseControlClient, _ []string) (*structpb.Struct, error) {
			return c.ListSources(ctx)
		}),
		simpleCmd("add-source <id>", "Start polling a new source", 1, func(ctx context.Context, c *grpc_control.PulseControlClient, args []string) (*structpb.Struct, error) {
			return c.AddSource(ctx, args[0])
		}),
		simpleCmd("remove-source <id>", "Stop polling a source", 1, func(ctx context.Context, c *grpc_control.PulseControlClient, args []string) (*structpb.Struct, error) {
			return c.RemoveSource(ctx, args[0])
		}),
		simpleCmd("reconnect <id>", "Force a source back to active", 1, func(ctx context.Context, c *grpc_control.PulseControlClient, args []string) (*structpb.Struct, error) {
			return c.ReconnectSource(ctx, args[0])
		}),
		simpleCmd("ack <alert-id>", "Acknowledge an alert", 1, func(ctx context.Context, c *grpc_control.PulseControlClient, args []string) (*structpb.Struct, error) {
			return c.AcknowledgeAlert(ctx, args[0])
		}),
		simpleCmd("dashboard", "Print the current dashboard snapshot", 0, func(ctx context.Context, c *grpc_control.PulseControlClient, _ []string) (*structpb.Struct, error) {
			return c.GetDashboard(ctx)
		}),
	)
	return root
}

// -----------------------------------------------------------------------------

func simpleCmd(use, short string, nargs int, call func(context.Context, *grpc_control.PulseControlClient, []string) (*structpb.Struct, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connect %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := call(ctx, grpc_control.NewPulseControlClient(conn), args)
			if err != nil {
				return err
			}

			out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
