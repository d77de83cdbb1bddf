package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the default account (DEFAULT_USERNAME/DEFAULT_PASSWORD) if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.shutdown()

			res, err := a.auth.EnsureDefaultUser(cmd.Context())
			if err != nil {
				return err
			}
			if res.Created {
				fmt.Fprintf(cmd.OutOrStdout(), "default user %q created\n", res.Username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "user %q already exists\n", res.Username)
			}
			return nil
		},
	}
}

func newPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured database (and redis, if set) answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.shutdown()

			if err := a.store.Pinger.Ping(ctx); err != nil {
				return fmt.Errorf("database %s: %w", a.store.Driver, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s: ok\n", a.store.Driver)

			if a.redis != nil {
				if err := a.redis.Ping(ctx); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "redis: ok")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall time limit")
	return cmd
}
