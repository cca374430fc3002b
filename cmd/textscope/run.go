package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"textscope/internal/console"
)

func (c *CLI) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive terminal front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			term := console.New(os.Stdin, os.Stdout)
			a, err := c.buildApp(term)
			if err != nil {
				return err
			}
			defer a.Close()
			term.Attach(a)

			if err := term.Run(ctx); err != nil && err != context.Canceled && err != console.ErrInputClosed {
				return err
			}
			return nil
		},
	}
}
