package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "px",
		Short:         "Ask questions and stream sourced answers from the terminal",
		Long:          "px sends questions to an answer engine and streams the response as it is written, with its sources and suggested follow-up questions. Pick a fast answer, a web search or deep research per question.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		_ = app.logger.Sync()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAskCmd(app),
		newChatCmd(app),
		newAuthCmd(app),
		newHistoryCmd(app),
		newModesCmd(app),
	)

	return rootCmd
}
