package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	answeradapter "github.com/bnema/px-cli/internal/adapters/render/answer"
	"github.com/bnema/px-cli/internal/domain"
	"github.com/spf13/cobra"
)

const shortIDLength = 8

func newHistoryCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously asked questions",
	}

	cmd.AddCommand(
		newHistoryListCmd(app),
		newHistoryShowCmd(app),
		newHistoryClearCmd(app),
	)

	return cmd
}

func newHistoryListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded questions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			transcripts, err := app.history.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(transcripts)
			}

			if len(transcripts) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "history is empty")
				return nil
			}
			for _, transcript := range transcripts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
					shortID(transcript.ID),
					transcript.AskedAt.Local().Format(time.DateTime),
					transcript.Mode,
					transcript.Outcome,
					transcript.Question,
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render as JSON")

	return cmd
}

func newHistoryShowCmd(app *app) *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded answer (the id may be shortened)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := app.history.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if htmlPath != "" {
				if err := writeTranscriptHTML(htmlPath, transcript); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", htmlPath)
				return nil
			}

			rendered, err := answeradapter.RenderTranscript(transcript, answeradapter.RenderOptions{
				Failed: transcript.Outcome == domain.OutcomeError,
			})
			if err != nil {
				return fmt.Errorf("render transcript: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Export the answer as an HTML page to this file")

	return cmd
}

func newHistoryClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.history.Clear(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}
}

func writeTranscriptHTML(path string, transcript domain.Transcript) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create html export: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close html export: %w", closeErr)
		}
	}()

	if err := answeradapter.ExportHTML(file, transcript); err != nil {
		return fmt.Errorf("export html: %w", err)
	}

	return nil
}

func shortID(id domain.TranscriptID) string {
	if len(id) <= shortIDLength {
		return string(id)
	}

	return string(id[:shortIDLength])
}
