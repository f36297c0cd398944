package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	answeradapter "github.com/bnema/px-cli/internal/adapters/render/answer"
	"github.com/bnema/px-cli/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errLoginRequired = errors.New("login required: run `px auth login`")

func newAskCmd(app *app) *cobra.Command {
	var rawMode string
	var asJSON bool
	var quiet bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseMode(rawMode)
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			state, askErr := streamAnswer(cmd, app, question, mode, !quiet)
			if err := loginError(askErr); err != nil {
				return err
			}
			if errors.Is(askErr, domain.ErrEmptyQuestion) {
				return askErr
			}

			if !noHistory {
				recordAsk(cmd.Context(), app, state, askErr)
			}

			if err := writeAnswer(cmd, app, state, askErr, asJSON); err != nil {
				return err
			}

			if askErr != nil && !errors.Is(askErr, context.Canceled) {
				return askErr
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawMode, "mode", "m", string(domain.ModeFast), "Answer mode (fast|web|deep)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render the final state as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the live progress view")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this question in the local history")

	return cmd
}

// streamAnswer runs one ask. The live view goes to stderr so stdout only
// ever carries the final answer.
func streamAnswer(cmd *cobra.Command, app *app, question string, mode domain.Mode, live bool) (domain.SessionState, error) {
	ctx := cmd.Context()
	if !live {
		return app.session.Ask(ctx, question, mode)
	}

	err := answeradapter.RunLive(ctx, cmd.ErrOrStderr(), 0, func(ctx context.Context, send func(domain.SessionState)) error {
		app.session.Subscribe(send)
		_, err := app.session.Ask(ctx, question, mode)
		return err
	})

	return app.session.Snapshot(), err
}

func writeAnswer(cmd *cobra.Command, app *app, state domain.SessionState, askErr error, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	rendered, err := app.renderer(state, answeradapter.RenderOptions{
		Failed: errors.Is(askErr, domain.ErrServerReported) || errors.Is(askErr, domain.ErrTransport),
	})
	if err != nil {
		return fmt.Errorf("render answer: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// recordAsk stores the exchange in the history. A failing history write
// never fails the ask itself.
func recordAsk(ctx context.Context, app *app, state domain.SessionState, askErr error) {
	if _, _, err := app.history.RecordAsk(context.WithoutCancel(ctx), state, askErr); err != nil {
		app.logger.Warn("record history", zap.String("request_id", state.RequestID), zap.Error(err))
	}
}

func loginError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return errLoginRequired
	case errors.Is(err, domain.ErrSessionExpired):
		return fmt.Errorf("session expired: %w", errLoginRequired)
	case errors.Is(err, domain.ErrUnauthorized):
		return fmt.Errorf("backend rejected the session token: %w", errLoginRequired)
	default:
		return nil
	}
}
