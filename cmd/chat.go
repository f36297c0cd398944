package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const chatHelp = `Type a question to ask it. A new question stops the one in progress.
  /1 .. /n      ask the numbered related question
  /mode [m]     show or switch the mode (fast, web, deep)
  /stop         stop the current answer
  /help         show this help
  /quit         leave the chat`

func newChatCmd(app *app) *cobra.Command {
	var rawMode string
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := domain.ParseMode(rawMode)
			if err != nil {
				return err
			}

			return runChat(cmd, app, mode, !noHistory)
		},
	}

	cmd.Flags().StringVarP(&rawMode, "mode", "m", string(domain.ModeFast), "Initial answer mode (fast|web|deep)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record questions in the local history")

	return cmd
}

func runChat(cmd *cobra.Command, app *app, mode domain.Mode, recordHistory bool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          chatPrompt(mode),
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("/mode",
				readline.PcItem(string(domain.ModeFast)),
				readline.PcItem(string(domain.ModeWebSearch)),
				readline.PcItem(string(domain.ModeDeep)),
			),
			readline.PcItem("/stop"),
			readline.PcItem("/help"),
			readline.PcItem("/quit"),
		),
		Stdin:  io.NopCloser(cmd.InOrStdin()),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("start line editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	chat := newChatSession(cmd.Context(), app, rl.Stdout(), mode, recordHistory)
	chat.onModeChange = func(mode domain.Mode) { rl.SetPrompt(chatPrompt(mode)) }
	defer chat.close()

	_, _ = fmt.Fprintln(rl.Stdout(), color.New(color.Faint).Sprint("Type /help for commands."))

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if strings.TrimSpace(line) == "" {
					chat.app.session.Cancel()
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if chat.handle(line) {
			return nil
		}
	}
}

func chatPrompt(mode domain.Mode) string {
	return color.New(color.FgCyan).Sprintf("px[%s]> ", mode)
}

// chatSession runs each question in the background so the prompt stays
// usable; asking again supersedes the question in flight.
type chatSession struct {
	ctx           context.Context
	app           *app
	out           io.Writer
	recordHistory bool
	printer       *streamPrinter
	onModeChange  func(domain.Mode)

	mu   sync.Mutex
	mode domain.Mode
	wg   sync.WaitGroup
}

func newChatSession(ctx context.Context, app *app, out io.Writer, mode domain.Mode, recordHistory bool) *chatSession {
	printer := &streamPrinter{out: out}
	app.session.Subscribe(printer.update)

	return &chatSession{
		ctx:           ctx,
		app:           app,
		out:           out,
		recordHistory: recordHistory,
		printer:       printer,
		mode:          mode,
	}
}

// handle processes one input line and reports whether the chat should end.
func (c *chatSession) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.ask(line)
		return false
	}

	command, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "quit", "exit":
		return true
	case "stop":
		c.app.session.Cancel()
	case "help":
		c.println(chatHelp)
	case "mode":
		c.switchMode(arg)
	default:
		index, err := strconv.Atoi(command)
		if err != nil {
			c.println(color.RedString("unknown command /%s, try /help", command))
			return false
		}
		c.askFollowUp(index)
	}

	return false
}

func (c *chatSession) switchMode(raw string) {
	if raw == "" {
		c.println("mode: " + c.currentMode().Label())
		return
	}

	mode, err := domain.ParseMode(raw)
	if err != nil {
		c.println(color.RedString("%v", err))
		return
	}

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	if c.onModeChange != nil {
		c.onModeChange(mode)
	}
	c.println("mode: " + mode.Label())
}

func (c *chatSession) askFollowUp(index int) {
	followUps := c.app.session.Snapshot().FollowUps
	if index < 1 || index > len(followUps) {
		c.println(color.RedString("no related question #%d", index))
		return
	}

	question := followUps[index-1]
	c.println(color.New(color.Bold).Sprint(question))
	c.ask(question)
}

func (c *chatSession) ask(question string) {
	mode := c.currentMode()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		state, err := c.app.session.Ask(c.ctx, question, mode)
		c.finish(state, err)
	}()
}

func (c *chatSession) finish(state domain.SessionState, askErr error) {
	if err := loginError(askErr); err != nil {
		c.println(color.RedString("%v", err))
		return
	}
	if errors.Is(askErr, domain.ErrSuperseded) {
		return
	}
	if errors.Is(askErr, context.Canceled) {
		c.println(color.New(color.Faint).Sprint("(stopped)"))
	}
	if c.recordHistory {
		recordAsk(c.ctx, c.app, state, askErr)
	}
}

func (c *chatSession) currentMode() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mode
}

func (c *chatSession) close() {
	c.app.session.Cancel()
	c.wg.Wait()
}

func (c *chatSession) println(text string) {
	c.printer.mu.Lock()
	defer c.printer.mu.Unlock()

	_, _ = fmt.Fprintln(c.out, text)
}

// streamPrinter turns session snapshots into incremental terminal output.
type streamPrinter struct {
	mu        sync.Mutex
	out       io.Writer
	requestID string
	answer    string
	status    string
	finished  bool
}

func (p *streamPrinter) update(state domain.SessionState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state.RequestID != p.requestID {
		p.requestID = state.RequestID
		p.answer = ""
		p.status = ""
		p.finished = false
		_, _ = fmt.Fprintln(p.out, color.New(color.Faint).Sprintf("[%s]", state.Mode.Label()))
	}
	if p.finished {
		return
	}

	if state.Status != "" && state.Status != p.status && state.Answer == "" {
		_, _ = fmt.Fprintln(p.out, color.New(color.Faint, color.Italic).Sprint(state.Status))
	}
	p.status = state.Status

	switch {
	case strings.HasPrefix(state.Answer, p.answer):
		_, _ = io.WriteString(p.out, state.Answer[len(p.answer):])
	default:
		// The answer was replaced wholesale, e.g. by an error message.
		_, _ = io.WriteString(p.out, "\n"+state.Answer)
	}
	p.answer = state.Answer

	if state.InFlight {
		return
	}

	p.finished = true
	_, _ = fmt.Fprintln(p.out)
	if len(state.Sources) > 0 {
		_, _ = fmt.Fprintln(p.out, color.New(color.Bold).Sprint("Sources"))
		for i, source := range state.Sources {
			_, _ = fmt.Fprintf(p.out, "  [%d] %s\n", i+1, color.CyanString(source))
		}
	}
	if len(state.FollowUps) > 0 {
		_, _ = fmt.Fprintln(p.out, color.New(color.Bold).Sprint("Related"))
		for i, question := range state.FollowUps {
			_, _ = fmt.Fprintf(p.out, "  /%d %s\n", i+1, question)
		}
	}
}
