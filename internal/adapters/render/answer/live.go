package answer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	liveTailLines    = 8
	defaultLiveWidth = 80
	waitingLabel     = "Waiting for the answer..."
)

type liveStateMsg struct {
	state domain.SessionState
}

type liveDoneMsg struct {
	err error
}

type liveModel struct {
	spinner spinner.Model
	styles  styles
	run     tea.Cmd
	state   domain.SessionState
	width   int
	err     error
	done    bool
}

func newLiveModel(run tea.Cmd, width int) liveModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)
	if width <= 0 {
		width = defaultLiveWidth
	}

	return liveModel{
		spinner: s,
		styles:  newStyles(),
		run:     run,
		width:   width,
	}
}

func (m liveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil
	case liveStateMsg:
		m.state = msg.state
		return m, nil
	case liveDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

// View shows the spinner with the backend's status line and the tail of
// the answer received so far. It clears itself once the stream ends.
func (m liveModel) View() string {
	if m.done {
		return ""
	}

	label := m.state.Status
	if label == "" {
		label = waitingLabel
		if m.state.Answer != "" {
			label = m.state.Mode.Label()
		}
	}

	header := fmt.Sprintf("%s %s", m.spinner.View(), m.styles.status.Render(label))
	tail := answerTail(m.state.Answer, m.width, liveTailLines)
	if tail == "" {
		return header
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.styles.answer.Render(tail))
}

// answerTail keeps the last n wrapped lines of text so the live view never
// outgrows the terminal.
func answerTail(text string, width, n int) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}

	wrapped := strings.Split(lipgloss.NewStyle().Width(width).Render(text), "\n")
	if len(wrapped) > n {
		wrapped = wrapped[len(wrapped)-n:]
	}

	return strings.Join(wrapped, "\n")
}

// RunLive drives a live view on output while stream runs. stream receives a
// send function that forwards state snapshots to the view. The program
// installs no signal handler: stream must return when ctx is cancelled, and
// RunLive only returns after it has.
func RunLive(ctx context.Context, output io.Writer, width int, stream func(ctx context.Context, send func(domain.SessionState)) error) error {
	var p *tea.Program
	send := func(state domain.SessionState) {
		p.Send(liveStateMsg{state: state})
	}
	runCmd := func() tea.Msg {
		return liveDoneMsg{err: stream(ctx, send)}
	}

	p = tea.NewProgram(
		newLiveModel(runCmd, width),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithoutSignalHandler(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(liveModel)
	if !ok {
		return fmt.Errorf("unexpected final live model type %T", finalModel)
	}

	return result.err
}
