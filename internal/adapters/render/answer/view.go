package answer

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	// Width wraps the answer; zero leaves lines as the backend sent them.
	Width int
	// Failed marks the answer as an error message.
	Failed bool
}

func renderState(state domain.SessionState, opts RenderOptions, s styles) string {
	lines := []string{
		s.question.Render(state.Question),
		s.mode.Render(modeLine(state.Mode)),
	}

	lines = append(lines, s.section.Render(renderAnswer(state.Answer, opts, s)))

	if len(state.Sources) > 0 {
		lines = append(lines, s.section.Render(renderList("Sources", state.Sources, s.source, s)))
	}
	if len(state.FollowUps) > 0 {
		lines = append(lines, s.section.Render(renderList("Related", state.FollowUps, s.followUp, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderTranscript(transcript domain.Transcript, opts RenderOptions, s styles) string {
	state := domain.SessionState{
		Question:  transcript.Question,
		Mode:      transcript.Mode,
		Answer:    transcript.Answer,
		Sources:   transcript.Sources,
		FollowUps: transcript.FollowUps,
	}
	opts.Failed = transcript.Outcome == domain.OutcomeError

	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.meta.Render(transcriptMeta(transcript)),
		renderState(state, opts, s),
	)
}

func renderAnswer(text string, opts RenderOptions, s styles) string {
	if strings.TrimSpace(text) == "" {
		return s.empty.Render("No answer received.")
	}

	style := s.answer
	if opts.Width > 0 {
		style = style.Width(opts.Width)
	}

	rendered := style.Render(text)
	if opts.Failed {
		return lipgloss.JoinVertical(lipgloss.Left, s.errorLabel.Render("error"), rendered)
	}

	return rendered
}

// renderList numbers items from 1 so follow-ups can be picked by index.
func renderList(title string, items []string, itemStyle lipgloss.Style, s styles) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, s.heading.Render(title))
	for i, item := range items {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.index.Render(fmt.Sprintf("%2d. ", i+1)),
			itemStyle.Render(item),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func modeLine(mode domain.Mode) string {
	if !mode.Valid() {
		return "mode: unknown"
	}

	return "mode: " + mode.Label()
}

func transcriptMeta(transcript domain.Transcript) string {
	askedAt := "unknown time"
	if !transcript.AskedAt.IsZero() {
		askedAt = transcript.AskedAt.Local().Format(time.DateTime)
	}

	return fmt.Sprintf("%s  %s  %s", transcript.ID, askedAt, transcript.Outcome)
}
