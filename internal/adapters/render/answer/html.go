package answer

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/yuin/goldmark"
)

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Question}}</title>
</head>
<body>
<article>
<h1>{{.Question}}</h1>
<p class="meta">{{.Mode}} &middot; {{.AskedAt}}{{if .Failed}} &middot; <strong>error</strong>{{end}}</p>
<section class="answer">
{{.Answer}}
</section>
{{- if .Sources}}
<section class="sources">
<h2>Sources</h2>
<ol>
{{- range .Sources}}
<li><a href="{{.}}">{{.}}</a></li>
{{- end}}
</ol>
</section>
{{- end}}
{{- if .FollowUps}}
<section class="related">
<h2>Related</h2>
<ol>
{{- range .FollowUps}}
<li>{{.}}</li>
{{- end}}
</ol>
</section>
{{- end}}
</article>
</body>
</html>
`))

type transcriptPage struct {
	Question  string
	Mode      string
	AskedAt   string
	Failed    bool
	Answer    template.HTML
	Sources   []string
	FollowUps []string
}

// ExportHTML writes transcript as a standalone HTML page. The answer is
// treated as markdown; raw HTML inside it is dropped by goldmark.
func ExportHTML(w io.Writer, transcript domain.Transcript) error {
	var answerHTML bytes.Buffer
	if err := goldmark.Convert([]byte(transcript.Answer), &answerHTML); err != nil {
		return fmt.Errorf("convert answer markdown: %w", err)
	}

	page := transcriptPage{
		Question:  transcript.Question,
		Mode:      transcript.Mode.Label(),
		Failed:    transcript.Outcome == domain.OutcomeError,
		Answer:    template.HTML(answerHTML.String()),
		Sources:   transcript.Sources,
		FollowUps: transcript.FollowUps,
	}
	if !transcript.AskedAt.IsZero() {
		page.AskedAt = transcript.AskedAt.UTC().Format(time.RFC1123)
	}

	if err := transcriptTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render transcript page: %w", err)
	}

	return nil
}
