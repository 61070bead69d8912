package notify

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/cadence-tracker/cadence/internal/model"
)

// plainCommentLimit is the fixed truncation length for comment bodies
// in the plain-text variant.
const plainCommentLimit = 200

// Renderer converts markdown to HTML for comment bodies.
type Renderer interface {
	Render(text string) string
}

// GoldmarkRenderer renders markdown with raw HTML escaped and
// strikethrough supported.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewGoldmarkRenderer creates the shared markdown renderer.
func NewGoldmarkRenderer() *GoldmarkRenderer {
	return &GoldmarkRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Strikethrough)),
	}
}

// Render converts markdown text to HTML. On a rendering failure the
// escaped source text is returned so a message always has a body.
func (r *GoldmarkRenderer) Render(text string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return buf.String()
}

// Message is the channel-agnostic rendered content of one notification.
type Message struct {
	Subject  string
	Body     string
	BodyHTML string
}

// Formatter maps activity entries to message content.
type Formatter struct {
	renderer Renderer
}

// NewFormatter creates a Formatter using the given markdown renderer.
func NewFormatter(renderer Renderer) *Formatter {
	return &Formatter{renderer: renderer}
}

// Format renders the subject, plain body, and HTML body for an activity
// entry. Unrecognized action kinds fall back to a generic template
// rather than failing.
func (f *Formatter) Format(
	activity *model.Activity,
	task *model.Task,
	actor *model.User,
	baseURL string,
) Message {
	taskURL := strings.TrimRight(baseURL, "/") + "/tasks/" + task.UUID
	actorName := "Someone"
	if actor != nil {
		actorName = actor.Name()
	}

	var (
		subject     string
		body        string
		htmlContent string
	)

	switch activity.Action {
	case model.ActionCreated:
		subject = fmt.Sprintf("[Cadence] New task: %s", task.Title)
		body = fmt.Sprintf("%s created a new task.\n\n%s", actorName, taskURL)
		htmlContent = fmt.Sprintf("<p><strong>%s</strong> created a new task.</p>",
			html.EscapeString(actorName))

	case model.ActionUpdated:
		var fields []string
		if d, ok := activity.Details.(model.UpdatedDetails); ok {
			for _, c := range d.Changes {
				fields = append(fields, c.Field)
			}
		}
		summary := strings.Join(fields, ", ")
		subject = fmt.Sprintf("[Cadence] Task updated: %s", task.Title)
		body = fmt.Sprintf("%s updated %s.\n\n%s", actorName, summary, taskURL)
		htmlContent = fmt.Sprintf("<p><strong>%s</strong> updated %s.</p>",
			html.EscapeString(actorName), html.EscapeString(summary))

	case model.ActionStatusChanged:
		var oldStatus, newStatus model.Status
		if d, ok := activity.Details.(model.StatusChangedDetails); ok {
			oldStatus, newStatus = d.Old, d.New
		}
		subject = fmt.Sprintf("[Cadence] Status changed: %s", task.Title)
		body = fmt.Sprintf("%s changed status from %s to %s.\n\n%s",
			actorName, oldStatus, newStatus, taskURL)
		htmlContent = fmt.Sprintf(
			"<p><strong>%s</strong> changed status from <code>%s</code> to <code>%s</code>.</p>",
			html.EscapeString(actorName), oldStatus, newStatus)

	case model.ActionCommented, model.ActionCommentEdited:
		var content string
		if d, ok := activity.Details.(model.CommentDetails); ok {
			content = d.Content
		}
		verb := "commented"
		subjectVerb := "Comment on"
		if activity.Action == model.ActionCommentEdited {
			verb = "edited their comment"
			subjectVerb = "Comment edited"
		}
		subject = fmt.Sprintf("[Cadence] %s: %s", subjectVerb, task.Title)
		body = fmt.Sprintf("%s %s:\n\n%s\n\n%s",
			actorName, verb, truncate(content, plainCommentLimit), taskURL)
		htmlContent = fmt.Sprintf(
			`<p><strong>%s</strong> %s:</p>`+
				`<blockquote style="margin: 16px 0; padding: 12px 16px; `+
				`background: #f5f5f5; border-left: 4px solid #1095c1;">%s</blockquote>`,
			html.EscapeString(actorName), verb, f.renderer.Render(content))

	case model.ActionAttachmentAdded:
		filename := "file"
		if d, ok := activity.Details.(model.AttachmentDetails); ok && d.Filename != "" {
			filename = d.Filename
		}
		subject = fmt.Sprintf("[Cadence] Attachment added: %s", task.Title)
		body = fmt.Sprintf("%s uploaded %s.\n\n%s", actorName, filename, taskURL)
		htmlContent = fmt.Sprintf("<p><strong>%s</strong> uploaded <code>%s</code>.</p>",
			html.EscapeString(actorName), html.EscapeString(filename))

	default:
		subject = fmt.Sprintf("[Cadence] Activity on: %s", task.Title)
		body = fmt.Sprintf("%s performed action: %s.\n\n%s", actorName, activity.Action, taskURL)
		htmlContent = fmt.Sprintf("<p><strong>%s</strong> performed action: %s.</p>",
			html.EscapeString(actorName), html.EscapeString(string(activity.Action)))
	}

	header := fmt.Sprintf(`<h2 style="margin: 0 0 16px 0; color: #333;">%s</h2>`,
		html.EscapeString(task.Title))

	return Message{
		Subject:  subject,
		Body:     body,
		BodyHTML: wrapHTML(header+htmlContent, taskURL),
	}
}

// truncate shortens s to limit characters, appending an ellipsis when
// anything was cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// wrapHTML places content in the shared email shell with a deep link
// back to the task.
func wrapHTML(content, taskURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
             max-width: 600px; margin: 0 auto; padding: 20px; color: #333;">
    %s
    <hr style="border: none; border-top: 1px solid #ddd; margin: 24px 0;">
    <p style="margin: 0;">
        <a href="%s" style="color: #1095c1; text-decoration: none;">View task in Cadence</a>
    </p>
</body>
</html>`, content, taskURL)
}
