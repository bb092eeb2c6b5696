package content

import (
	"bytes"
	"html/template"
	"time"

	"github.com/five82/lectern/internal/moodle"
)

var imageTemplate = template.Must(template.New("image").Parse(
	`<div class="image-viewer"><h2>{{.Name}}</h2><img src="{{.URL}}" alt="{{.Filename}}" style="max-width: 100%; height: auto;"></div>`))

var forumTemplate = template.Must(template.New("forum").Parse(
	`<div class="forum-discussions">{{range .}}<div class="discussion-item"><h3>{{.Name}}</h3>` +
		`<div class="discussion-meta">{{.Author}} · {{.Date}}</div>` +
		`<div class="discussion-message">{{.Message}}</div></div>{{end}}</div>`))

const (
	forumEmptyHTML = `<div class="forum-empty"><p>There are no discussions in this forum yet.</p></div>`
	forumErrorText = `<div class="forum-error"><p>Discussions could not be loaded.</p></div>`
)

type discussionView struct {
	Name    string
	Author  string
	Date    string
	Message template.HTML
}

func imageHTML(name, fileURL, filename string) string {
	var buf bytes.Buffer
	data := struct{ Name, Filename, URL string }{Name: name, Filename: filename, URL: fileURL}
	if err := imageTemplate.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

func forumHTML(discussions []moodle.Discussion) string {
	if len(discussions) == 0 {
		return forumEmptyHTML
	}
	views := make([]discussionView, 0, len(discussions))
	for _, d := range discussions {
		name := d.Name
		if name == "" {
			name = d.Subject
		}
		ts := d.TimeModified
		if ts == 0 {
			ts = d.Created
		}
		views = append(views, discussionView{
			Name:   name,
			Author: d.UserFullName,
			Date:   time.Unix(ts, 0).Format("Jan 2, 2006"),
			// Server-authored HTML; it still goes through the markup pipeline.
			Message: template.HTML(d.Message),
		})
	}
	var buf bytes.Buffer
	if err := forumTemplate.Execute(&buf, views); err != nil {
		return forumErrorText
	}
	return buf.String()
}

func forumErrorHTML() string {
	return forumErrorText
}
