package content

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/five82/lectern/internal/markup"
	"github.com/five82/lectern/internal/moodle"
)

var (
	videoExtensions = []string{"mp4", "webm", "ogg", "mov"}
	imageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}
	contentModules  = []string{"page", "label", "book", "lesson", "glossary", "wiki"}
	embeddedModules = []string{"hvp", "scorm", "choice", "feedback", "survey", "lesson"}
)

const (
	forumPageSize = 20

	noContentText = "No content available."
	fileOnlyText  = "Content available as a downloadable file."
)

func (e *Engine) assignmentRule(_ context.Context, r request) (Directive, bool) {
	if r.sel.Module.ModName != "assign" {
		return Directive{}, false
	}
	return Directive{Kind: KindNone, Delegate: DelegateAssignment}, true
}

func (e *Engine) resourceRule(ctx context.Context, r request) (Directive, bool) {
	m := r.sel.Module
	if m.ModName != "resource" {
		return Directive{}, false
	}
	file, ok := m.FirstFile()
	if !ok || file.FileURL == "" {
		return Directive{}, false
	}
	fileURL := markup.AppendToken(file.FileURL, r.cfg.Token)

	switch ext := file.Extension(); {
	case ext == "pdf":
		return Directive{Kind: KindPDF, URL: fileURL}, true
	case slices.Contains(videoExtensions, ext):
		return Directive{Kind: KindVideo, URL: fileURL}, true
	case slices.Contains(imageExtensions, ext):
		return Directive{Kind: KindHTML, URL: fileURL, HTML: r.pipe.Process(imageHTML(m.Name, fileURL, file.Filename))}, true
	}

	if e.opener != nil {
		if err := e.opener.Open(ctx, fileURL); err != nil {
			e.logger.Warn("open resource externally failed", "module_id", m.ID, "error", err)
		}
	}
	return Directive{Kind: KindNone, OpenURL: fileURL}, true
}

func (e *Engine) contentRule(ctx context.Context, r request) (Directive, bool) {
	m := r.sel.Module
	if !slices.Contains(contentModules, m.ModName) {
		return Directive{}, false
	}
	switch m.ModName {
	case "page":
		return e.pageDirective(ctx, r), true
	case "book":
		return e.bookDirective(ctx, r), true
	}
	return htmlDirective(r, m.Description), true
}

func (e *Engine) pageDirective(ctx context.Context, r request) Directive {
	m := r.sel.Module
	id := instanceID(m)
	pages, err := e.gateway.Pages(ctx, r.sel.CourseID)
	if err != nil {
		e.logger.Warn("page fetch failed, using module resources", "module_id", m.ID, "instance", id, "error", err)
		return moduleResources(r)
	}
	for _, p := range pages {
		if p.ID == id || p.CourseModule == id {
			if strings.TrimSpace(p.Content) != "" {
				return htmlDirective(r, p.Content)
			}
			break
		}
	}
	return moduleResources(r)
}

func (e *Engine) bookDirective(ctx context.Context, r request) Directive {
	m := r.sel.Module
	id := instanceID(m)
	books, err := e.gateway.Books(ctx, r.sel.CourseID)
	if err != nil {
		e.logger.Warn("book fetch failed, using description", "module_id", m.ID, "instance", id, "error", err)
		return htmlDirective(r, m.Description)
	}
	for _, b := range books {
		if b.ID == id || b.CourseModule == id {
			if b.Intro != "" {
				return htmlDirective(r, b.Intro)
			}
			break
		}
	}
	return htmlDirective(r, m.Description)
}

// moduleResources presents a content module by its first file when the
// type-specific fetch gave nothing usable.
func moduleResources(r request) Directive {
	m := r.sel.Module
	file, ok := m.FirstFile()
	if !ok {
		return htmlDirective(r, orDefault(m.Description, noContentText))
	}
	fileURL := markup.AppendToken(file.FileURL, r.cfg.Token)
	switch ext := file.Extension(); {
	case slices.Contains(videoExtensions, ext):
		return Directive{Kind: KindVideo, URL: fileURL}
	case slices.Contains(imageExtensions, ext):
		return Directive{Kind: KindHTML, URL: fileURL, HTML: r.pipe.Process(imageHTML(m.Name, fileURL, file.Filename))}
	}
	return htmlDirective(r, orDefault(m.Description, fileOnlyText))
}

func (e *Engine) embeddedRule(ctx context.Context, r request) (Directive, bool) {
	m := r.sel.Module
	forcedQuiz := m.ModName == "quiz" && e.IsForcedEmbed(m.ID)
	if !slices.Contains(embeddedModules, m.ModName) && !forcedQuiz {
		return Directive{}, false
	}

	var target string
	switch m.ModName {
	case "hvp":
		target = fmt.Sprintf("%s/mod/hvp/embed.php?id=%d", r.cfg.URL, m.ID)
		if r.cfg.Token != "" {
			target += "&token=" + url.QueryEscape(r.cfg.Token)
		}
	case "scorm":
		target = fmt.Sprintf("%s/mod/scorm/view.php?id=%d", r.cfg.URL, m.ID)
	default:
		target = ViewURL(r.cfg.URL, m)
	}
	return Directive{Kind: KindIframe, URL: e.bridge.URL(ctx, target)}, true
}

func (e *Engine) quizRule(_ context.Context, r request) (Directive, bool) {
	if r.sel.Module.ModName != "quiz" {
		return Directive{}, false
	}
	return Directive{Kind: KindNone, Delegate: DelegateQuiz}, true
}

func (e *Engine) forumRule(ctx context.Context, r request) (Directive, bool) {
	m := r.sel.Module
	if m.ModName != "forum" {
		return Directive{}, false
	}
	discussions, err := e.gateway.ForumDiscussions(ctx, instanceID(m), forumPageSize)
	if err != nil {
		e.logger.Warn("forum discussions fetch failed", "module_id", m.ID, "forum", instanceID(m), "error", err)
		return Directive{Kind: KindHTML, HTML: r.pipe.Process(forumErrorHTML())}, true
	}
	return Directive{Kind: KindHTML, HTML: r.pipe.Process(forumHTML(discussions))}, true
}

func (e *Engine) urlRule(ctx context.Context, r request) (Directive, bool) {
	m := r.sel.Module
	if m.ModName != "url" {
		return Directive{}, false
	}
	file, ok := m.FirstFile()
	if !ok || file.FileURL == "" {
		return Directive{}, false
	}
	target := file.FileURL
	if strings.Contains(target, "pluginfile.php") {
		target = markup.AppendToken(target, r.cfg.Token)
	}

	if SameServer(r.cfg.URL, target) {
		return Directive{Kind: KindIframe, URL: e.bridge.URL(ctx, target)}, true
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Directive{Kind: KindNone, Diagnostic: "unsupported link target " + target}, true
	}
	return Directive{Kind: KindExternal, URL: target}, true
}

func (e *Engine) fallbackRule(ctx context.Context, r request) (Directive, bool) {
	m := r.sel.Module
	if strings.TrimSpace(m.Description) != "" {
		return htmlDirective(r, m.Description), true
	}
	target := ViewURL(r.cfg.URL, m)
	return Directive{Kind: KindIframe, URL: e.bridge.URL(ctx, target)}, true
}

// ViewURL is the module's canonical page on the site.
func ViewURL(baseURL string, m moodle.Module) string {
	if m.URL != "" {
		return m.URL
	}
	return fmt.Sprintf("%s/mod/%s/view.php?id=%d", strings.TrimRight(baseURL, "/"), m.ModName, m.ID)
}

// SameServer reports whether target lives under the site at baseURL: same
// scheme, host and path prefix.
func SameServer(baseURL, target string) bool {
	base, err := moodle.ParseBaseURL(baseURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return false
	}
	if base.Path == "" {
		return true
	}
	return u.Path == base.Path || strings.HasPrefix(u.Path, base.Path+"/")
}

func instanceID(m moodle.Module) int {
	if m.Instance != 0 {
		return m.Instance
	}
	return m.ID
}

func htmlDirective(r request, fragment string) Directive {
	return Directive{Kind: KindHTML, HTML: r.pipe.Process(fragment)}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
