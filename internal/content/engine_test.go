package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/session"
)

const base = "https://lms.example.edu"

type fakeGateway struct {
	pages       []moodle.Page
	pagesErr    error
	books       []moodle.Book
	booksErr    error
	discussions []moodle.Discussion
	forumErr    error
	forumID     int
	perPage     int
}

func (g *fakeGateway) Pages(context.Context, ...int) ([]moodle.Page, error) {
	return g.pages, g.pagesErr
}

func (g *fakeGateway) Books(context.Context, ...int) ([]moodle.Book, error) {
	return g.books, g.booksErr
}

func (g *fakeGateway) ForumDiscussions(_ context.Context, forumID, perPage int) ([]moodle.Discussion, error) {
	g.forumID = forumID
	g.perPage = perPage
	return g.discussions, g.forumErr
}

type fakeBridge struct {
	mu      sync.Mutex
	targets []string
}

func (b *fakeBridge) URL(_ context.Context, target string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targets = append(b.targets, target)
	return "bridged:" + target
}

type fakeOpener struct{ opened []string }

func (o *fakeOpener) Open(_ context.Context, u string) error {
	o.opened = append(o.opened, u)
	return nil
}

func newEngine(gw *fakeGateway) (*Engine, *fakeBridge, *fakeOpener) {
	bridge := &fakeBridge{}
	opener := &fakeOpener{}
	store := session.NewMemory(&session.Config{URL: base, Token: "tok"})
	return NewEngine(gw, bridge, store, Options{Opener: opener}), bridge, opener
}

func resolve(e *Engine, m moodle.Module) Directive {
	return e.Resolve(context.Background(), Selection{CourseID: 3, Module: m})
}

func file(name string) []moodle.File {
	return []moodle.File{{Filename: name, FileURL: base + "/webservice/pluginfile.php/9/mod_resource/content/1/" + name}}
}

func TestResolve_NoSession(t *testing.T) {
	e := NewEngine(&fakeGateway{}, &fakeBridge{}, session.NewMemory(nil), Options{})
	d := resolve(e, moodle.Module{ID: 1, ModName: "page"})
	if d.Kind != KindNone || d.Diagnostic == "" {
		t.Fatalf("directive = %#v, want none with diagnostic", d)
	}
}

func TestResolve_AssignmentDelegates(t *testing.T) {
	e, _, _ := newEngine(&fakeGateway{})
	d := resolve(e, moodle.Module{ID: 5, ModName: "assign", Description: "<p>Essay</p>"})
	if d.Kind != KindNone || d.Delegate != DelegateAssignment {
		t.Fatalf("directive = %#v, want assignment delegate", d)
	}
}

func TestResolve_ResourcePDFWinsOverDescription(t *testing.T) {
	e, _, _ := newEngine(&fakeGateway{})
	d := resolve(e, moodle.Module{ID: 5, ModName: "resource", Name: "Syllabus", Description: "<p>Read me</p>", Contents: file("Syllabus.PDF")})
	if d.Kind != KindPDF {
		t.Fatalf("kind = %q, want pdf", d.Kind)
	}
	if !strings.HasSuffix(d.URL, "Syllabus.PDF?token=tok") {
		t.Fatalf("url = %q, want token appended", d.URL)
	}
	if d.Title != "Syllabus" || d.ModuleID != 5 {
		t.Fatalf("directive = %#v, want title and module id", d)
	}
}

func TestResolve_ResourceClassification(t *testing.T) {
	tests := []struct {
		filename string
		want     Kind
	}{
		{"lecture.mp4", KindVideo},
		{"clip.webm", KindVideo},
		{"clip.mov", KindVideo},
		{"diagram.png", KindHTML},
		{"logo.svg", KindHTML},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			e, _, _ := newEngine(&fakeGateway{})
			d := resolve(e, moodle.Module{ID: 5, ModName: "resource", Name: "R", Contents: file(tt.filename)})
			if d.Kind != tt.want {
				t.Fatalf("kind = %q, want %q", d.Kind, tt.want)
			}
		})
	}
}

func TestResolve_ResourceImageMarkupIsEscaped(t *testing.T) {
	e, _, _ := newEngine(&fakeGateway{})
	d := resolve(e, moodle.Module{ID: 5, ModName: "resource", Name: `<b>Map</b>`, Contents: file("map.jpg")})
	html := string(d.HTML)
	if !strings.Contains(html, `class="image-viewer"`) || !strings.Contains(html, `alt="map.jpg"`) {
		t.Fatalf("html = %q, want image viewer markup", html)
	}
	if strings.Contains(html, "<b>Map</b>") {
		t.Fatalf("html = %q, want module name escaped", html)
	}
	if strings.Count(html, "token=") != 1 {
		t.Fatalf("html = %q, want a single token", html)
	}
}

func TestResolve_ResourceOtherOpensExternally(t *testing.T) {
	e, _, opener := newEngine(&fakeGateway{})
	d := resolve(e, moodle.Module{ID: 5, ModName: "resource", Contents: file("slides.pptx")})
	if d.Kind != KindNone || d.OpenURL == "" {
		t.Fatalf("directive = %#v, want none with open url", d)
	}
	if len(opener.opened) != 1 || opener.opened[0] != d.OpenURL {
		t.Fatalf("opened = %v, want %q", opener.opened, d.OpenURL)
	}
}

func TestResolve_ResourceWithoutFilesFallsThrough(t *testing.T) {
	e, _, _ := newEngine(&fakeGateway{})
	d := resolve(e, moodle.Module{ID: 5, ModName: "resource", Description: "<p>Missing file</p>"})
	if d.Kind != KindHTML || d.Rule != "fallback" {
		t.Fatalf("directive = %#v, want fallback html", d)
	}
}

func TestResolve_PageContentByInstance(t *testing.T) {
	gw := &fakeGateway{pages: []moodle.Page{
		{ID: 6, CourseModule: 46, Content: "<p>other</p>"},
		{ID: 7, CourseModule: 47, Content: "<p>Welcome @@PLUGINFILE@@</p>"},
	}}
	e, _, _ := newEngine(gw)
	d := resolve(e, moodle.Module{ID: 47, Instance: 7, ModName: "page"})
	if d.Kind != KindHTML {
		t.Fatalf("kind = %q, want html", d.Kind)
	}
	if !strings.Contains(string(d.HTML), "Welcome "+base+"/webservice/pluginfile.php") {
		t.Fatalf("html = %q, want processed page content", d.HTML)
	}
}

func TestResolve_PageFetchFailureUsesDescription(t *testing.T) {
	gw := &fakeGateway{pagesErr: &moodle.NetworkError{Op: "mod_page_get_pages_by_courses", Err: errors.New("timeout")}}
	e, _, _ := newEngine(gw)
	d := resolve(e, moodle.Module{ID: 47, Instance: 7, ModName: "page", Description: "<p>Summary</p>"})
	if d.Kind != KindHTML || !strings.Contains(string(d.HTML), "Summary") {
		t.Fatalf("directive = %#v, want html from description", d)
	}
}

func TestResolve_EmptyPageUsesModuleResources(t *testing.T) {
	gw := &fakeGateway{pages: []moodle.Page{{ID: 7, Content: ""}}}
	e, _, _ := newEngine(gw)
	d := resolve(e, moodle.Module{ID: 47, Instance: 7, ModName: "page", Contents: file("intro.mp4")})
	if d.Kind != KindVideo || !strings.Contains(d.URL, "token=tok") {
		t.Fatalf("directive = %#v, want video from first file", d)
	}

	d = resolve(e, moodle.Module{ID: 47, Instance: 7, ModName: "page"})
	if d.Kind != KindHTML || !strings.Contains(string(d.HTML), noContentText) {
		t.Fatalf("directive = %#v, want placeholder html", d)
	}
}

func TestResolve_Book(t *testing.T) {
	gw := &fakeGateway{books: []moodle.Book{{ID: 2, Intro: "<p>Book intro</p>"}}}
	e, _, _ := newEngine(gw)
	d := resolve(e, moodle.Module{ID: 20, Instance: 2, ModName: "book", Description: "<p>desc</p>"})
	if !strings.Contains(string(d.HTML), "Book intro") {
		t.Fatalf("html = %q, want book intro", d.HTML)
	}

	gw.booksErr = errors.New("boom")
	d = resolve(e, moodle.Module{ID: 20, Instance: 2, ModName: "book", Description: "<p>desc</p>"})
	if d.Kind != KindHTML || !strings.Contains(string(d.HTML), "desc") {
		t.Fatalf("directive = %#v, want description on error", d)
	}
}

func TestResolve_LabelUsesDescription(t *testing.T) {
	e, bridge, _ := newEngine(&fakeGateway{})
	d := resolve(e, moodle.Module{ID: 8, ModName: "label", Description: "<p>Note</p>"})
	if d.Kind != KindHTML || d.Rule != "content" {
		t.Fatalf("directive = %#v, want content html", d)
	}
	if len(bridge.targets) != 0 {
		t.Fatalf("bridge called %v, want none", bridge.targets)
	}
}

func TestResolve_EmbeddedModules(t *testing.T) {
	tests := []struct {
		module moodle.Module
		want   string
	}{
		{moodle.Module{ID: 11, ModName: "hvp"}, base + "/mod/hvp/embed.php?id=11&token=tok"},
		{moodle.Module{ID: 12, ModName: "scorm", URL: base + "/ignored"}, base + "/mod/scorm/view.php?id=12"},
		{moodle.Module{ID: 13, ModName: "choice", URL: base + "/mod/choice/view.php?id=13"}, base + "/mod/choice/view.php?id=13"},
		{moodle.Module{ID: 14, ModName: "feedback"}, base + "/mod/feedback/view.php?id=14"},
	}
	for _, tt := range tests {
		t.Run(tt.module.ModName, func(t *testing.T) {
			e, _, _ := newEngine(&fakeGateway{})
			d := resolve(e, tt.module)
			if d.Kind != KindIframe || d.URL != "bridged:"+tt.want {
				t.Fatalf("directive = %#v, want bridged iframe %q", d, tt.want)
			}
		})
	}
}

func TestResolve_QuizDelegatesUnlessForced(t *testing.T) {
	e, _, _ := newEngine(&fakeGateway{})
	quiz := moodle.Module{ID: 30, Instance: 4, ModName: "quiz"}

	d := resolve(e, quiz)
	if d.Kind != KindNone || d.Delegate != DelegateQuiz {
		t.Fatalf("directive = %#v, want quiz delegate", d)
	}

	e.ForceEmbed(30)
	if !e.IsForcedEmbed(30) || e.IsForcedEmbed(31) {
		t.Fatal("IsForcedEmbed mismatch")
	}
	d = resolve(e, quiz)
	if d.Kind != KindIframe || d.URL != "bridged:"+base+"/mod/quiz/view.php?id=30" {
		t.Fatalf("directive = %#v, want bridged quiz iframe", d)
	}
}

func TestResolve_Forum(t *testing.T) {
	gw := &fakeGateway{discussions: []moodle.Discussion{
		{Name: "Exam dates", UserFullName: "Dr. Ruiz", TimeModified: 1700000000, Message: "<p>See calendar</p>"},
	}}
	e, _, _ := newEngine(gw)
	d := resolve(e, moodle.Module{ID: 40, Instance: 9, ModName: "forum"})
	html := string(d.HTML)
	for _, want := range []string{"discussion-item", "Exam dates", "Dr. Ruiz", "<p>See calendar</p>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("html = %q, want it to contain %q", html, want)
		}
	}
	if gw.forumID != 9 || gw.perPage != 20 {
		t.Fatalf("forum call = (%d, %d), want instance 9 and 20 per page", gw.forumID, gw.perPage)
	}

	gw.discussions = nil
	d = resolve(e, moodle.Module{ID: 40, Instance: 9, ModName: "forum"})
	if !strings.Contains(string(d.HTML), "forum-empty") {
		t.Fatalf("html = %q, want empty fragment", d.HTML)
	}

	gw.forumErr = errors.New("denied")
	d = resolve(e, moodle.Module{ID: 40, Instance: 9, ModName: "forum"})
	if d.Kind != KindHTML || !strings.Contains(string(d.HTML), "forum-error") {
		t.Fatalf("directive = %#v, want error fragment", d)
	}
}

func TestResolve_URLModule(t *testing.T) {
	e, bridge, _ := newEngine(&fakeGateway{})

	internal := moodle.Module{ID: 50, ModName: "url", Contents: []moodle.File{{FileURL: base + "/mod/page/view.php?id=3"}}}
	d := resolve(e, internal)
	if d.Kind != KindIframe || d.URL != "bridged:"+base+"/mod/page/view.php?id=3" {
		t.Fatalf("internal directive = %#v, want bridged iframe", d)
	}

	external := moodle.Module{ID: 51, ModName: "url", Contents: []moodle.File{{FileURL: "https://en.wikipedia.org/wiki/Cell"}}}
	before := len(bridge.targets)
	d = resolve(e, external)
	if d.Kind != KindExternal || d.URL != "https://en.wikipedia.org/wiki/Cell" {
		t.Fatalf("external directive = %#v, want unbridged external", d)
	}
	if len(bridge.targets) != before {
		t.Fatal("external url was bridged")
	}

	lookalike := moodle.Module{ID: 52, ModName: "url", Contents: []moodle.File{{FileURL: "https://evil.example/?next=" + base}}}
	if d := resolve(e, lookalike); d.Kind != KindExternal {
		t.Fatalf("lookalike directive = %#v, want external", d)
	}

	unsafe := moodle.Module{ID: 53, ModName: "url", Contents: []moodle.File{{FileURL: "javascript:alert(1)"}}}
	if d := resolve(e, unsafe); d.Kind != KindNone || d.Diagnostic == "" {
		t.Fatalf("unsafe directive = %#v, want none with diagnostic", d)
	}

	file := moodle.Module{ID: 54, ModName: "url", Contents: []moodle.File{{FileURL: base + "/webservice/pluginfile.php/1/a.txt"}}}
	d = resolve(e, file)
	if d.URL != "bridged:"+base+"/webservice/pluginfile.php/1/a.txt?token=tok" {
		t.Fatalf("pluginfile directive = %#v, want token before bridging", d)
	}
}

func TestResolve_FallbackBridgesViewURL(t *testing.T) {
	e, _, _ := newEngine(&fakeGateway{})
	d := resolve(e, moodle.Module{ID: 60, ModName: "workshop"})
	if d.Kind != KindIframe || d.URL != "bridged:"+base+"/mod/workshop/view.php?id=60" {
		t.Fatalf("directive = %#v, want bridged view url", d)
	}

	d = resolve(e, moodle.Module{ID: 61, ModName: "workshop", Description: "<p>Peer review</p>"})
	if d.Kind != KindHTML {
		t.Fatalf("directive = %#v, want description html", d)
	}
}

func TestSameServer(t *testing.T) {
	tests := []struct {
		base, target string
		want         bool
	}{
		{"https://lms.example.edu", "https://lms.example.edu/mod/page/view.php?id=1", true},
		{"https://lms.example.edu", "http://lms.example.edu/mod/page/view.php", false},
		{"https://lms.example.edu/moodle", "https://lms.example.edu/moodle/mod/x", true},
		{"https://lms.example.edu/moodle", "https://lms.example.edu/moodleother/x", false},
		{"https://lms.example.edu", "https://lms.example.edu.evil.com/x", false},
	}
	for _, tt := range tests {
		if got := SameServer(tt.base, tt.target); got != tt.want {
			t.Fatalf("SameServer(%q, %q) = %v, want %v", tt.base, tt.target, got, tt.want)
		}
	}
}
