package content

import (
	"github.com/five82/lectern/internal/markup"
	"github.com/five82/lectern/internal/moodle"
)

// Kind is the presentation strategy of a directive.
type Kind string

const (
	KindNone     Kind = "none"
	KindPDF      Kind = "pdf"
	KindVideo    Kind = "video"
	KindHTML     Kind = "html"
	KindIframe   Kind = "iframe"
	KindExternal Kind = "external"
)

// Delegate names a collaborator viewer that takes over the module.
type Delegate string

const (
	DelegateAssignment Delegate = "assignment"
	DelegateQuiz       Delegate = "quiz"
)

// Directive tells a renderer what to show for one selection.
type Directive struct {
	Kind     Kind
	Title    string
	URL      string
	HTML     markup.Trusted
	ModuleID int
	Delegate Delegate
	// OpenURL is set when the module was handed to the Opener instead.
	OpenURL string
	// Diagnostic explains a KindNone result that has no delegate.
	Diagnostic string
	// Rule is the name of the rule that produced the directive.
	Rule string
}

// Selection identifies the module being resolved.
type Selection struct {
	CourseID int
	Module   moodle.Module
}
