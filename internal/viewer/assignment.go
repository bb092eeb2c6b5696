package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/five82/lectern/internal/moodle"
)

// AssignmentGateway is the subset of the API used for assignments.
type AssignmentGateway interface {
	Assignments(ctx context.Context, courseIDs ...int) ([]moodle.Assignment, error)
	SubmissionStatus(ctx context.Context, assignID int) (moodle.SubmissionStatus, error)
	SaveSubmission(ctx context.Context, assignID int, text string) error
	SubmitForGrading(ctx context.Context, assignID int) error
}

var _ AssignmentGateway = (*moodle.Client)(nil)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrEmptySubmission    = errors.New("submission text is empty")
)

// Badge summarizes where an assignment stands for the user.
type Badge string

const (
	BadgeGraded    Badge = "graded"
	BadgeSubmitted Badge = "submitted"
	BadgeOverdue   Badge = "overdue"
	BadgePending   Badge = "pending"
)

// Assignments is the assignment viewer.
type Assignments struct {
	gateway  AssignmentGateway
	markdown goldmark.Markdown
	logger   *slog.Logger
}

// NewAssignments builds the assignment viewer.
func NewAssignments(gateway AssignmentGateway, logger *slog.Logger) *Assignments {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assignments{
		gateway: gateway,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		logger: logger.With("component", "assignments"),
	}
}

// Find returns the course's assignment whose id or course-module id is id.
func (a *Assignments) Find(ctx context.Context, courseID, id int) (moodle.Assignment, error) {
	list, err := a.gateway.Assignments(ctx, courseID)
	if err != nil {
		return moodle.Assignment{}, fmt.Errorf("list assignments: %w", err)
	}
	for _, assign := range list {
		if assign.ID == id || assign.CourseModule == id {
			return assign, nil
		}
	}
	return moodle.Assignment{}, fmt.Errorf("%w: %d in course %d", ErrAssignmentNotFound, id, courseID)
}

// Status returns the user's submission status.
func (a *Assignments) Status(ctx context.Context, assignID int) (moodle.SubmissionStatus, error) {
	status, err := a.gateway.SubmissionStatus(ctx, assignID)
	if err != nil {
		return moodle.SubmissionStatus{}, fmt.Errorf("submission status: %w", err)
	}
	return status, nil
}

// SaveDraft converts text from Markdown and stores it as the online text
// draft. Server errors are returned as-is.
func (a *Assignments) SaveDraft(ctx context.Context, assignID int, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptySubmission
	}
	body, err := a.RenderMarkdown(text)
	if err != nil {
		return err
	}
	if err := a.gateway.SaveSubmission(ctx, assignID, body); err != nil {
		return err
	}
	a.logger.Info("draft saved", "assign_id", assignID)
	return nil
}

// Submit saves text and then submits the assignment for grading.
func (a *Assignments) Submit(ctx context.Context, assignID int, text string) error {
	if err := a.SaveDraft(ctx, assignID, text); err != nil {
		return err
	}
	if err := a.gateway.SubmitForGrading(ctx, assignID); err != nil {
		return err
	}
	a.logger.Info("submitted for grading", "assign_id", assignID)
	return nil
}

// RenderMarkdown converts Markdown to the HTML sent as online text.
func (a *Assignments) RenderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// BadgeFor picks the badge shown next to an assignment.
func BadgeFor(assign moodle.Assignment, status moodle.SubmissionStatus, now time.Time) Badge {
	switch {
	case status.Graded():
		return BadgeGraded
	case status.Status() == "submitted":
		return BadgeSubmitted
	case assign.DueDate > 0 && now.Unix() > assign.DueDate:
		return BadgeOverdue
	default:
		return BadgePending
	}
}
