package viewer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/five82/lectern/internal/moodle"
)

type fakeAssignGateway struct {
	assignments []moodle.Assignment
	status      moodle.SubmissionStatus
	saved       []string
	submitted   []int
	saveErr     error
	calls       []string
}

func (g *fakeAssignGateway) Assignments(context.Context, ...int) ([]moodle.Assignment, error) {
	return g.assignments, nil
}

func (g *fakeAssignGateway) SubmissionStatus(context.Context, int) (moodle.SubmissionStatus, error) {
	return g.status, nil
}

func (g *fakeAssignGateway) SaveSubmission(_ context.Context, _ int, text string) error {
	g.calls = append(g.calls, "save")
	if g.saveErr != nil {
		return g.saveErr
	}
	g.saved = append(g.saved, text)
	return nil
}

func (g *fakeAssignGateway) SubmitForGrading(_ context.Context, id int) error {
	g.calls = append(g.calls, "submit")
	g.submitted = append(g.submitted, id)
	return nil
}

func TestFind_ByIDOrCourseModule(t *testing.T) {
	g := &fakeAssignGateway{assignments: []moodle.Assignment{{ID: 4, CourseModule: 40, Name: "Essay"}}}
	a := NewAssignments(g, nil)
	for _, id := range []int{4, 40} {
		got, err := a.Find(context.Background(), 1, id)
		if err != nil || got.Name != "Essay" {
			t.Fatalf("Find(%d) = %#v, %v; want Essay", id, got, err)
		}
	}
	if _, err := a.Find(context.Background(), 1, 5); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("Find(5) error = %v, want ErrAssignmentNotFound", err)
	}
}

func TestSaveDraft_RendersMarkdown(t *testing.T) {
	g := &fakeAssignGateway{}
	a := NewAssignments(g, nil)
	if err := a.SaveDraft(context.Background(), 4, "# Title\n\nSome **bold** text"); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if len(g.saved) != 1 {
		t.Fatalf("saved = %v, want one call", g.saved)
	}
	for _, want := range []string{"<h1>Title</h1>", "<strong>bold</strong>"} {
		if !strings.Contains(g.saved[0], want) {
			t.Fatalf("saved = %q, want it to contain %q", g.saved[0], want)
		}
	}
}

func TestSaveDraft_RejectsEmpty(t *testing.T) {
	g := &fakeAssignGateway{}
	if err := NewAssignments(g, nil).SaveDraft(context.Background(), 4, "  \n"); !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("SaveDraft error = %v, want ErrEmptySubmission", err)
	}
	if len(g.calls) != 0 {
		t.Fatalf("calls = %v, want none", g.calls)
	}
}

func TestSubmit_SavesThenSubmits(t *testing.T) {
	g := &fakeAssignGateway{}
	if err := NewAssignments(g, nil).Submit(context.Background(), 4, "done"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if strings.Join(g.calls, ",") != "save,submit" {
		t.Fatalf("calls = %v, want save then submit", g.calls)
	}

	g = &fakeAssignGateway{saveErr: &moodle.RemoteError{Message: "Submissions closed"}}
	err := NewAssignments(g, nil).Submit(context.Background(), 4, "done")
	if err == nil || err.Error() != "Submissions closed" {
		t.Fatalf("Submit error = %v, want server message", err)
	}
	if len(g.submitted) != 0 {
		t.Fatal("submitted after failed save")
	}
}

func TestBadgeFor(t *testing.T) {
	now := time.Unix(2_000_000, 0)
	submitted := moodle.SubmissionStatus{LastAttempt: &moodle.LastAttempt{Submission: &moodle.Submission{Status: "submitted"}}}
	graded := moodle.SubmissionStatus{Feedback: &moodle.Feedback{GradeForDisplay: "9.00 / 10.00"}}
	tests := []struct {
		name   string
		assign moodle.Assignment
		status moodle.SubmissionStatus
		want   Badge
	}{
		{"graded", moodle.Assignment{DueDate: 1}, graded, BadgeGraded},
		{"submitted", moodle.Assignment{DueDate: 1}, submitted, BadgeSubmitted},
		{"overdue", moodle.Assignment{DueDate: 1_000_000}, moodle.SubmissionStatus{}, BadgeOverdue},
		{"pending future", moodle.Assignment{DueDate: 3_000_000}, moodle.SubmissionStatus{}, BadgePending},
		{"pending no due date", moodle.Assignment{}, moodle.SubmissionStatus{}, BadgePending},
	}
	for _, tt := range tests {
		if got := BadgeFor(tt.assign, tt.status, now); got != tt.want {
			t.Fatalf("%s: BadgeFor = %q, want %q", tt.name, got, tt.want)
		}
	}
}
