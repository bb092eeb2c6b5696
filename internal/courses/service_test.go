package courses

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/five82/lectern/internal/cache"
	"github.com/five82/lectern/internal/moodle"
)

type fakeGateway struct {
	mu             sync.Mutex
	courses        map[string][]moodle.Course
	categories     []moodle.Category
	byCategory     map[int][]moodle.Course
	failCategories map[int]bool
	sections       []moodle.Section
	contentCalls   int
	forums         []moodle.Forum
	discussions    []moodle.Discussion
	discussionArgs [2]int
	completions    []bool
	completionErr  error
	grades         []moodle.GradeItem
	gradesErr      error
}

func (g *fakeGateway) EnrolledCourses(_ context.Context, classification string) ([]moodle.Course, error) {
	return g.courses[classification], nil
}

func (g *fakeGateway) Categories(context.Context) ([]moodle.Category, error) {
	return g.categories, nil
}

func (g *fakeGateway) CoursesByCategory(_ context.Context, id int) ([]moodle.Course, error) {
	if g.failCategories[id] {
		return nil, &moodle.RemoteError{Function: "core_course_get_courses_by_field", Message: "denied"}
	}
	return g.byCategory[id], nil
}

func (g *fakeGateway) CourseContents(context.Context, int) ([]moodle.Section, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contentCalls++
	return g.sections, nil
}

func (g *fakeGateway) Forums(context.Context, ...int) ([]moodle.Forum, error) {
	return g.forums, nil
}

func (g *fakeGateway) ForumDiscussions(_ context.Context, forumID, perPage int) ([]moodle.Discussion, error) {
	g.discussionArgs = [2]int{forumID, perPage}
	return g.discussions, nil
}

func (g *fakeGateway) UpdateCompletion(_ context.Context, _ int, completed bool) error {
	if g.completionErr != nil {
		return g.completionErr
	}
	g.completions = append(g.completions, completed)
	return nil
}

func (g *fakeGateway) GradeItems(context.Context, int) ([]moodle.GradeItem, error) {
	return g.grades, g.gradesErr
}

func newService(g *fakeGateway) *Service {
	return NewService(g, cache.NewManager(nil, cache.Options{}), nil)
}

func TestCourses_DefaultClassification(t *testing.T) {
	g := &fakeGateway{courses: map[string][]moodle.Course{
		moodle.ClassificationAll: {{ID: 1, FullName: "Biology"}},
	}}
	got, err := newService(g).Courses(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Courses: %v", err)
	}
	if len(got) != 1 || got[0].Title() != "Biology" {
		t.Fatalf("Courses = %#v, want Biology", got)
	}
}

func TestContents_CachedUntilForced(t *testing.T) {
	g := &fakeGateway{sections: []moodle.Section{{Section: 0, Summary: "Intro"}}}
	s := newService(g)
	ctx := context.Background()

	for range 2 {
		if _, err := s.Contents(ctx, 7, false); err != nil {
			t.Fatalf("Contents: %v", err)
		}
	}
	if g.contentCalls != 1 {
		t.Fatalf("contentCalls = %d, want 1", g.contentCalls)
	}
	if _, err := s.Contents(ctx, 7, true); err != nil {
		t.Fatalf("Contents(force): %v", err)
	}
	if g.contentCalls != 2 {
		t.Fatalf("contentCalls = %d, want 2", g.contentCalls)
	}
}

func TestAllCourses_FailedCategoryIsEmpty(t *testing.T) {
	g := &fakeGateway{
		categories: []moodle.Category{{ID: 1, Name: "Science"}, {ID: 2, Name: "Arts"}, {ID: 3, Name: "Law"}},
		byCategory: map[int][]moodle.Course{
			1: {{ID: 10}, {ID: 11}},
			3: {{ID: 30}},
		},
		failCategories: map[int]bool{2: true},
	}
	all, err := newService(g).AllCourses(context.Background(), false)
	if err != nil {
		t.Fatalf("AllCourses: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	wantCounts := []int{2, 0, 1}
	for i, cc := range all {
		if cc.Category.ID != i+1 {
			t.Fatalf("all[%d].Category.ID = %d, want %d", i, cc.Category.ID, i+1)
		}
		if len(cc.Courses) != wantCounts[i] {
			t.Fatalf("all[%d] has %d courses, want %d", i, len(cc.Courses), wantCounts[i])
		}
	}
}

func TestAnnouncements(t *testing.T) {
	g := &fakeGateway{
		forums: []moodle.Forum{
			{ID: 4, Type: "general"},
			{ID: 5, Type: "news"},
		},
		discussions: []moodle.Discussion{{Name: "Welcome"}},
	}
	got, err := newService(g).Announcements(context.Background(), 1)
	if err != nil {
		t.Fatalf("Announcements: %v", err)
	}
	if len(got) != 1 || g.discussionArgs != [2]int{5, 5} {
		t.Fatalf("Announcements = %#v args %v, want news forum with 5 per page", got, g.discussionArgs)
	}

	g.forums = []moodle.Forum{{ID: 4, Type: "general"}}
	got, err = newService(g).Announcements(context.Background(), 1)
	if err != nil || got != nil {
		t.Fatalf("Announcements = %#v, %v; want nil, nil", got, err)
	}
}

func TestToggleCompletion(t *testing.T) {
	g := &fakeGateway{sections: []moodle.Section{{}}}
	s := newService(g)
	ctx := context.Background()
	if _, err := s.Contents(ctx, 9, false); err != nil {
		t.Fatalf("Contents: %v", err)
	}

	manual := moodle.Module{ID: 3, Completion: moodle.CompletionManual, CompletionData: &moodle.CompletionData{State: moodle.StateIncomplete}}
	completed, err := s.ToggleCompletion(ctx, 9, manual)
	if err != nil {
		t.Fatalf("ToggleCompletion: %v", err)
	}
	if !completed || len(g.completions) != 1 || !g.completions[0] {
		t.Fatalf("completed = %v calls = %v, want true", completed, g.completions)
	}
	if _, ok := cache.Peek[[]moodle.Section](s.cache, cache.ContentKey(9)); ok {
		t.Fatal("course contents still cached after toggle")
	}

	auto := moodle.Module{ID: 4, Completion: moodle.CompletionAutomatic}
	if _, err := s.ToggleCompletion(ctx, 9, auto); !errors.Is(err, ErrNotManual) {
		t.Fatalf("ToggleCompletion(auto) error = %v, want ErrNotManual", err)
	}

	g.completionErr = &moodle.RemoteError{Message: "nope"}
	if _, err := s.ToggleCompletion(ctx, 9, manual); err == nil || err.Error() != "nope" {
		t.Fatalf("ToggleCompletion error = %v, want server message", err)
	}
}

func TestGrades_DegradeToEmpty(t *testing.T) {
	g := &fakeGateway{gradesErr: errors.New("no report")}
	if got := newService(g).Grades(context.Background(), 1); len(got) != 0 {
		t.Fatalf("Grades = %#v, want empty", got)
	}
}
