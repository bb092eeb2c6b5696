// Package courses serves course listings, course contents and the small
// amount of course-level logic built on top of them. Listings and contents
// go through the cache manager; writes invalidate what they change.
package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/five82/lectern/internal/cache"
	"github.com/five82/lectern/internal/moodle"
)

// Gateway is the subset of the API used by the service.
type Gateway interface {
	EnrolledCourses(ctx context.Context, classification string) ([]moodle.Course, error)
	Categories(ctx context.Context) ([]moodle.Category, error)
	CoursesByCategory(ctx context.Context, categoryID int) ([]moodle.Course, error)
	CourseContents(ctx context.Context, courseID int) ([]moodle.Section, error)
	Forums(ctx context.Context, courseIDs ...int) ([]moodle.Forum, error)
	ForumDiscussions(ctx context.Context, forumID, perPage int) ([]moodle.Discussion, error)
	UpdateCompletion(ctx context.Context, cmid int, completed bool) error
	GradeItems(ctx context.Context, courseID int) ([]moodle.GradeItem, error)
}

var _ Gateway = (*moodle.Client)(nil)

// ErrNotManual is returned when a module's completion is not user-togglable.
var ErrNotManual = errors.New("module completion is not manually tracked")

const (
	announcementCount = 5
	categoryFanout    = 4
)

// CategoryCourses groups the courses of one category.
type CategoryCourses struct {
	Category moodle.Category `json:"category"`
	Courses  []moodle.Course `json:"courses"`
}

// Service reads courses through the cache.
type Service struct {
	gateway Gateway
	cache   *cache.Manager
	logger  *slog.Logger
}

// NewService builds a Service.
func NewService(gateway Gateway, manager *cache.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, cache: manager, logger: logger.With("component", "courses")}
}

// Courses lists enrolled courses for a timeline classification.
func (s *Service) Courses(ctx context.Context, classification string, force bool) ([]moodle.Course, error) {
	if classification == "" {
		classification = moodle.ClassificationAll
	}
	courses, err := cache.Get(ctx, s.cache, cache.CoursesKey(classification), force, func(ctx context.Context) ([]moodle.Course, error) {
		return s.gateway.EnrolledCourses(ctx, classification)
	})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Contents returns a course's sections.
func (s *Service) Contents(ctx context.Context, courseID int, force bool) ([]moodle.Section, error) {
	sections, err := cache.Get(ctx, s.cache, cache.ContentKey(courseID), force, func(ctx context.Context) ([]moodle.Section, error) {
		return s.gateway.CourseContents(ctx, courseID)
	})
	if err != nil {
		return nil, fmt.Errorf("load course %d: %w", courseID, err)
	}
	return sections, nil
}

// Categories lists course categories.
func (s *Service) Categories(ctx context.Context, force bool) ([]moodle.Category, error) {
	categories, err := cache.Get(ctx, s.cache, cache.KeyCategories, force, s.gateway.Categories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// AllCourses lists every category with its courses. A category whose
// courses cannot be fetched is kept with an empty list.
func (s *Service) AllCourses(ctx context.Context, force bool) ([]CategoryCourses, error) {
	all, err := cache.Get(ctx, s.cache, cache.KeyAllCourses, force, func(ctx context.Context) ([]CategoryCourses, error) {
		categories, err := s.gateway.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return s.fanOut(ctx, categories)
	})
	if err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	return all, nil
}

func (s *Service) fanOut(ctx context.Context, categories []moodle.Category) ([]CategoryCourses, error) {
	out := make([]CategoryCourses, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(categoryFanout)
	for i, category := range categories {
		g.Go(func() error {
			courses, err := s.gateway.CoursesByCategory(gctx, category.ID)
			if err != nil {
				s.logger.Warn("category courses fetch failed", "category_id", category.ID, "error", err)
				courses = []moodle.Course{}
			}
			out[i] = CategoryCourses{Category: category, Courses: courses}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Announcements returns the newest discussions of the course's news forum.
// A course without one has no announcements.
func (s *Service) Announcements(ctx context.Context, courseID int) ([]moodle.Discussion, error) {
	forums, err := s.gateway.Forums(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list forums: %w", err)
	}
	for _, forum := range forums {
		if forum.Type != "news" {
			continue
		}
		discussions, err := s.gateway.ForumDiscussions(ctx, forum.ID, announcementCount)
		if err != nil {
			return nil, fmt.Errorf("list announcements: %w", err)
		}
		return discussions, nil
	}
	return nil, nil
}

// ToggleCompletion flips a manually tracked module's completion state and
// returns the new state. The course's cached contents are dropped.
func (s *Service) ToggleCompletion(ctx context.Context, courseID int, m moodle.Module) (bool, error) {
	if !CanToggleCompletion(m) {
		return m.Completed(), ErrNotManual
	}
	completed := !m.Completed()
	if err := s.gateway.UpdateCompletion(ctx, m.ID, completed); err != nil {
		return m.Completed(), err
	}
	s.cache.Invalidate(ctx, cache.ContentKey(courseID))
	s.logger.Info("completion updated", "course_id", courseID, "module_id", m.ID, "completed", completed)
	return completed, nil
}

// Grades lists the user's grade items. Failures degrade to an empty list.
func (s *Service) Grades(ctx context.Context, courseID int) []moodle.GradeItem {
	items, err := s.gateway.GradeItems(ctx, courseID)
	if err != nil {
		s.logger.Warn("grade items fetch failed", "course_id", courseID, "error", err)
		return nil
	}
	return items
}
