package moodle

import (
	"context"
	"errors"
	"fmt"

	"github.com/five82/lectern/internal/session"
)

// Course classifications accepted by the timeline endpoint.
const (
	ClassificationAll        = "all"
	ClassificationInProgress = "inprogress"
	ClassificationFuture     = "future"
	ClassificationPast       = "past"
	ClassificationFavourites = "favourites"
)

// SiteInfo fetches site and user information, including the capability list.
func (c *Client) SiteInfo(ctx context.Context) (SiteInfo, error) {
	var info SiteInfo
	if err := c.CallWithTimeout(ctx, c.timeouts.SiteInfo, "core_webservice_get_site_info", nil, &info); err != nil {
		return SiteInfo{}, err
	}
	return info, nil
}

// Probe fetches site info using explicit credentials instead of the session.
// It is how a candidate endpoint is tested before being saved.
func (c *Client) Probe(ctx context.Context, baseURL, token string) (SiteInfo, error) {
	cfg := session.Config{URL: baseURL, Token: token}
	if !cfg.Usable() {
		return SiteInfo{}, ErrNotConfigured
	}
	var info SiteInfo
	if err := c.call(ctx, cfg, c.timeouts.SiteInfo, "core_webservice_get_site_info", nil, &info); err != nil {
		return SiteInfo{}, err
	}
	return info, nil
}

type timelineResponse struct {
	Courses    []Course `json:"courses"`
	NextOffset int      `json:"nextoffset"`
}

// EnrolledCourses lists the user's courses for a timeline classification,
// falling back to core_enrol_get_users_courses when the timeline endpoint fails.
func (c *Client) EnrolledCourses(ctx context.Context, classification string) ([]Course, error) {
	if classification == "" {
		classification = ClassificationAll
	}
	params := Params{}.
		Add("classification", classification).
		Add("limit", 0).
		Add("offset", 0).
		Add("sort", "fullname")

	var timeline timelineResponse
	err := c.Call(ctx, "core_course_get_enrolled_courses_by_timeline_classification", params, &timeline)
	if err == nil {
		return timeline.Courses, nil
	}
	if errors.Is(err, ErrNotConfigured) {
		return nil, err
	}
	c.logger.Warn("timeline courses failed, falling back to enrolment list", "error", err)

	var courses []Course
	if fallbackErr := c.Call(ctx, "core_enrol_get_users_courses", Params{}.Add("userid", 0), &courses); fallbackErr != nil {
		return nil, fallbackErr
	}
	return courses, nil
}

// Categories lists all visible course categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.Call(ctx, "core_course_get_categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

type coursesByFieldResponse struct {
	Courses []Course `json:"courses"`
}

// CoursesByCategory lists the courses in one category.
func (c *Client) CoursesByCategory(ctx context.Context, categoryID int) ([]Course, error) {
	params := Params{}.Add("field", "category").Add("value", categoryID)
	var resp coursesByFieldResponse
	if err := c.Call(ctx, "core_course_get_courses_by_field", params, &resp); err != nil {
		return nil, err
	}
	return resp.Courses, nil
}

// CourseContents lists the sections and modules of a course.
func (c *Client) CourseContents(ctx context.Context, courseID int) ([]Section, error) {
	var sections []Section
	if err := c.Call(ctx, "core_course_get_contents", Params{}.Add("courseid", courseID), &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// Pages lists page activities of the given courses.
func (c *Client) Pages(ctx context.Context, courseIDs ...int) ([]Page, error) {
	var resp struct {
		Pages []Page `json:"pages"`
	}
	if err := c.Call(ctx, "mod_page_get_pages_by_courses", Params{}.Add("courseids", courseIDs), &resp); err != nil {
		return nil, err
	}
	return resp.Pages, nil
}

// Books lists book activities of the given courses.
func (c *Client) Books(ctx context.Context, courseIDs ...int) ([]Book, error) {
	var resp struct {
		Books []Book `json:"books"`
	}
	if err := c.Call(ctx, "mod_book_get_books_by_courses", Params{}.Add("courseids", courseIDs), &resp); err != nil {
		return nil, err
	}
	return resp.Books, nil
}

// Forums lists forums of the given courses.
func (c *Client) Forums(ctx context.Context, courseIDs ...int) ([]Forum, error) {
	var forums []Forum
	if err := c.Call(ctx, "mod_forum_get_forums_by_courses", Params{}.Add("courseids", courseIDs), &forums); err != nil {
		return nil, err
	}
	return forums, nil
}

// ForumDiscussions lists the newest discussions of a forum instance.
func (c *Client) ForumDiscussions(ctx context.Context, forumID, perPage int) ([]Discussion, error) {
	params := Params{}.
		Add("forumid", forumID).
		Add("sortorder", -1).
		Add("page", 0).
		Add("perpage", perPage)
	var resp struct {
		Discussions []Discussion `json:"discussions"`
	}
	if err := c.Call(ctx, "mod_forum_get_forum_discussions", params, &resp); err != nil {
		return nil, err
	}
	return resp.Discussions, nil
}

// Quizzes lists quizzes of the given courses.
func (c *Client) Quizzes(ctx context.Context, courseIDs ...int) ([]Quiz, error) {
	var resp struct {
		Quizzes []Quiz `json:"quizzes"`
	}
	if err := c.Call(ctx, "mod_quiz_get_quizzes_by_courses", Params{}.Add("courseids", courseIDs), &resp); err != nil {
		return nil, err
	}
	return resp.Quizzes, nil
}

// AutologinKey requests a one-time autologin key for the session token.
// It uses the shortest deadline of any call class.
func (c *Client) AutologinKey(ctx context.Context) (AutologinKey, error) {
	cfg, err := c.endpoint()
	if err != nil {
		return AutologinKey{}, err
	}
	var key AutologinKey
	params := Params{}.Add("wstoken", cfg.Token)
	if err := c.call(ctx, cfg, c.timeouts.Autologin, "tool_mobile_get_autologin_key", params, &key); err != nil {
		return AutologinKey{}, err
	}
	return key, nil
}

// Assignments lists assignments of the given courses.
func (c *Client) Assignments(ctx context.Context, courseIDs ...int) ([]Assignment, error) {
	var resp struct {
		Courses []struct {
			ID          int          `json:"id"`
			Assignments []Assignment `json:"assignments"`
		} `json:"courses"`
	}
	if err := c.Call(ctx, "mod_assign_get_assignments", Params{}.Add("courseids", courseIDs), &resp); err != nil {
		return nil, err
	}
	var out []Assignment
	for _, course := range resp.Courses {
		out = append(out, course.Assignments...)
	}
	return out, nil
}

// SubmissionStatus returns the user's submission state for an assignment.
func (c *Client) SubmissionStatus(ctx context.Context, assignID int) (SubmissionStatus, error) {
	var status SubmissionStatus
	if err := c.Call(ctx, "mod_assign_get_submission_status", Params{}.Add("assignid", assignID), &status); err != nil {
		return SubmissionStatus{}, err
	}
	return status, nil
}

// SaveSubmission stores online text (HTML) as the draft submission.
func (c *Client) SaveSubmission(ctx context.Context, assignID int, text string) error {
	params := Params{}.
		Add("assignmentid", assignID).
		Add("plugindata", Params{}.
			Add("onlinetext_editor", Params{}.
				Add("text", text).
				Add("format", 1).
				Add("itemid", 0)))
	var warnings []Warning
	if err := c.Call(ctx, "mod_assign_save_submission", params, &warnings); err != nil {
		return err
	}
	return warningError("mod_assign_save_submission", warnings)
}

// SubmitForGrading finalizes the submission, accepting the submission statement.
func (c *Client) SubmitForGrading(ctx context.Context, assignID int) error {
	params := Params{}.
		Add("assignmentid", assignID).
		Add("acceptsubmissionstatement", 1)
	var warnings []Warning
	if err := c.Call(ctx, "mod_assign_submit_for_grading", params, &warnings); err != nil {
		return err
	}
	return warningError("mod_assign_submit_for_grading", warnings)
}

// UpdateCompletion sets the manual completion state of a course module.
func (c *Client) UpdateCompletion(ctx context.Context, cmid int, completed bool) error {
	params := Params{}.Add("cmid", cmid).Add("completed", completed)
	var resp struct {
		Status   bool      `json:"status"`
		Warnings []Warning `json:"warnings"`
	}
	if err := c.Call(ctx, "core_completion_update_activity_completion_status_manually", params, &resp); err != nil {
		return err
	}
	if err := warningError("core_completion_update_activity_completion_status_manually", resp.Warnings); err != nil {
		return err
	}
	if !resp.Status {
		return &RemoteError{Function: "core_completion_update_activity_completion_status_manually", Message: "completion status was not updated"}
	}
	return nil
}

// GradeItems lists the user's grade items in a course.
func (c *Client) GradeItems(ctx context.Context, courseID int) ([]GradeItem, error) {
	var resp struct {
		UserGrades []struct {
			CourseID   int         `json:"courseid"`
			GradeItems []GradeItem `json:"gradeitems"`
		} `json:"usergrades"`
	}
	if err := c.Call(ctx, "gradereport_user_get_grade_items", Params{}.Add("courseid", courseID), &resp); err != nil {
		return nil, err
	}
	if len(resp.UserGrades) == 0 {
		return nil, nil
	}
	return resp.UserGrades[0].GradeItems, nil
}

func warningError(function string, warnings []Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	w := warnings[0]
	msg := w.Message
	if msg == "" {
		msg = fmt.Sprintf("%s: %s", function, w.WarningCode)
	}
	return &RemoteError{Function: function, ErrorCode: w.WarningCode, Message: msg}
}
