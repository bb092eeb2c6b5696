package moodle

import (
	"path"
	"strings"
)

// SiteInfo mirrors core_webservice_get_site_info.
type SiteInfo struct {
	SiteName  string     `json:"sitename"`
	Username  string     `json:"username"`
	FirstName string     `json:"firstname"`
	LastName  string     `json:"lastname"`
	FullName  string     `json:"fullname"`
	UserID    int        `json:"userid"`
	SiteURL   string     `json:"siteurl"`
	Release   string     `json:"release"`
	Version   string     `json:"version"`
	Functions []Function `json:"functions"`
}

// Function is one entry of the advertised capability list.
type Function struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FunctionNames returns the advertised function names in server order.
func (s SiteInfo) FunctionNames() []string {
	names := make([]string, 0, len(s.Functions))
	for _, fn := range s.Functions {
		if fn.Name != "" {
			names = append(names, fn.Name)
		}
	}
	return names
}

// Course is the common subset of the course listing endpoints.
type Course struct {
	ID           int      `json:"id"`
	ShortName    string   `json:"shortname"`
	FullName     string   `json:"fullname"`
	DisplayName  string   `json:"displayname,omitempty"`
	Summary      string   `json:"summary"`
	CategoryID   int      `json:"categoryid,omitempty"`
	CategoryName string   `json:"categoryname,omitempty"`
	CourseImage  string   `json:"courseimage,omitempty"`
	Progress     *float64 `json:"progress,omitempty"`
	StartDate    int64    `json:"startdate,omitempty"`
	EndDate      int64    `json:"enddate,omitempty"`
	Visible      int      `json:"visible,omitempty"`
}

// Title prefers the display name.
func (c Course) Title() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.FullName != "" {
		return c.FullName
	}
	return c.ShortName
}

// Category mirrors core_course_get_categories.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Parent      int    `json:"parent"`
	CourseCount int    `json:"coursecount"`
	Depth       int    `json:"depth"`
	Path        string `json:"path"`
	Visible     int    `json:"visible"`
}

// Section is a course section with its modules.
type Section struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Summary     string   `json:"summary"`
	Section     int      `json:"section"`
	Visible     int      `json:"visible"`
	UserVisible bool     `json:"uservisible"`
	Modules     []Module `json:"modules"`
}

// Completion tracking modes.
const (
	CompletionNone      = 0
	CompletionManual    = 1
	CompletionAutomatic = 2
)

// Completion states.
const (
	StateIncomplete   = 0
	StateComplete     = 1
	StateCompletePass = 2
	StateCompleteFail = 3
)

// Module is a course module (activity or resource). ID is the course-module
// id; Instance is the id in the module type's own table.
type Module struct {
	ID             int             `json:"id"`
	Instance       int             `json:"instance"`
	Name           string          `json:"name"`
	ModName        string          `json:"modname"`
	URL            string          `json:"url,omitempty"`
	Description    string          `json:"description,omitempty"`
	Visible        int             `json:"visible"`
	UserVisible    bool            `json:"uservisible"`
	Contents       []File          `json:"contents,omitempty"`
	Completion     int             `json:"completion"`
	CompletionData *CompletionData `json:"completiondata,omitempty"`
}

// CompletionData is the per-user completion record of a module.
type CompletionData struct {
	State         int   `json:"state"`
	TimeCompleted int64 `json:"timecompleted"`
	Tracking      int   `json:"tracking,omitempty"`
	IsAutomatic   bool  `json:"isautomatic,omitempty"`
}

// FirstFile returns the module's first content file.
func (m Module) FirstFile() (File, bool) {
	if len(m.Contents) == 0 {
		return File{}, false
	}
	return m.Contents[0], true
}

// Completed reports whether the module is marked complete.
func (m Module) Completed() bool {
	return m.CompletionData != nil && m.CompletionData.State == StateComplete
}

// File is a module content file.
type File struct {
	Type         string `json:"type"`
	Filename     string `json:"filename"`
	FilePath     string `json:"filepath"`
	FileSize     int64  `json:"filesize"`
	FileURL      string `json:"fileurl"`
	TimeCreated  int64  `json:"timecreated"`
	TimeModified int64  `json:"timemodified"`
	MimeType     string `json:"mimetype,omitempty"`
}

// Extension returns the lowercased text after the last dot of the filename.
func (f File) Extension() string {
	ext := strings.TrimPrefix(path.Ext(f.Filename), ".")
	return strings.ToLower(ext)
}

// Page mirrors mod_page_get_pages_by_courses entries.
type Page struct {
	ID            int    `json:"id"`
	CourseModule  int    `json:"coursemodule"`
	Course        int    `json:"course"`
	Name          string `json:"name"`
	Intro         string `json:"intro"`
	Content       string `json:"content"`
	ContentFormat int    `json:"contentformat"`
}

// Book mirrors mod_book_get_books_by_courses entries.
type Book struct {
	ID           int    `json:"id"`
	CourseModule int    `json:"coursemodule"`
	Course       int    `json:"course"`
	Name         string `json:"name"`
	Intro        string `json:"intro"`
}

// Forum mirrors mod_forum_get_forums_by_courses entries.
type Forum struct {
	ID           int    `json:"id"`
	Course       int    `json:"course"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Intro        string `json:"intro"`
	CourseModule int    `json:"cmid"`
}

// Discussion mirrors mod_forum_get_forum_discussions entries.
type Discussion struct {
	ID           int    `json:"id"`
	Discussion   int    `json:"discussion"`
	Name         string `json:"name"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	UserFullName string `json:"userfullname"`
	TimeModified int64  `json:"timemodified"`
	Created      int64  `json:"created"`
	Pinned       bool   `json:"pinned"`
}

// Quiz mirrors mod_quiz_get_quizzes_by_courses entries.
type Quiz struct {
	ID           int     `json:"id"`
	Course       int     `json:"course"`
	CourseModule int     `json:"coursemodule"`
	Name         string  `json:"name"`
	Intro        string  `json:"intro"`
	TimeOpen     int64   `json:"timeopen"`
	TimeClose    int64   `json:"timeclose"`
	TimeLimit    int64   `json:"timelimit"`
	Attempts     int     `json:"attempts"`
	GradeMethod  int     `json:"grademethod"`
	SumGrades    float64 `json:"sumgrades"`
	Grade        float64 `json:"grade"`
}

// Assignment mirrors mod_assign_get_assignments entries.
type Assignment struct {
	ID                       int    `json:"id"`
	CourseModule             int    `json:"cmid"`
	Course                   int    `json:"course"`
	Name                     string `json:"name"`
	Intro                    string `json:"intro"`
	DueDate                  int64  `json:"duedate"`
	AllowSubmissionsFromDate int64  `json:"allowsubmissionsfromdate"`
	CutoffDate               int64  `json:"cutoffdate"`
	Grade                    int    `json:"grade"`
}

// SubmissionStatus mirrors mod_assign_get_submission_status.
type SubmissionStatus struct {
	LastAttempt *LastAttempt `json:"lastattempt,omitempty"`
	Feedback    *Feedback    `json:"feedback,omitempty"`
}

// LastAttempt is the user's latest submission attempt.
type LastAttempt struct {
	Submission    *Submission `json:"submission,omitempty"`
	CanEdit       bool        `json:"canedit"`
	CanSubmit     bool        `json:"cansubmit"`
	GradingStatus string      `json:"gradingstatus"`
}

// Submission is one submission record.
type Submission struct {
	ID           int                `json:"id"`
	Status       string             `json:"status"`
	TimeModified int64              `json:"timemodified"`
	Plugins      []SubmissionPlugin `json:"plugins"`
}

// SubmissionPlugin carries plugin-specific submission data.
type SubmissionPlugin struct {
	Type         string        `json:"type"`
	Name         string        `json:"name"`
	EditorFields []EditorField `json:"editorfields,omitempty"`
}

// EditorField is one rich-text field of a submission plugin.
type EditorField struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Format int    `json:"format"`
}

// Feedback is the grader's response.
type Feedback struct {
	GradeForDisplay string `json:"gradefordisplay"`
	GradedDate      int64  `json:"gradeddate"`
}

// OnlineText returns the online text of the last attempt, if any.
func (s SubmissionStatus) OnlineText() string {
	if s.LastAttempt == nil || s.LastAttempt.Submission == nil {
		return ""
	}
	for _, plugin := range s.LastAttempt.Submission.Plugins {
		if plugin.Type != "onlinetext" {
			continue
		}
		for _, field := range plugin.EditorFields {
			if field.Text != "" {
				return field.Text
			}
		}
	}
	return ""
}

// Status returns the submission status string, empty when none exists.
func (s SubmissionStatus) Status() string {
	if s.LastAttempt == nil || s.LastAttempt.Submission == nil {
		return ""
	}
	return s.LastAttempt.Submission.Status
}

// Graded reports whether grading has happened.
func (s SubmissionStatus) Graded() bool {
	if s.LastAttempt != nil && s.LastAttempt.GradingStatus == "graded" {
		return true
	}
	return s.Feedback != nil && s.Feedback.GradeForDisplay != ""
}

// AutologinKey mirrors tool_mobile_get_autologin_key.
type AutologinKey struct {
	Key          string `json:"key"`
	AutologinURL string `json:"autologinurl"`
}

// GradeItem mirrors one gradereport_user_get_grade_items item.
type GradeItem struct {
	ID                  int      `json:"id"`
	ItemName            string   `json:"itemname"`
	ItemType            string   `json:"itemtype"`
	ItemModule          string   `json:"itemmodule"`
	GradeRaw            *float64 `json:"graderaw"`
	GradeFormatted      string   `json:"gradeformatted"`
	PercentageFormatted string   `json:"percentageformatted"`
	Feedback            string   `json:"feedback"`
}

// Warning is a non-fatal message in write responses.
type Warning struct {
	Item        string `json:"item"`
	ItemID      int    `json:"itemid"`
	WarningCode string `json:"warningcode"`
	Message     string `json:"message"`
}
