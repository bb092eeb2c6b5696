package courses

import (
	"math"

	"github.com/five82/lectern/internal/moodle"
)

// Progress is a course's completion summary.
type Progress struct {
	Completed int
	Total     int
	Percent   int
}

// Modules flattens sections in display order.
func Modules(sections []moodle.Section) []moodle.Module {
	var out []moodle.Module
	for _, s := range sections {
		out = append(out, s.Modules...)
	}
	return out
}

// CourseProgress counts completed modules over every module except labels.
func CourseProgress(sections []moodle.Section) Progress {
	var p Progress
	for _, m := range Modules(sections) {
		if m.ModName == "label" {
			continue
		}
		p.Total++
		if m.Completed() {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
	}
	return p
}

// CanToggleCompletion reports whether the user may mark m done by hand.
func CanToggleCompletion(m moodle.Module) bool {
	if m.CompletionData != nil && m.CompletionData.Tracking != moodle.CompletionNone {
		return m.CompletionData.Tracking == moodle.CompletionManual
	}
	return m.Completion == moodle.CompletionManual
}

// Neighbors returns the navigable modules before and after cmid. Labels are
// skipped.
func Neighbors(sections []moodle.Section, cmid int) (prev, next *moodle.Module) {
	var nav []moodle.Module
	for _, m := range Modules(sections) {
		if m.ModName != "label" {
			nav = append(nav, m)
		}
	}
	for i := range nav {
		if nav[i].ID != cmid {
			continue
		}
		if i > 0 {
			prev = &nav[i-1]
		}
		if i < len(nav)-1 {
			next = &nav[i+1]
		}
		return prev, next
	}
	return nil, nil
}

// FirstContent picks the module shown when a course opens.
func FirstContent(sections []moodle.Section) (moodle.Module, bool) {
	for _, m := range Modules(sections) {
		if m.ModName != "label" && m.ModName != "forum" {
			return m, true
		}
	}
	return moodle.Module{}, false
}

// Description is the summary of the course's general section.
func Description(sections []moodle.Section) string {
	for _, s := range sections {
		if s.Section == 0 {
			return s.Summary
		}
	}
	return ""
}

// FindModule looks up a module by course-module id.
func FindModule(sections []moodle.Section, cmid int) (moodle.Module, bool) {
	for _, m := range Modules(sections) {
		if m.ID == cmid {
			return m, true
		}
	}
	return moodle.Module{}, false
}
