package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/lectern/internal/app"
	"github.com/five82/lectern/internal/content"
	"github.com/five82/lectern/internal/courses"
	"github.com/five82/lectern/internal/markup"
	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/viewer"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List enrolled courses",
	Args:  cobra.NoArgs,
	RunE:  runCourses,
}

var contentsCmd = &cobra.Command{
	Use:   "contents <course-id>",
	Short: "Show a course outline with completion state",
	Args:  cobra.ExactArgs(1),
	RunE:  runContents,
}

var openCmd = &cobra.Command{
	Use:   "open <course-id> <module-id>",
	Short: "Show or open one course module",
	Long: `Resolves a course module the same way the interactive interface does. Text
content is printed; documents, videos and web pages are handed to the browser
through an auto-login link when the site allows it.`,
	Args: cobra.ExactArgs(2),
	RunE: runOpen,
}

var completeCmd = &cobra.Command{
	Use:   "complete <course-id> <module-id>",
	Short: "Toggle manual completion of a module",
	Args:  cobra.ExactArgs(2),
	RunE:  runComplete,
}

var gradesCmd = &cobra.Command{
	Use:   "grades <course-id>",
	Short: "List grade items of a course",
	Args:  cobra.ExactArgs(1),
	RunE:  runGrades,
}

func init() {
	coursesCmd.Flags().String("filter", "", "timeline filter: all, inprogress, future, past, favourites (default from prefs)")
	coursesCmd.Flags().Bool("all", false, "list every visible course grouped by category")
	coursesCmd.Flags().Bool("refresh", false, "bypass the cache")
	contentsCmd.Flags().Bool("refresh", false, "bypass the cache")
	rootCmd.AddCommand(coursesCmd, contentsCmd, openCmd, completeCmd, gradesCmd)
}

func runCourses(cmd *cobra.Command, _ []string) error {
	filter, _ := cmd.Flags().GetString("filter")
	all, _ := cmd.Flags().GetBool("all")
	refresh, _ := cmd.Flags().GetBool("refresh")

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		if all {
			groups, err := a.Courses.AllCourses(ctx, refresh)
			if err != nil {
				return err
			}
			for _, group := range groups {
				fmt.Fprintf(out, "%s\n", group.Category.Name)
				printCourses(out, group.Courses)
				fmt.Fprintln(out)
			}
			return nil
		}

		if filter == "" {
			filter = a.Prefs.Classification
		}
		list, err := a.Courses.Courses(ctx, filter, refresh)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintf(out, "No courses for filter %s.\n", filter)
			return nil
		}
		printCourses(out, list)
		return nil
	})
}

func printCourses(out io.Writer, list []moodle.Course) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSHORT\tNAME\tPROGRESS")
	for _, c := range list {
		progress := "-"
		if c.Progress != nil {
			progress = fmt.Sprintf("%.0f%%", *c.Progress)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.ShortName, c.Title(), progress)
	}
	_ = w.Flush()
}

func runContents(cmd *cobra.Command, args []string) error {
	courseID, err := intArg(args, 0, "course-id")
	if err != nil {
		return err
	}
	refresh, _ := cmd.Flags().GetBool("refresh")

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		sections, err := a.Courses.Contents(ctx, courseID, refresh)
		if err != nil {
			return err
		}
		if desc := markup.PlainText(markup.Trusted(courses.Description(sections))); desc != "" {
			fmt.Fprintf(out, "%s\n\n", desc)
		}
		p := courses.CourseProgress(sections)
		fmt.Fprintf(out, "Progress: %d/%d (%d%%)\n\n", p.Completed, p.Total, p.Percent)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, section := range sections {
			if len(section.Modules) == 0 {
				continue
			}
			name := section.Name
			if name == "" {
				name = fmt.Sprintf("Section %d", section.Section)
			}
			fmt.Fprintf(w, "%s\t\t\t\n", name)
			for _, m := range section.Modules {
				fmt.Fprintf(w, "  %s\t%d\t%s\t%s\n", completionMark(m), m.ID, m.ModName, m.Name)
			}
		}
		_ = w.Flush()

		news, err := a.Courses.Announcements(ctx, courseID)
		if err == nil && len(news) > 0 {
			fmt.Fprintln(out, "\nAnnouncements")
			for _, d := range news {
				fmt.Fprintf(out, "  %s  %s\n", time.Unix(d.TimeModified, 0).Format("2006-01-02"), d.Subject)
			}
		}
		return nil
	})
}

func completionMark(m moodle.Module) string {
	switch {
	case m.Completed():
		return "[x]"
	case courses.CanToggleCompletion(m):
		return "[ ]"
	default:
		return "   "
	}
}

// lookupModule loads the outline and finds cmid in it.
func lookupModule(ctx context.Context, a *app.App, courseID, cmid int) (moodle.Module, error) {
	sections, err := a.Courses.Contents(ctx, courseID, false)
	if err != nil {
		return moodle.Module{}, err
	}
	m, ok := courses.FindModule(sections, cmid)
	if !ok {
		return moodle.Module{}, fmt.Errorf("module %d not found in course %d", cmid, courseID)
	}
	return m, nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	courseID, err := intArg(args, 0, "course-id")
	if err != nil {
		return err
	}
	cmid, err := intArg(args, 1, "module-id")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		m, err := lookupModule(ctx, a, courseID, cmid)
		if err != nil {
			return err
		}
		d, _ := a.Selector.Select(ctx, content.Selection{CourseID: courseID, Module: m})
		fmt.Fprintf(out, "%s\n\n", d.Title)

		switch {
		case d.Delegate == content.DelegateAssignment:
			return printAssignment(ctx, out, a, courseID, m.ID)
		case d.Delegate == content.DelegateQuiz:
			summary, err := a.Quizzes.Summary(ctx, courseID, m)
			if err != nil {
				return err
			}
			if intro := markup.PlainText(markup.Trusted(summary.Quiz.Intro)); intro != "" {
				fmt.Fprintf(out, "%s\n\n", intro)
			}
			return a.Opener.Open(ctx, summary.OpenURL)
		case d.OpenURL != "":
			return nil
		case d.Kind == content.KindHTML:
			fmt.Fprintln(out, markup.PlainText(d.HTML))
			return nil
		case d.Kind != content.KindNone && d.URL != "":
			return a.Opener.Open(ctx, d.URL)
		case d.Diagnostic != "":
			return errors.New(d.Diagnostic)
		}
		return nil
	})
}

func printAssignment(ctx context.Context, out io.Writer, a *app.App, courseID, id int) error {
	assign, err := a.Assignments.Find(ctx, courseID, id)
	if err != nil {
		return err
	}
	status, err := a.Assignments.Status(ctx, assign.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Status: %s\n", viewer.BadgeFor(assign, status, time.Now()))
	if assign.DueDate > 0 {
		fmt.Fprintf(out, "Due:    %s\n", time.Unix(assign.DueDate, 0).Format("Mon 2 Jan 2006 15:04"))
	}
	if status.Feedback != nil && status.Feedback.GradeForDisplay != "" {
		fmt.Fprintf(out, "Grade:  %s\n", status.Feedback.GradeForDisplay)
	}
	if intro := markup.PlainText(markup.Trusted(assign.Intro)); intro != "" {
		fmt.Fprintf(out, "\n%s\n", intro)
	}
	if text := markup.PlainText(markup.Trusted(status.OnlineText())); text != "" {
		fmt.Fprintf(out, "\nYour submission:\n%s\n", text)
	}
	return nil
}

func runComplete(cmd *cobra.Command, args []string) error {
	courseID, err := intArg(args, 0, "course-id")
	if err != nil {
		return err
	}
	cmid, err := intArg(args, 1, "module-id")
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		m, err := lookupModule(ctx, a, courseID, cmid)
		if err != nil {
			return err
		}
		completed, err := a.Courses.ToggleCompletion(ctx, courseID, m)
		if errors.Is(err, courses.ErrNotManual) {
			return fmt.Errorf("%s is completed automatically by the site", m.Name)
		}
		if err != nil {
			return err
		}
		state := "incomplete"
		if completed {
			state = "complete"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s marked %s.\n", m.Name, state)
		return nil
	})
}

func runGrades(cmd *cobra.Command, args []string) error {
	courseID, err := intArg(args, 0, "course-id")
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		items := a.Courses.Grades(ctx, courseID)
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No grades available.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ITEM\tGRADE\tPERCENT")
		for _, item := range items {
			name := item.ItemName
			if name == "" {
				name = item.ItemType
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, orDash(item.GradeFormatted), orDash(item.PercentageFormatted))
		}
		return w.Flush()
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
