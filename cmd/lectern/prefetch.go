package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/five82/lectern/internal/app"
)

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Download course outlines into the cache for offline use",
	Args:  cobra.NoArgs,
	RunE:  runPrefetch,
}

func init() {
	prefetchCmd.Flags().String("filter", "all", "timeline filter of the courses to fetch")
	rootCmd.AddCommand(prefetchCmd)
}

func runPrefetch(cmd *cobra.Command, _ []string) error {
	filter, _ := cmd.Flags().GetString("filter")

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		list, err := a.Courses.Courses(ctx, filter, true)
		if err != nil {
			return err
		}

		bar := progressbar.NewOptions(len(list),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Fetching courses"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		failed := 0
		for _, c := range list {
			bar.Describe(c.ShortName)
			if _, err := a.Courses.Contents(ctx, c.ID, true); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed++
				a.Logger.Warn("prefetch failed", "course_id", c.ID, "error", err)
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		fmt.Fprintf(cmd.OutOrStdout(), "Cached %d of %d courses.\n", len(list)-failed, len(list))
		if failed > 0 {
			return fmt.Errorf("%d courses failed, see the log for details", failed)
		}
		return nil
	})
}
