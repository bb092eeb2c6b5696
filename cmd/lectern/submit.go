package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/five82/lectern/internal/app"
)

var submitCmd = &cobra.Command{
	Use:   "submit <course-id> <assignment-id>",
	Short: "Save or submit online text for an assignment",
	Long: `Reads Markdown from --file (or stdin with --file -), converts it to HTML and
saves it as the online text of the assignment. The assignment may be given by
its id or its module id. With --final the draft is also submitted for grading,
which usually cannot be undone.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringP("file", "f", "", "Markdown file to submit, - for stdin")
	submitCmd.Flags().String("text", "", "Markdown text to submit")
	submitCmd.Flags().Bool("final", false, "submit for grading after saving")
	submitCmd.Flags().BoolP("yes", "y", false, "do not ask before a final submission")
	submitCmd.Flags().Bool("preview", false, "print the converted HTML and exit")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	courseID, err := intArg(args, 0, "course-id")
	if err != nil {
		return err
	}
	id, err := intArg(args, 1, "assignment-id")
	if err != nil {
		return err
	}
	final, _ := cmd.Flags().GetBool("final")
	yes, _ := cmd.Flags().GetBool("yes")
	preview, _ := cmd.Flags().GetBool("preview")

	text, err := submissionText(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		if preview {
			html, err := a.Assignments.RenderMarkdown(text)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, html)
			return nil
		}

		assign, err := a.Assignments.Find(ctx, courseID, id)
		if err != nil {
			return err
		}

		if !final {
			if err := a.Assignments.SaveDraft(ctx, assign.ID, text); err != nil {
				return err
			}
			fmt.Fprintf(out, "Draft saved for %s.\n", assign.Name)
			return nil
		}

		if !yes {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Submit %q for grading", assign.Name),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				if errors.Is(err, promptui.ErrAbort) {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
				return fmt.Errorf("confirm: %w", err)
			}
		}
		if err := a.Assignments.Submit(ctx, assign.ID, text); err != nil {
			return err
		}
		fmt.Fprintf(out, "Submitted %s for grading.\n", assign.Name)
		return nil
	})
}

func submissionText(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	switch {
	case text != "" && file != "":
		return "", errors.New("use either --text or --file")
	case text != "":
		return text, nil
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read submission: %w", err)
		}
		return string(data), nil
	default:
		return "", errors.New("nothing to submit: pass --file or --text")
	}
}
