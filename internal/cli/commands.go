package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"AssignmentBoard/internal/domain"
	"AssignmentBoard/internal/reconcile"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func (c *CLI) listCommand() *cobra.Command {
	var (
		course string
		search string
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments grouped by intake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			groups, err := c.app.Catalog().List(cmd.Context(), reconcile.Query{CourseID: course, SearchText: search})
			if err != nil {
				return err
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			return writeGroups(cmd.OutOrStdout(), groups, c.now())
		},
	}
	cmd.Flags().StringVar(&course, "course", reconcile.AllCourses, "course id, or \"all\"")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text to match in title or description")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json")
	return cmd
}

func (c *CLI) showCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <course> <id>",
		Short: "Show one assignment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			rec, err := c.app.Catalog().Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			return writeAssignment(cmd.OutOrStdout(), rec, c.now())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json")
	return cmd
}

func (c *CLI) coursesCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			courses, err := c.app.Catalog().Courses(cmd.Context())
			if err != nil {
				return err
			}
			if courses == nil {
				courses = []domain.CourseRecord{}
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), courses)
			}
			return writeCourses(cmd.OutOrStdout(), courses)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json")
	return cmd
}

func (c *CLI) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON read API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Serve(cmd.Context())
		},
	}
}

func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Refresh periodically and send due-date reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Watch(cmd.Context())
		},
	}
}

func checkOutput(output string) error {
	switch output {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
