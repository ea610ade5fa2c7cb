package cli

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"campussecurity/internal/model"
)

// NewStudentsCommand creates the students command group.
func NewStudentsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Look up enrolled students",
	}
	cmd.AddCommand(newStudentsListCommand(rootOpts))
	cmd.AddCommand(newStudentsGetCommand(rootOpts))
	return cmd
}

func newStudentsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every student",
		Args:  cobra.NoArgs,
		RunE: rootOpts.runE(func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error {
			if _, err := requireUser(cmd, f, app); err != nil {
				return err
			}
			students, err := app.Records.Students.GetAll(cmd.Context())
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, "could not list students", err)
			}
			return f.Success(students, studentTable(students))
		}),
	}
}

func newStudentsGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: rootOpts.runE(func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error {
			if _, err := requireUser(cmd, f, app); err != nil {
				return err
			}
			s, err := app.Records.Students.GetByID(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, "could not load student", err)
			}
			if s == nil {
				return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no student with id %s", args[0]), nil)
			}
			return f.Success(s, studentDetail(*s))
		}),
	}
}

func studentTable(students []model.Student) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEPARTMENT\tYEAR\tSTATUS")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Department, s.Year, s.Status)
	}
	w.Flush()
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func studentDetail(s model.Student) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "id:\t%s\n", s.ID)
	fmt.Fprintf(w, "name:\t%s\n", s.Name)
	fmt.Fprintf(w, "department:\t%s\n", s.Department)
	fmt.Fprintf(w, "year:\t%d\n", s.Year)
	fmt.Fprintf(w, "status:\t%s\n", s.Status)
	fmt.Fprintf(w, "email:\t%s\n", s.ContactInfo.Email)
	fmt.Fprintf(w, "phone:\t%s\n", s.ContactInfo.Phone)
	if s.LastSeen != nil {
		fmt.Fprintf(w, "last seen:\t%s\n", s.LastSeen.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
