package cli

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"teacherdesk/internal/student"
)

type studentFlags struct {
	grade, classNum, studentNum int
	name, phone, address        string
	guardian1, guardian2        string
}

func (f *studentFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.grade, "grade", 0, "Grade")
	cmd.Flags().IntVar(&f.classNum, "class", 0, "Class number")
	cmd.Flags().IntVar(&f.studentNum, "number", 0, "Student number within the class")
	cmd.Flags().StringVar(&f.name, "name", "", "Full name")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&f.address, "address", "", "Home address")
	cmd.Flags().StringVar(&f.guardian1, "guardian1", "", "First guardian phone")
	cmd.Flags().StringVar(&f.guardian2, "guardian2", "", "Second guardian phone")
}

// apply copies the flags the user set onto st.
func (f *studentFlags) apply(cmd *cobra.Command, st *student.Student) {
	set := cmd.Flags().Changed
	if set("grade") {
		st.Grade = f.grade
	}
	if set("class") {
		st.ClassNum = f.classNum
	}
	if set("number") {
		st.StudentNum = f.studentNum
	}
	if set("name") {
		st.Name = f.name
	}
	optional := func(flag, v string, dst **string) {
		if set(flag) {
			if v == "" {
				*dst = nil
			} else {
				*dst = &v
			}
		}
	}
	optional("phone", f.phone, &st.Phone)
	optional("address", f.address, &st.Address)
	optional("guardian1", f.guardian1, &st.GuardianPhone1)
	optional("guardian2", f.guardian2, &st.GuardianPhone2)
}

func newStudentsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "students",
		Aliases: []string{"student"},
		Short:   "Manage the student roster",
	}
	cmd.AddCommand(
		newStudentsListCmd(o),
		newStudentsShowCmd(o),
		newStudentsAddCmd(o),
		newStudentsImportCmd(o),
		newStudentsUpdateCmd(o),
		newStudentsDeleteCmd(o),
		newStudentsDeleteAllCmd(o),
		newStudentsConsultCmd(o),
		newStudentsSummarizeCmd(o),
	)
	return cmd
}

func newStudentsListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := o.app.Students.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			return o.printStudents(cmd, list)
		},
	}
}

func newStudentsShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one student with consultations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.findStudent(cmd, args[0])
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, st)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %d\n", st.ID)
			fmt.Fprintf(out, "Name:      %s\n", st.Name)
			fmt.Fprintf(out, "Class:     %d-%d #%d\n", st.Grade, st.ClassNum, st.StudentNum)
			fmt.Fprintf(out, "Phone:     %s\n", deref(st.Phone))
			fmt.Fprintf(out, "Address:   %s\n", deref(st.Address))
			fmt.Fprintf(out, "Guardians: %s, %s\n", deref(st.GuardianPhone1), deref(st.GuardianPhone2))
			if len(st.Consultations) == 0 {
				fmt.Fprintln(out, "\nNo consultations recorded.")
				return nil
			}
			fmt.Fprintln(out, "\nConsultations:")
			for _, c := range st.Consultations {
				fmt.Fprintf(out, "  %s  %s\n", c.Date, c.Content)
			}
			return nil
		},
	}
}

func newStudentsAddCmd(o *options) *cobra.Command {
	var f studentFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st student.Student
			f.apply(cmd, &st)
			created, err := o.app.Students.Create(cmd.Context(), st)
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added student %d (%s).\n", created.ID, created.Name)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newStudentsImportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add every student in a CSV or JSON file",
		Long: `Add every student in a CSV or JSON file.

CSV files need a header row using the field names grade, class_num,
student_num, name, phone, address, guardian_phone1 and guardian_phone2.
JSON files hold an array of student objects. Records are sent concurrently
and the roster only changes if all of them are accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := o.app.Students.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d students.\n", len(created))
			return nil
		},
	}
}

func newStudentsUpdateCmd(o *options) *cobra.Command {
	var f studentFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a student",
		Long:  `Change fields of a student. Only the flags given are changed; pass an empty string to clear an optional field.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.findStudent(cmd, args[0])
			if err != nil {
				return err
			}
			f.apply(cmd, &st)
			updated, err := o.app.Students.Update(cmd.Context(), st)
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated student %d.\n", updated.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newStudentsDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := o.app.Students.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted student %d.\n", id)
			return nil
		},
	}
}

func newStudentsDeleteAllCmd(o *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every student without --yes")
			}
			if err := o.app.Students.DeleteAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted all students.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting the whole roster")
	return cmd
}

func newStudentsConsultCmd(o *options) *cobra.Command {
	var date, content string
	cmd := &cobra.Command{
		Use:   "consult <id>",
		Short: "Record a consultation with a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			updated, err := o.app.Students.AddConsultation(cmd.Context(), id, student.Consultation{Date: date, Content: content})
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded consultation for %s (%d total).\n", updated.Name, len(updated.Consultations))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Consultation date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&content, "content", "", "What was discussed")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newStudentsSummarizeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <id>",
		Short: "Summarize a student's consultations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.findStudent(cmd, args[0])
			if err != nil {
				return err
			}
			summary, err := o.app.Students.SummarizeConsultations(cmd.Context(), st.ID)
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, map[string]any{"id": st.ID, "summary": summary})
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

// findStudent refreshes the roster and looks id up locally.
func (o *options) findStudent(cmd *cobra.Command, id string) (student.Student, error) {
	if _, err := o.app.Students.FetchAll(cmd.Context()); err != nil {
		return student.Student{}, err
	}
	st, ok := o.app.Students.Lookup(id)
	if !ok {
		return student.Student{}, fmt.Errorf("student %q not found", id)
	}
	return st, nil
}

func (o *options) printStudents(cmd *cobra.Command, list []student.Student) error {
	if o.asJSON {
		return o.printJSON(cmd, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No students yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tGRADE\tCLASS\tNO\tNAME\tPHONE\tCONSULTATIONS")
	for _, st := range list {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\t%d\n",
			st.ID, st.Grade, st.ClassNum, st.StudentNum, st.Name, deref(st.Phone), len(st.Consultations))
	}
	return w.Flush()
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("id must be an integer, got %q", s)
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
