package student

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrEmptyImport is returned when an import file holds no records.
var ErrEmptyImport = errors.New("no student records in file")

// ImportFile reads students from a .json or .csv file and creates them
// with CreateMany.
func (s *Store) ImportFile(ctx context.Context, path string) ([]Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	var records []Student
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = ParseCSV(f)
	default:
		records, err = ParseJSON(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyImport
	}
	return s.CreateMany(ctx, records)
}

// ParseJSON decodes a JSON array of students.
func ParseJSON(r io.Reader) ([]Student, error) {
	var out []Student
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseCSV decodes students from CSV. The header row uses the JSON field
// names (grade, class_num, student_num, name, phone, ...); unknown columns
// are ignored.
func ParseCSV(r io.Reader) ([]Student, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, errors.New("csv header must include a name column")
	}

	var out []Student
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		st, err := studentFromRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, st)
	}
}

func studentFromRow(cols map[string]int, row []string) (Student, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	optional := func(name string) *string {
		if v := get(name); v != "" {
			return &v
		}
		return nil
	}
	number := func(name string) (int, error) {
		v := get(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", name, v)
		}
		return n, nil
	}

	var st Student
	var err error
	if st.Grade, err = number("grade"); err != nil {
		return Student{}, err
	}
	if st.ClassNum, err = number("class_num"); err != nil {
		return Student{}, err
	}
	if st.StudentNum, err = number("student_num"); err != nil {
		return Student{}, err
	}
	st.Name = get("name")
	if st.Name == "" {
		return Student{}, errors.New("name is empty")
	}
	st.Phone = optional("phone")
	st.Address = optional("address")
	st.GuardianPhone1 = optional("guardian_phone1")
	st.GuardianPhone2 = optional("guardian_phone2")
	return st, nil
}
