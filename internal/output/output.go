// Package output renders metric records as CSV, TSV, JSON or Markdown.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Formats understood by Render.
const (
	CSV      = "csv"
	TSV      = "tsv"
	JSON     = "json"
	Markdown = "markdown"
)

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch format {
	case Markdown:
		return "md"
	default:
		return format
	}
}

// Table is a flat view of a record slice. Columns follow the json tags of
// the record type in declaration order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable flattens records, which must be a slice of structs or of
// pointers to structs.
func NewTable(records any) (Table, error) {
	v := reflect.ValueOf(records)
	if v.Kind() != reflect.Slice {
		return Table{}, fmt.Errorf("output: want a slice, got %s", v.Kind())
	}
	elem := v.Type().Elem()
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return Table{}, fmt.Errorf("output: want a slice of structs, got %s", v.Type())
	}

	var t Table
	var fields []int
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		if !f.IsExported() {
			continue
		}
		name := columnName(f)
		if name == "" {
			continue
		}
		t.Columns = append(t.Columns, name)
		fields = append(fields, i)
	}

	for i := 0; i < v.Len(); i++ {
		rec := reflect.Indirect(v.Index(i))
		row := make([]string, len(fields))
		for j, idx := range fields {
			row[j] = cell(rec.Field(idx))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func columnName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func cell(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprint(v.Interface())
	}
}

// Render writes records to w in the given format.
func Render(w io.Writer, format string, records any) error {
	if format == JSON {
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	}

	t, err := NewTable(records)
	if err != nil {
		return err
	}
	switch format {
	case CSV:
		return writeDelimited(w, ',', t)
	case TSV:
		return writeDelimited(w, '\t', t)
	case Markdown:
		_, err := io.WriteString(w, RenderMarkdown(t))
		return err
	default:
		return fmt.Errorf("output: unknown format %q", format)
	}
}

func writeDelimited(w io.Writer, comma rune, t Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// RenderMarkdown renders t as a GitHub-flavored Markdown table.
func RenderMarkdown(t Table) string {
	var sb strings.Builder

	if len(t.Rows) == 0 {
		sb.WriteString("No records.\n")
		return sb.String()
	}

	sb.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	sep := make([]string, len(t.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("|" + strings.Join(sep, "|") + "|\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

// WriteFile renders records into dir/name.<ext> and returns the path.
func WriteFile(dir, name, format string, records any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+"."+Extension(format))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Render(f, format, records); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, f.Close()
}
