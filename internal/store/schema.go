package store

import (
	"fmt"
	"reflect"
	"strings"
)

// column maps one struct field to a table column.
type column struct {
	name  string
	typ   string
	field int
}

// columnsOf derives table columns from the json tags of a metrics row type.
func columnsOf(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		cols = append(cols, column{name: name, typ: sqlType(f.Type.Kind()), field: i})
	}
	return cols
}

func sqlType(k reflect.Kind) string {
	switch k {
	case reflect.Float32, reflect.Float64:
		return "REAL"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Bool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

type table struct {
	name string
	key  []string
	cols []column
}

func (t table) create() string {
	defs := make([]string, 0, len(t.cols)+1)
	for _, c := range t.cols {
		defs = append(defs, fmt.Sprintf("%s %s NOT NULL", c.name, c.typ))
	}
	defs = append(defs, "run_id TEXT NOT NULL")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s,\n\tPRIMARY KEY (%s)\n)",
		t.name, strings.Join(defs, ",\n\t"), strings.Join(t.key, ", "))
}

func (t table) insert() string {
	names := make([]string, 0, len(t.cols)+1)
	marks := make([]string, 0, len(t.cols)+1)
	for _, c := range t.cols {
		names = append(names, c.name)
		marks = append(marks, "?")
	}
	names = append(names, "run_id")
	marks = append(marks, "?")
	return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(names, ", "), strings.Join(marks, ", "))
}

func (t table) selectAll(order string) string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(names, ", "), t.name, order)
}

// args returns the column values of rec followed by runID.
func (t table) args(rec reflect.Value, runID string) []any {
	out := make([]any, 0, len(t.cols)+1)
	for _, c := range t.cols {
		out = append(out, rec.Field(c.field).Interface())
	}
	return append(out, runID)
}

// dest returns scan targets for the columns of rec, which must be
// addressable.
func (t table) dest(rec reflect.Value) []any {
	out := make([]any, len(t.cols))
	for i, c := range t.cols {
		out[i] = rec.Field(c.field).Addr().Interface()
	}
	return out
}
