// Package report renders an extraction for manual review: each raw label next
// to the key and value it produced.
package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/docfill/internal/fieldmap"
	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/normalize"
)

// Row is one raw label and what it mapped to. Key is empty for suppressed
// labels.
type Row struct {
	Label string
	Raw   string
	Key   string
	Kind  model.FieldKind
	Value any
}

// Header is the column order used by every writer.
var Header = []string{"Label", "Raw Value", "Field", "Kind", "Value"}

// Rows traces every raw field through the mapper and normalizers, sorted by
// label.
func Rows(m *fieldmap.Mapper, formType string, raw, overrides map[string]string, options map[string][]model.Option) []Row {
	labels := make([]string, 0, len(raw))
	for l := range raw {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	out := make([]Row, 0, len(labels))
	for _, l := range labels {
		r := Row{Label: l, Raw: raw[l]}
		if key, ok := m.Resolve(formType, l, overrides); ok {
			r.Key = key
			r.Kind = m.Kind(formType, key)
			r.Value = normalize.Coerce(r.Kind, r.Raw, key, options[key])
		}
		out = append(out, r)
	}
	return out
}

// FormatValue renders a processed value as text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func (r Row) cells() []string {
	return []string{r.Label, r.Raw, r.Key, string(r.Kind), FormatValue(r.Value)}
}

// WriteTable writes rows as an aligned text table.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	writeLine(tw, Header)
	for _, r := range rows {
		writeLine(tw, r.cells())
	}
	return eris.Wrap(tw.Flush(), "report: flush table")
}

func writeLine(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

// WriteXLSX saves rows to a single-sheet workbook at path.
func WriteXLSX(path, sheetName string, rows []Row) error {
	if sheetName == "" {
		sheetName = "Extraction"
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %q", sheetName)
	}

	addRow(sheet, Header)
	for _, r := range rows {
		addRow(sheet, r.cells())
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
