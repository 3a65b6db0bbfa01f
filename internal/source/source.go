// Package source reads spreadsheet exports into rows.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/crmimport/internal/model"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Source yields the rows of one input file in file order
type Source interface {
	Rows(ctx context.Context) ([]model.Row, error)
}

// Open picks a reader by file extension, or by content when the extension
// is unknown. sheet only applies to workbooks; empty means the first sheet.
func Open(path string, columns model.Columns, sheet string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return &XLSX{Path: path, Sheet: sheet, Columns: columns}, nil
	case ".csv", ".txt":
		return &CSV{Path: path, Columns: columns}, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect format of %s: %w", path, err)
	}
	switch {
	case mtype.Is(mimeXLSX):
		return &XLSX{Path: path, Sheet: sheet, Columns: columns}, nil
	case mtype.Is("text/csv"), mtype.Is("text/plain"):
		return &CSV{Path: path, Columns: columns}, nil
	default:
		return nil, fmt.Errorf("unsupported input format %s (want .xlsx or .csv)", mtype.String())
	}
}

// table maps record cells to fields by header position
type table struct {
	columns model.Columns
	fields  []*model.Field
}

func newTable(columns model.Columns, header []string) (*table, error) {
	t := &table{columns: columns, fields: make([]*model.Field, len(header))}
	matched := 0
	for i, label := range header {
		if f, ok := columns.Lookup(label); ok {
			t.fields[i] = &f
			matched++
			continue
		}
		if strings.TrimSpace(label) == "" {
			continue
		}
		entry := logrus.WithField("column", label)
		if s := suggest(label, columns); s != "" {
			entry = entry.WithField("did_you_mean", s)
		}
		entry.Warn("column ignored")
	}
	if matched == 0 {
		return nil, fmt.Errorf("header matches none of the rule set's columns")
	}
	return t, nil
}

// row maps one record. ok is false when every mapped cell is blank.
func (t *table) row(line int, record []string) (model.Row, bool) {
	row := model.Row{Line: line}
	filled := false
	for i, value := range record {
		if i >= len(t.fields) || t.fields[i] == nil {
			continue
		}
		row.Set(*t.fields[i], value)
		if row.Has(*t.fields[i]) {
			filled = true
		}
	}
	return row, filled
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// suggest returns the closest known label that fuzzily contains label
func suggest(label string, columns model.Columns) string {
	labels := make([]string, 0, len(columns))
	for l := range columns {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(label), labels)
	if len(ranks) == 0 {
		return ""
	}
	sort.Stable(ranks)
	return ranks[0].Target
}
