package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/crmimport/internal/model"
)

// CSV reads a delimited text export. The delimiter is ';' or ',', whichever
// the header line contains more of.
type CSV struct {
	Path    string
	Columns model.Columns
}

// Rows returns every non-empty record below the header
func (c *CSV) Rows(ctx context.Context) ([]model.Row, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	br := stripBOM(bufio.NewReader(f))
	comma, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(br)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: missing header", c.Path)
		}
		return nil, err
	}
	t, err := newTable(c.Columns, header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}

	var rows []model.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Path, err)
		}
		if blank(record) {
			continue
		}
		line, _ := r.FieldPos(0)
		if row, ok := t.row(line, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func stripBOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// sniffDelimiter peeks at the first line without consuming it
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	var line []byte
	for n := 512; ; n *= 2 {
		b, err := r.Peek(n)
		if i := strings.IndexByte(string(b), '\n'); i >= 0 {
			line = b[:i]
			break
		}
		if err != nil {
			if len(b) == 0 && !errors.Is(err, io.EOF) {
				return 0, err
			}
			line = b
			break
		}
	}
	if strings.Count(string(line), ";") > strings.Count(string(line), ",") {
		return ';', nil
	}
	return ',', nil
}
