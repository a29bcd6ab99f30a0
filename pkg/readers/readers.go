package readers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oarkflow/tabular/pkg/utils"
)

var (
	// ErrUnsupportedFormat is returned for file extensions the reader does
	// not understand.
	ErrUnsupportedFormat = errors.New("readers: unsupported file format")
	// ErrCorruptFile is returned when a file of a supported format cannot
	// be parsed.
	ErrCorruptFile = errors.New("readers: corrupt file")
	// ErrEmptySource is returned when the file holds no data rows beyond
	// the header.
	ErrEmptySource = errors.New("readers: source has no data rows")
)

// Source is a finite, forward-only, lazily-read sequence of rows from a
// spreadsheet-shaped file. Blank rows are skipped, short rows are padded
// with nulls, and empty cells are reported as nil. A consumed Source cannot
// be rewound.
type Source struct {
	header  []string
	next    func() (utils.Record, error)
	closeFn func() error
	peeked  utils.Record
	hasPeek bool
}

// Open opens path with the reader matching its extension. Supported
// containers: .csv, .tsv, .xlsx, .xlsm and .json arrays. For workbooks the
// first sheet is used; see OpenSheet.
func Open(path string) (*Source, error) {
	return OpenSheet(path, "")
}

// OpenSheet opens path like Open but reads the named worksheet. The sheet
// argument is ignored for non-workbook formats; empty means the first sheet.
func OpenSheet(path, sheet string) (*Source, error) {
	var (
		src *Source
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		src, err = openCSV(path, ',')
	case ".tsv":
		src, err = openCSV(path, '\t')
	case ".xlsx", ".xlsm":
		src, err = openXLSX(path, sheet)
	case ".json":
		src, err = openJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	rec, err := src.pull()
	if err == io.EOF {
		_ = src.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	src.peeked, src.hasPeek = rec, true
	return src, nil
}

// Header returns the field names captured from the first row of the file.
func (s *Source) Header() []string {
	return s.header
}

// Next returns the next non-blank row, or io.EOF after the last one.
func (s *Source) Next() (utils.Record, error) {
	if s.hasPeek {
		rec := s.peeked
		s.peeked, s.hasPeek = nil, false
		return rec, nil
	}
	return s.pull()
}

func (s *Source) pull() (utils.Record, error) {
	for {
		rec, err := s.next()
		if err != nil {
			return nil, err
		}
		if utils.IsBlank(rec) {
			continue
		}
		return rec, nil
	}
}

func (s *Source) Close() error {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

// Preview reads up to n rows from src for inspection. It consumes the
// source: rows returned here will not be seen again by Next.
func Preview(src *Source, n int) ([]utils.Record, error) {
	var out []utils.Record
	for len(out) < n {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// rowFromCells builds a record keyed by header. Cells beyond the header are
// dropped, missing or empty cells become nil.
func rowFromCells(header []string, cells []string) utils.Record {
	row := make(utils.Record, len(header))
	for i, h := range header {
		if i < len(cells) && strings.TrimSpace(cells[i]) != "" {
			row[h] = cells[i]
		} else {
			row[h] = nil
		}
	}
	return row
}
