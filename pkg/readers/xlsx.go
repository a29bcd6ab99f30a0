package readers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/oarkflow/tabular/pkg/utils"
)

func openXLSX(path, sheet string) (*Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s has no sheets", ErrEmptySource, path)
		}
		sheet = sheets[0]
	}
	iter, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if !iter.Next() {
		_ = iter.Close()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}
	header, err := iter.Columns()
	if err != nil {
		_ = iter.Close()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if len(header) == 0 {
		_ = iter.Close()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}

	s := &Source{
		header: header,
		closeFn: func() error {
			if err := iter.Close(); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	s.next = func() (utils.Record, error) {
		if !iter.Next() {
			if err := iter.Error(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
			}
			return nil, io.EOF
		}
		cells, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		return rowFromCells(header, cells), nil
	}
	return s, nil
}

// Sheets lists the worksheet names of an .xlsx/.xlsm workbook so callers
// can offer a sheet picker before opening.
func Sheets(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
