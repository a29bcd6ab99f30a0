package readers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/oarkflow/tabular/pkg/utils"
)

func openCSV(path string, comma rune) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err == io.EOF {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	headerCopy := make([]string, len(header))
	copy(headerCopy, header)

	s := &Source{header: headerCopy, closeFn: f.Close}
	s.next = func() (utils.Record, error) {
		cells, err := reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		return rowFromCells(headerCopy, cells), nil
	}
	return s, nil
}
