package readers

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/oarkflow/json"

	"github.com/oarkflow/tabular/pkg/utils"
)

// openJSON streams a top-level JSON array of flat objects. The header is
// taken from the keys of the first object, sorted for determinism.
func openJSON(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(f)
	if _, err := decoder.Token(); err != nil {
		_ = f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if !decoder.More() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}
	var first utils.Record
	if err := decoder.Decode(&first); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	header := make([]string, 0, len(first))
	for k := range first {
		header = append(header, k)
	}
	sort.Strings(header)

	pending := first
	s := &Source{header: header, closeFn: f.Close}
	s.next = func() (utils.Record, error) {
		if pending != nil {
			rec := pending
			pending = nil
			return rec, nil
		}
		if !decoder.More() {
			return nil, io.EOF
		}
		var obj utils.Record
		if err := decoder.Decode(&obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		return obj, nil
	}
	return s, nil
}
