package parse

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spkg/bom"
)

// Decodes a top level JSON array, stripping any leading BOM.
func decodeArray[T any](data io.Reader) ([]*T, error) {
	records := []*T{}
	dec := json.NewDecoder(bom.NewReader(data))
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("null record at index %d", i)
		}
	}
	return records, nil
}
