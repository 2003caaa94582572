package store

import (
	"fmt"

	"github.com/roach88/pers/value"
)

func recordOrEmpty(r value.Object) value.Object {
	if r == nil {
		return value.Object{}
	}
	return r
}

// unmarshalRecord parses a stored record. Records are always JSON objects.
func unmarshalRecord(data []byte) (value.Object, error) {
	v, err := value.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	obj, ok := v.(value.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal record: expected object, got %s", value.Kind(v))
	}
	return obj, nil
}
