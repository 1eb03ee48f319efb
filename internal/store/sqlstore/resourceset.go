package sqlstore

import (
	"encoding/json"
	"fmt"

	"github.com/legionforge/engine/internal/types"
)

func marshalResourceSet(r types.ResourceSet) ([]byte, error) {
	if r == nil {
		r = types.ResourceSet{}
	}
	return json.Marshal(r)
}

func unmarshalResourceSet(raw []byte) (types.ResourceSet, error) {
	var r types.ResourceSet
	if len(raw) == 0 {
		return types.ResourceSet{}, nil
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unmarshal resource set: %w", err)
	}
	if r == nil {
		r = types.ResourceSet{}
	}
	return r, nil
}
