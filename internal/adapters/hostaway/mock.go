package hostaway

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed mockdata.json
var mockJSON []byte

// MockItems returns the bundled sandbox dataset in the same raw shape the
// live API returns. Used when no live data is configured or reachable.
func MockItems() ([]map[string]any, error) {
	var env envelope
	if err := json.Unmarshal(mockJSON, &env); err != nil {
		return nil, fmt.Errorf("decode mock dataset: %w", err)
	}
	return env.Result, nil
}
