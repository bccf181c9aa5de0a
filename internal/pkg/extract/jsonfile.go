package extract

import (
	"encoding/json"
	"fmt"
	"os"
)

// fromJSON pretty-prints the document as a single page. The reported page
// count is the number of top-level keys, matching how these files were
// presented to users historically.
func fromJSON(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json failed: %w", err)
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse json failed: %w", err)
	}

	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json failed: %w", err)
	}

	total := 1
	if obj, ok := data.(map[string]interface{}); ok && len(obj) > 0 {
		total = len(obj)
	}

	return &Result{
		Pages:      []Page{{Number: 1, Text: string(pretty)}},
		TotalPages: total,
	}, nil
}
