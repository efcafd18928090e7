package main

import (
	"encoding/json"
	"fmt"
)

// emit prints v as JSON when --json is set, otherwise as text via
// textf(v). Both branches write to stdout, matching cobra's own
// convention of routing output through the command.
func emit(v any, textf func() string) error {
	if flags.jsonOut {
		enc, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("nit: marshal output: %w", err)
		}
		fmt.Println(string(enc))
		return nil
	}
	fmt.Println(textf())
	return nil
}
