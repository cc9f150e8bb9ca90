package collection

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeOptions decodes a resolved options map into a typed options struct,
// so rule factories can work with fields instead of map lookups.
func DecodeOptions(options map[string]any, out any) error {
	if err := mapstructure.Decode(options, out); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}
