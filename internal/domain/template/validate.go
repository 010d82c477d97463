package template

import (
	"github.com/emr/emr/internal/platform/apperr"
)

// ValidateStructure enforces the minimal shape the renderer relies on:
// structure is a non-nil object, fields is non-empty, and every field
// declares a key and a type. Everything else inside the blobs is opaque.
func ValidateStructure(structure map[string]interface{}, fields []map[string]interface{}) error {
	if structure == nil {
		return apperr.Validationf("template structure must be an object")
	}
	if len(fields) == 0 {
		return apperr.Validationf("template must define at least one field")
	}
	for i, f := range fields {
		key, _ := f["key"].(string)
		typ, _ := f["type"].(string)
		if key == "" || typ == "" {
			return apperr.Validationf("field %d must have a key and a type", i)
		}
	}
	return nil
}
