package snapshot

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ValidateSchema checks that the file schema carries every column the row
// type T reads. Optional columns of T may be absent.
func ValidateSchema[T any](schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, field := range parquet.SchemaOf(new(T)).Fields() {
		if field.Optional() {
			continue
		}
		if !columns[strings.ToLower(field.Name())] {
			missing = append(missing, field.Name())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
