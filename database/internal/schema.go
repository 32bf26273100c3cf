package internal

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Column is a registry column as the database reports it. Type is the
// lower-cased backend type name.
type Column struct {
	Type     string
	Nullable bool
}

// CheckColumns reports every column of want that is missing from got or
// differs in type or nullability. Extra columns in got are allowed.
func CheckColumns(table string, want, got map[string]Column) error {
	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	sort.Strings(names)

	var result *multierror.Error
	for _, name := range names {
		w := want[name]
		g, ok := got[name]
		switch {
		case !ok:
			result = multierror.Append(result, fmt.Errorf("column %s is missing", name))
		case g.Type != w.Type:
			result = multierror.Append(result, fmt.Errorf("column %s has type %s, want %s", name, g.Type, w.Type))
		case g.Nullable != w.Nullable:
			result = multierror.Append(result, fmt.Errorf("column %s has nullable=%v, want %v", name, g.Nullable, w.Nullable))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("table %s: %w", table, err)
	}
	return nil
}
