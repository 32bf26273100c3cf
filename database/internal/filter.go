// Package internal holds query helpers shared by the registry backends.
package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sagarc03/volstore"
)

// Placeholder renders the n-th (1-based) bind parameter of a dialect.
type Placeholder func(n int) string

// Question is the SQLite placeholder style.
func Question(int) string { return "?" }

// Dollar is the PostgreSQL placeholder style.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Filter accumulates AND-ed conditions with their bind arguments.
type Filter struct {
	ph    Placeholder
	conds []string
	args  []any
}

// NewFilter creates an empty filter for the given dialect.
func NewFilter(ph Placeholder) *Filter {
	return &Filter{ph: ph}
}

// Bind records arg and returns its placeholder.
func (f *Filter) Bind(arg any) string {
	f.args = append(f.args, arg)
	return f.ph(len(f.args))
}

// Add appends a condition. The single %s in cond is replaced by the
// placeholder bound to arg.
func (f *Filter) Add(cond string, arg any) {
	f.conds = append(f.conds, fmt.Sprintf(cond, f.Bind(arg)))
}

// AddIf appends the condition only when value is not empty.
func (f *Filter) AddIf(value, cond string) {
	if value != "" {
		f.Add(cond, value)
	}
}

// Where returns the WHERE clause, or "" when there are no conditions.
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// Args returns the bind arguments in placeholder order.
func (f *Filter) Args() []any {
	return f.args
}

// VolumeFilter builds the filter for a volume search. tagCond is the
// dialect-specific tag membership test with one %s placeholder.
func VolumeFilter(q volstore.VolumeQuery, ph Placeholder, tagCond string) *Filter {
	f := NewFilter(ph)
	f.AddIf(q.ID, "id = %s")
	f.AddIf(q.OwnerKey, "owner_key = %s")
	f.AddIf(q.Name, "name = %s")
	f.AddIf(q.Tag, tagCond)
	return f
}

// EncodeMetadata renders metadata as a JSON object; nil becomes {}.
func EncodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// DecodeMetadata parses a JSON object; an empty object decodes to nil.
func DecodeMetadata(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

// Tags returns nil for an empty tag list so that stored and returned
// volumes compare equal.
func Tags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return tags
}
