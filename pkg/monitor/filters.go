package monitor

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cellwatch/cellwatch/pkg/types"
)

// RangeOverlapFilter matches events whose affected ranges overlap rng by
// substring containment in either direction ("B2:D10" matches an event on
// "Sheet1!B2:D10" and vice versa). A non-empty worksheet must match the
// event's worksheet when the event reports one; events on a different
// worksheet never match.
func RangeOverlapFilter(rng, worksheet string) types.FilterFunc {
	return func(e *types.Event) bool {
		if worksheet != "" && e.Worksheet != "" && e.Worksheet != worksheet {
			return false
		}
		for _, affected := range e.AffectedRanges {
			if strings.Contains(affected, rng) || strings.Contains(rng, affected) {
				return true
			}
		}
		return false
	}
}

// PayloadFilter matches events whose opaque JSON payload has the given
// value at a gjson path, e.g. PayloadFilter("cell.formula", "=SUM(A1:A10)").
func PayloadFilter(path, value string) types.FilterFunc {
	return func(e *types.Event) bool {
		if len(e.Payload) == 0 {
			return false
		}
		result := gjson.GetBytes(e.Payload, path)
		return result.Exists() && result.String() == value
	}
}
