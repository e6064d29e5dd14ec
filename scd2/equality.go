package scd2

import (
	"strings"

	"github.com/lakepipe/lakepipe/logger"

	h "github.com/lakepipe/lakepipe/helper"
)

// EqualityRule decides whether two attribute values are logically equal for the purposes of
// change detection. The rule is configuration, not code: a source that pads strings or flips
// case must not generate spurious dimension versions.
type EqualityRule struct {
	// TrimSpace strips leading and trailing whitespace before comparison.
	TrimSpace bool `json:"trimSpace"`
	// FoldCase compares strings case-insensitively.
	FoldCase bool `json:"foldCase"`
}

// Equal reports whether a and b are logically equal under the rule.
// Values are canonicalised to strings the same way record comparisons do elsewhere, so
// 10 (int) equals "10" and times compare in UTC regardless of zone.
func (r EqualityRule) Equal(log logger.Logger, a interface{}, b interface{}) bool {
	return r.Canonical(log, a) == r.Canonical(log, b)
}

// Canonical returns the comparable string form of v under the rule.
func (r EqualityRule) Canonical(log logger.Logger, v interface{}) string {
	s := h.GetStringFromInterfaceUseUtcTime(log, v)
	if r.TrimSpace {
		s = strings.TrimSpace(s)
	}
	if r.FoldCase {
		s = strings.ToLower(s)
	}
	return s
}
