package watermark

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PositionType tags the ordering domain of a watermark position.
// Positions of different types are never comparable; mixing them is a pipeline
// configuration error, not data.
type PositionType string

const (
	PositionTypeTime   PositionType = "time"
	PositionTypeNumber PositionType = "number"
	PositionTypeToken  PositionType = "token"
)

// Position is the last successfully processed point for a (source, entity) pair.
// It is an opaque comparable value: a timestamp, a monotonically increasing number,
// or a lexically ordered string token.
type Position struct {
	Type   PositionType
	Time   time.Time
	Number int64
	Token  string
}

func TimePosition(t time.Time) Position {
	return Position{Type: PositionTypeTime, Time: t}
}

func NumberPosition(n int64) Position {
	return Position{Type: PositionTypeNumber, Number: n}
}

func TokenPosition(s string) Position {
	return Position{Type: PositionTypeToken, Token: s}
}

func (p Position) IsZero() bool {
	return p.Type == ""
}

// Compare returns -1, 0 or 1 as p is before, equal to or after o.
// An error is returned when the types differ.
func (p Position) Compare(o Position) (int, error) {
	if p.Type != o.Type {
		return 0, fmt.Errorf("cannot compare watermark position of type %q with type %q", p.Type, o.Type)
	}
	switch p.Type {
	case PositionTypeTime:
		if p.Time.Before(o.Time) {
			return -1, nil
		} else if p.Time.After(o.Time) {
			return 1, nil
		}
		return 0, nil
	case PositionTypeNumber:
		if p.Number < o.Number {
			return -1, nil
		} else if p.Number > o.Number {
			return 1, nil
		}
		return 0, nil
	case PositionTypeToken:
		return strings.Compare(p.Token, o.Token), nil
	default:
		return 0, fmt.Errorf("unhandled watermark position type %q", p.Type)
	}
}

// String renders the canonical storage encoding, e.g. "time:2021-06-01T12:00:00Z".
func (p Position) String() string {
	switch p.Type {
	case PositionTypeTime:
		return fmt.Sprintf("%v:%v", p.Type, p.Time.UTC().Format(time.RFC3339Nano))
	case PositionTypeNumber:
		return fmt.Sprintf("%v:%v", p.Type, p.Number)
	case PositionTypeToken:
		return fmt.Sprintf("%v:%v", p.Type, p.Token)
	default:
		return ""
	}
}

// Value renders the position's value without the type prefix, for storage next to a
// separate type column.
func (p Position) Value() string {
	s := p.String()
	if idx := strings.Index(s, ":"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// ParsePosition is the inverse of String(). It accepts the canonical "type:value" encoding
// used by the SQL watermark store and the CLI.
func ParsePosition(s string) (Position, error) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return Position{}, fmt.Errorf("watermark position %q is missing its type prefix", s)
	}
	typ, val := PositionType(s[:idx]), s[idx+1:]
	switch typ {
	case PositionTypeTime:
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return Position{}, fmt.Errorf("bad time watermark position %q: %v", val, err)
		}
		return TimePosition(t), nil
	case PositionTypeNumber:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return Position{}, fmt.Errorf("bad number watermark position %q: %v", val, err)
		}
		return NumberPosition(n), nil
	case PositionTypeToken:
		return TokenPosition(val), nil
	default:
		return Position{}, fmt.Errorf("unhandled watermark position type %q", typ)
	}
}
