package scd2

import (
	"strings"

	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/stream"

	h "github.com/lakepipe/lakepipe/helper"
)

// KeySeparator joins multi-field natural keys into one stable string.
const KeySeparator = "~"

// ResolveNaturalKey maps a raw record to its stable business key using the entity's
// configured key field definition. It is a pure function of the record's identifying fields.
// A MissingKeyError is returned when any key field is absent, nil or blank - callers
// quarantine such records rather than failing the batch.
func ResolveNaturalKey(log logger.Logger, cfg *EntityConfig, rec stream.Record) (string, error) {
	parts := make([]string, 0, cfg.NaturalKeyFields.Len())
	var missing []string
	for _, field := range cfg.KeyFieldNames() {
		v, ok := rec.GetDataOk(field)
		if !ok || v == nil {
			missing = append(missing, field)
			continue
		}
		s := strings.TrimSpace(h.GetStringFromInterfaceUseUtcTime(log, v))
		if s == "" {
			missing = append(missing, field)
			continue
		}
		parts = append(parts, s)
	}
	if len(missing) > 0 {
		return "", MissingKeyError{Entity: cfg.Entity, Fields: missing}
	}
	return strings.Join(parts, KeySeparator), nil
}
