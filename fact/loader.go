package fact

import (
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/dimension"
	h "github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/scd2"
	"github.com/lakepipe/lakepipe/stream"
	"github.com/lakepipe/lakepipe/watermark"
)

// Ref binds one foreign key on the fact to a dimension.
type Ref struct {
	// Store is the dimension the surrogate key is resolved against.
	Store dimension.Store
	// KeyFields is the ordered set of fact record fields forming the dimension's natural key.
	KeyFields *om.OrderedMap
	// FKField is the output field the resolved surrogate key is written to.
	FKField string
}

// Config drives the fact loader for one fact entity.
type Config struct {
	Entity             string `errorTxt:"fact entity name" mandatory:"yes"`
	EffectiveTimeField string `errorTxt:"effective time field" mandatory:"yes"`
	Refs               []Ref
}

// Result summarises one loaded fact batch.
type Result struct {
	Loaded int
	// UnknownSubstitutions counts foreign keys that resolved to a dimension's unknown
	// sentinel because no version covered the fact's effective time.
	UnknownSubstitutions int
	Quarantined          []scd2.Quarantined
}

// Loader resolves dimension foreign keys on fact records and writes them to a sink.
// Resolution is point-in-time: the surrogate key is the dimension version whose validity
// interval covers the fact's effective timestamp, so a reload against a later dimension
// state reproduces the original assignment.
type Loader struct {
	log  logger.Logger
	cfg  *Config
	sink Sink
}

func NewLoader(log logger.Logger, cfg *Config, sink Sink) (*Loader, error) {
	if err := h.ValidateStructIsPopulated(cfg); err != nil {
		return nil, err
	}
	return &Loader{log: log, cfg: cfg, sink: sink}, nil
}

// LoadBatch resolves and writes the batch. Foreign keys are never null: an unresolvable
// key takes the dimension's unknown sentinel surrogate. A dimension whose history holds
// overlapping versions at the fact's effective time is a storage corruption, so that
// record is quarantined rather than being assigned an arbitrary surrogate.
func (l *Loader) LoadBatch(recs []stream.Record, token watermark.BatchToken) (Result, error) {
	res := Result{}
	for _, rec := range recs {
		eff, err := rec.GetDataAsTime(l.cfg.EffectiveTimeField)
		if err != nil {
			res.Quarantined = append(res.Quarantined, l.quarantine(rec, "", scd2.ReasonBadEffectiveTime, token, err))
			continue
		}
		ok, err := l.resolveRefs(rec, eff, token, &res)
		if err != nil {
			return res, err // storage failure is batch-fatal.
		}
		if !ok {
			continue // record quarantined by a ref.
		}
		if err := l.sink.WriteRow(rec); err != nil {
			return res, err
		}
		res.Loaded++
	}
	if err := l.sink.Flush(); err != nil {
		return res, err
	}
	l.log.Debug("fact load for ", l.cfg.Entity, " batch ", token.ID,
		": loaded=", res.Loaded,
		" unknownSubs=", res.UnknownSubstitutions,
		" quarantined=", len(res.Quarantined))
	return res, nil
}

// resolveRefs writes each ref's surrogate key onto rec.
// Returns ok=false when the record was quarantined.
func (l *Loader) resolveRefs(rec stream.Record, eff time.Time, token watermark.BatchToken, res *Result) (bool, error) {
	for _, ref := range l.cfg.Refs {
		key, haveKey := l.naturalKey(ref, rec)
		if !haveKey { // a fact with missing key fields still loads, against the unknown member...
			rec.SetData(ref.FKField, l.unknownSurrogate(ref))
			res.UnknownSubstitutions++
			continue
		}
		v, found, err := ref.Store.Lookup(key, eff)
		if err != nil {
			if _, isInvariant := err.(dimension.InvariantViolationError); isInvariant {
				l.log.Error(err)
				res.Quarantined = append(res.Quarantined, l.quarantine(rec, key, scd2.ReasonInvariantViolation, token, err))
				return false, nil
			}
			return false, err
		}
		if !found {
			rec.SetData(ref.FKField, l.unknownSurrogate(ref))
			res.UnknownSubstitutions++
			continue
		}
		rec.SetData(ref.FKField, v.SurrogateKey)
	}
	return true, nil
}

// naturalKey builds the dimension key from the fact record's fields.
// ok is false when any field is absent, nil or blank.
func (l *Loader) naturalKey(ref Ref, rec stream.Record) (string, bool) {
	parts := make([]string, 0, ref.KeyFields.Len())
	iter := ref.KeyFields.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		v, found := rec.GetDataOk(kv.Key.(string))
		if !found || v == nil {
			return "", false
		}
		s := strings.TrimSpace(h.GetStringFromInterfaceUseUtcTime(l.log, v))
		if s == "" {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, scd2.KeySeparator), true
}

// unknownSurrogate fetches the sentinel surrogate for the ref's dimension.
// The sentinel row is seeded at store creation so the lookup cannot miss.
func (l *Loader) unknownSurrogate(ref Ref) string {
	v, found, err := ref.Store.GetActive(ref.Store.UnknownKey())
	if err != nil || !found {
		l.log.Panic("dimension ", ref.Store.Entity(), " has no unknown sentinel row: ", err)
	}
	return v.SurrogateKey
}

func (l *Loader) quarantine(rec stream.Record, key string, reason string, token watermark.BatchToken, err error) scd2.Quarantined {
	rec.SetData(constants.MergeActionFieldName, constants.MergeActionQuarantine)
	rec.SetData(constants.QuarantineReasonFieldName, reason)
	l.log.Warn("quarantined fact for ", l.cfg.Entity, " key=", key, " reason=", reason, " batch=", token.ID, ": ", err)
	return scd2.Quarantined{NaturalKey: key, Reason: reason, BatchToken: token.ID, Err: err, Record: rec}
}
