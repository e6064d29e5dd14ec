package dimension

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	om "github.com/cevaris/ordered_map"
	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms"
	"github.com/lakepipe/lakepipe/rdbms/shared"
)

// SqlStore is a Store backed by a dimension table in a target database.
// The table layout is fixed: surrogate_key, natural_key, valid_from, valid_to, is_active
// plus the entity's attribute columns. is_active is stored as 1/0 for portability across
// the supported databases.
type SqlStore struct {
	log         logger.Logger
	db          shared.Connector
	entity      string
	schemaTable string
	attrCols    []string // attribute column names in DDL order.
	expireGen   shared.SqlStmtTxtBatcher
	mu          sync.Mutex
}

// NewSqlStore returns a Store over the supplied dimension table and seeds the unknown
// sentinel row if the table does not hold one yet.
func NewSqlStore(log logger.Logger, db shared.Connector, entity string, schemaTable string, attrCols []string) (*SqlStore, error) {
	s := &SqlStore{
		log:         log,
		db:          db,
		entity:      entity,
		schemaTable: schemaTable,
		attrCols:    attrCols,
	}
	// Expiry closes the interval and clears the active flag keyed on the surrogate key.
	st := rdbms.SchemaTable{SchemaTable: schemaTable}
	keyCols := om.NewOrderedMap()
	keyCols.Set(constants.SurrogateKeyColumn, constants.SurrogateKeyColumn)
	expireCols := om.NewOrderedMap()
	expireCols.Set(constants.ValidToColumn, constants.ValidToColumn)
	expireCols.Set(constants.IsActiveColumn, constants.IsActiveColumn)
	gen, ok := db.GetDmlGenerator().NewUpdateGenerator(&shared.SqlStatementGeneratorConfig{
		Log:             log,
		OutputSchema:    st.GetSchema(),
		OutputTable:     st.GetTable(),
		TargetKeyCols:   keyCols,
		TargetOtherCols: expireCols,
	}).(shared.SqlStmtTxtBatcher)
	if !ok {
		return nil, errors.Errorf("batched UPDATE is not supported for dimension %v", entity)
	}
	s.expireGen = gen
	if err := s.seedUnknownRow(); err != nil {
		return nil, errors.Wrapf(err, "unable to seed the unknown sentinel row for dimension %v", entity)
	}
	return s, nil
}

func (s *SqlStore) Entity() string {
	return s.entity
}

func (s *SqlStore) UnknownKey() string {
	return constants.UnknownNaturalKey
}

// columnList returns the full select list in scan order.
func (s *SqlStore) columnList() string {
	cols := []string{
		constants.SurrogateKeyColumn,
		constants.NaturalKeyColumn,
		constants.ValidFromColumn,
		constants.ValidToColumn,
		constants.IsActiveColumn,
	}
	return strings.Join(append(cols, s.attrCols...), ",")
}

type rowQuerier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// fetchVersions runs the supplied query and scans the fixed columns plus attributes.
func (s *SqlStore) fetchVersions(q rowQuerier, sqltext string, args ...interface{}) ([]Version, error) {
	rows, err := q.Query(sqltext, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "error querying dimension %v", s.entity)
	}
	if rows == nil { // mock connections return a nil row set.
		return nil, nil
	}
	defer func() { _ = rows.Close() }()
	var retval []Version
	for rows.Next() {
		scanVals := make([]interface{}, 5+len(s.attrCols))
		scanPtrs := make([]interface{}, len(scanVals))
		for idx := range scanVals {
			scanPtrs[idx] = &scanVals[idx]
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return nil, errors.Wrapf(err, "error scanning dimension %v row", s.entity)
		}
		v := Version{
			SurrogateKey: coerceString(scanVals[0]),
			NaturalKey:   coerceString(scanVals[1]),
			Attributes:   make(map[string]interface{}, len(s.attrCols)),
		}
		if v.ValidFrom, err = coerceTime(scanVals[2]); err != nil {
			return nil, errors.Wrapf(err, "bad %v in dimension %v", constants.ValidFromColumn, s.entity)
		}
		if v.ValidTo, err = coerceTime(scanVals[3]); err != nil {
			return nil, errors.Wrapf(err, "bad %v in dimension %v", constants.ValidToColumn, s.entity)
		}
		v.IsActive = coerceBool(scanVals[4])
		for idx, col := range s.attrCols {
			v.Attributes[col] = scanVals[5+idx]
		}
		retval = append(retval, v)
	}
	return retval, rows.Err()
}

func (s *SqlStore) GetActive(naturalKey string) (Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getActive(s.db, naturalKey)
}

func (s *SqlStore) getActive(q rowQuerier, naturalKey string) (Version, bool, error) {
	sqltext := fmt.Sprintf("select %v from %v where %v = ? and %v = 1",
		s.columnList(), s.schemaTable, constants.NaturalKeyColumn, constants.IsActiveColumn)
	found, err := s.fetchVersions(q, sqltext, naturalKey)
	if err != nil {
		return Version{}, false, err
	}
	switch len(found) {
	case 0:
		return Version{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return Version{}, false, InvariantViolationError{
			Entity:     s.entity,
			NaturalKey: naturalKey,
			Detail:     "more than one active version",
		}
	}
}

func (s *SqlStore) Lookup(naturalKey string, at time.Time) (Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sqltext := fmt.Sprintf("select %v from %v where %v = ? and %v <= ? and %v > ?",
		s.columnList(), s.schemaTable,
		constants.NaturalKeyColumn, constants.ValidFromColumn, constants.ValidToColumn)
	found, err := s.fetchVersions(s.db, sqltext, naturalKey, at, at)
	if err != nil {
		return Version{}, false, err
	}
	switch len(found) {
	case 0:
		return Version{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return Version{}, false, InvariantViolationError{
			Entity:     s.entity,
			NaturalKey: naturalKey,
			Detail:     "multiple versions cover the same instant",
		}
	}
}

func (s *SqlStore) History(naturalKey string) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sqltext := fmt.Sprintf("select %v from %v where %v = ? order by %v",
		s.columnList(), s.schemaTable, constants.NaturalKeyColumn, constants.ValidFromColumn)
	return s.fetchVersions(s.db, sqltext, naturalKey)
}

// Begin takes the store mutex for the life of the database transaction so a merge batch's
// read-then-write per natural key cannot interleave with another batch in this process.
func (s *SqlStore) Begin() (Tx, error) {
	s.mu.Lock()
	tx, err := s.db.Begin()
	if err != nil {
		s.mu.Unlock()
		return nil, errors.Wrapf(err, "unable to begin a transaction for dimension %v", s.entity)
	}
	return &sqlTx{store: s, tx: tx}, nil
}

func (s *SqlStore) seedUnknownRow() error {
	_, found, err := s.getActive(s.db, constants.UnknownNaturalKey)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	s.log.Info("seeding unknown sentinel row for dimension ", s.entity)
	attrs := make(map[string]interface{}, len(s.attrCols))
	for _, col := range s.attrCols {
		attrs[col] = constants.UnknownMemberName
	}
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	err = tx.InsertVersion(Version{
		SurrogateKey: xid.New().String(),
		NaturalKey:   constants.UnknownNaturalKey,
		Attributes:   attrs,
		ValidFrom:    time.Time{},
		ValidTo:      MaxValidTo(),
		IsActive:     true,
	})
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sqlTx holds the store mutex until Commit or Rollback.
type sqlTx struct {
	store    *SqlStore
	tx       shared.Transacter
	finished bool
}

func (t *sqlTx) GetActive(naturalKey string) (Version, bool, error) {
	return t.store.getActive(t.tx, naturalKey)
}

func (t *sqlTx) InsertVersion(v Version) error {
	if v.SurrogateKey == "" {
		v.SurrogateKey = xid.New().String()
	}
	numCols := 5 + len(t.store.attrCols)
	binds := strings.TrimLeft(strings.Repeat(",?", numCols), ",")
	sqltext := fmt.Sprintf("insert into %v (%v) values (%v)", t.store.schemaTable, t.store.columnList(), binds)
	args := []interface{}{v.SurrogateKey, v.NaturalKey, v.ValidFrom, v.ValidTo, boolToInt(v.IsActive)}
	for _, col := range t.store.attrCols {
		args = append(args, v.Attributes[col])
	}
	_, err := t.tx.Exec(sqltext, args...)
	return errors.Wrapf(err, "unable to insert a version row into dimension %v", t.store.entity)
}

// ExpireVersion closes one version row via the connection's batched UPDATE generator.
// Values follow the generator's column order: keys first, then the updated columns.
func (t *sqlTx) ExpireVersion(surrogateKey string, validTo time.Time) error {
	gen := t.store.expireGen
	gen.InitBatch(1)
	if _, err := gen.AddValuesToBatch([]interface{}{surrogateKey, validTo, boolToInt(false)}); err != nil {
		return errors.Wrapf(err, "unable to build the expire statement for dimension %v", t.store.entity)
	}
	if _, err := t.tx.Exec(gen.GetStatement(), gen.GetValues()...); err != nil {
		return errors.Wrapf(err, "unable to expire a version row in dimension %v", t.store.entity)
	}
	return nil
}

func (t *sqlTx) Commit() error {
	if t.finished {
		return errors.New("transaction already finished")
	}
	t.finished = true
	defer t.store.mu.Unlock()
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	defer t.store.mu.Unlock()
	return t.tx.Rollback()
}

// Scan helpers. Drivers return differing concrete types for text, timestamp and boolean
// columns so coercion happens in one place.

func coerceString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

func coerceTime(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return parseTimeValue(x)
	case []byte:
		return parseTimeValue(string(x))
	default:
		return time.Time{}, fmt.Errorf("value %v of type %T is not a time", v, v)
	}
}

func parseTimeValue(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("value %q is not a recognised time format", s)
}

func coerceBool(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case int32:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x == "1" || strings.EqualFold(x, "true")
	case []byte:
		return coerceBool(string(x))
	default:
		return false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
