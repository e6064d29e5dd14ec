package watermark

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms/shared"
)

// SqlStore is a Store backed by a watermark table in a target database.
// Positions are stored in their canonical string form next to their type tag, so one
// table serves time, number and token watermarks alike.
type SqlStore struct {
	log         logger.Logger
	db          shared.Connector
	schemaTable string
	mu          sync.Mutex
}

func NewSqlStore(log logger.Logger, db shared.Connector, schemaTable string) *SqlStore {
	if schemaTable == "" {
		schemaTable = constants.WatermarkTableDefault
	}
	return &SqlStore{log: log, db: db, schemaTable: schemaTable}
}

func (s *SqlStore) Get(source, entity string) (Position, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(s.db, source, entity)
}

type rowQuerier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func (s *SqlStore) get(q rowQuerier, source, entity string) (Position, bool, error) {
	sqltext := fmt.Sprintf("select %v, %v from %v where %v = ? and %v = ?",
		constants.WatermarkTypeColumn, constants.WatermarkPositionColumn, s.schemaTable,
		constants.WatermarkSourceColumn, constants.WatermarkEntityColumn)
	rows, err := q.Query(sqltext, source, entity)
	if err != nil {
		return Position{}, false, errors.Wrapf(err, "error reading the watermark for %v.%v", source, entity)
	}
	if rows == nil { // mock connections return a nil row set.
		return Position{}, false, nil
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return Position{}, false, rows.Err()
	}
	var posType, posValue string
	if err := rows.Scan(&posType, &posValue); err != nil {
		return Position{}, false, errors.Wrap(err, "error scanning a watermark row")
	}
	pos, err := ParsePosition(posType + ":" + posValue)
	if err != nil {
		return Position{}, false, errors.Wrapf(err, "corrupt watermark stored for %v.%v", source, entity)
	}
	return pos, true, nil
}

// Commit advances the watermark inside one database transaction: read the current row,
// verify the batch token's prior position still matches, then update or insert.
// The store mutex serializes committers in this process; committers in other processes
// are caught by the prior-position check.
func (s *SqlStore) Commit(source, entity string, pos Position, token BatchToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "unable to begin a watermark transaction")
	}
	current, exists, err := s.get(tx, source, entity)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if exists {
		if token.Prior.IsZero() {
			_ = tx.Rollback()
			return StaleWatermarkError{SourceSystem: source, Entity: entity, Token: token, Current: current}
		}
		cmp, err := token.Prior.Compare(current)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if cmp != 0 {
			_ = tx.Rollback()
			return StaleWatermarkError{SourceSystem: source, Entity: entity, Token: token, Current: current}
		}
		cmp, err = pos.Compare(current)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if cmp < 0 {
			_ = tx.Rollback()
			return fmt.Errorf("watermark for %v.%v cannot move backwards from %v to %v", source, entity, current, pos)
		}
		sqltext := fmt.Sprintf("update %v set %v = ?, %v = ?, %v = ? where %v = ? and %v = ?",
			s.schemaTable,
			constants.WatermarkTypeColumn, constants.WatermarkPositionColumn, constants.WatermarkUpdatedAtColumn,
			constants.WatermarkSourceColumn, constants.WatermarkEntityColumn)
		if _, err = tx.Exec(sqltext, string(pos.Type), pos.Value(), time.Now().UTC(), source, entity); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "unable to update the watermark for %v.%v", source, entity)
		}
	} else {
		if !token.Prior.IsZero() {
			_ = tx.Rollback()
			return StaleWatermarkError{SourceSystem: source, Entity: entity, Token: token}
		}
		sqltext := fmt.Sprintf("insert into %v (%v, %v, %v, %v, %v) values (?, ?, ?, ?, ?)",
			s.schemaTable,
			constants.WatermarkSourceColumn, constants.WatermarkEntityColumn,
			constants.WatermarkTypeColumn, constants.WatermarkPositionColumn, constants.WatermarkUpdatedAtColumn)
		if _, err = tx.Exec(sqltext, source, entity, string(pos.Type), pos.Value(), time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "unable to insert the watermark for %v.%v", source, entity)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "unable to commit the watermark for %v.%v", source, entity)
	}
	s.log.Debug("watermark committed for ", source, ".", entity, " at ", pos.String(), " by batch ", token.ID)
	return nil
}

func (s *SqlStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sqltext := fmt.Sprintf("select %v, %v, %v, %v, %v from %v order by %v, %v",
		constants.WatermarkSourceColumn, constants.WatermarkEntityColumn,
		constants.WatermarkTypeColumn, constants.WatermarkPositionColumn, constants.WatermarkUpdatedAtColumn,
		s.schemaTable,
		constants.WatermarkSourceColumn, constants.WatermarkEntityColumn)
	rows, err := s.db.Query(sqltext)
	if err != nil {
		return nil, errors.Wrap(err, "error listing watermarks")
	}
	if rows == nil {
		return nil, nil
	}
	defer func() { _ = rows.Close() }()
	var retval []Record
	for rows.Next() {
		var rec Record
		var posType, posValue string
		var updatedAt interface{}
		if err := rows.Scan(&rec.SourceSystem, &rec.Entity, &posType, &posValue, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning a watermark row")
		}
		if rec.Position, err = ParsePosition(posType + ":" + posValue); err != nil {
			return nil, errors.Wrapf(err, "corrupt watermark stored for %v.%v", rec.SourceSystem, rec.Entity)
		}
		if t, ok := updatedAt.(time.Time); ok {
			rec.UpdatedAt = t
		}
		retval = append(retval, rec)
	}
	return retval, rows.Err()
}
