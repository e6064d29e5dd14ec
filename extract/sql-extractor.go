package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lakepipe/lakepipe/constants"
	h "github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms/shared"
	"github.com/lakepipe/lakepipe/stream"
	"github.com/lakepipe/lakepipe/watermark"
)

type SqlExtractorConfig struct {
	Log          logger.Logger
	Db           shared.Connector
	DbType       string                 // source connection type; drives the row-cap dialect.
	SchemaTable  string                 `errorTxt:"source [<schema>.]<table>" mandatory:"yes"`
	Columns      []string               // optional projection; empty means select *.
	DeltaColumn  string                 `errorTxt:"delta column" mandatory:"yes"`
	PositionType watermark.PositionType `errorTxt:"watermark position type" mandatory:"yes"`
	// MaxRows caps one batch. Zero means unbounded. Because rows are ordered by the delta
	// column, a capped batch still commits a consistent watermark.
	MaxRows int
}

// SqlExtractor pulls changed rows from a source table using a delta column predicate:
// rows strictly after the since position, ordered by the delta column ascending so ties
// within the batch preserve source order.
type SqlExtractor struct {
	log logger.Logger
	cfg *SqlExtractorConfig
}

func NewSqlExtractor(cfg *SqlExtractorConfig) (*SqlExtractor, error) {
	if err := h.ValidateStructIsPopulated(cfg); err != nil {
		return nil, err
	}
	return &SqlExtractor{log: cfg.Log, cfg: cfg}, nil
}

func (e *SqlExtractor) Extract(ctx context.Context, source, entity string, since watermark.Position) (Batch, error) {
	sqltext, args := e.buildSql(since)
	e.log.Info("extracting from ", source, ".", entity, " using SQL: ", sqltext, "; args = ", args)
	rows, err := e.cfg.Db.QueryContext(ctx, sqltext, args...)
	if err != nil {
		return Batch{}, errors.Wrapf(err, "error extracting changes for %v.%v", source, entity)
	}
	batch := Batch{NewPosition: since}
	if rows == nil { // mock connections return a nil row set.
		return batch, nil
	}
	defer func() { _ = rows.Close() }()
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return Batch{}, errors.Wrap(err, "error fetching extract column types")
	}
	scanVals := make([]interface{}, len(colTypes))
	scanPtrs := make([]interface{}, len(colTypes))
	for idx := range scanVals {
		scanPtrs[idx] = &scanVals[idx]
	}
	for rows.Next() {
		select {
		case <-ctx.Done():
			return Batch{}, ctx.Err()
		default:
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return Batch{}, errors.Wrap(err, "error scanning an extracted row")
		}
		rec := stream.NewRecord()
		var deltaVal interface{}
		for idx := range scanVals {
			rec.SetData(colTypes[idx].Name(), scanVals[idx])
			if colTypes[idx].Name() == e.cfg.DeltaColumn {
				deltaVal = scanVals[idx]
			}
		}
		pos, err := e.positionFromDelta(deltaVal)
		if err != nil {
			return Batch{}, errors.Wrapf(err, "bad delta column value in %v.%v", source, entity)
		}
		batch.Records = append(batch.Records, rec)
		batch.NewPosition = laterPosition(batch.NewPosition, pos)
	}
	if err := rows.Err(); err != nil {
		return Batch{}, errors.Wrapf(err, "error extracting changes for %v.%v", source, entity)
	}
	e.log.Info("extracted ", len(batch.Records), " rows from ", source, ".", entity)
	return batch, nil
}

func (e *SqlExtractor) buildSql(since watermark.Position) (string, []interface{}) {
	cols := "*"
	if len(e.cfg.Columns) > 0 {
		cols = h.StringsToCsv(e.cfg.Columns)
	}
	if since.IsZero() { // first extraction takes everything...
		sqltext := fmt.Sprintf("select %v from %v order by %v", cols, e.cfg.SchemaTable, e.cfg.DeltaColumn)
		return e.capSql(sqltext), nil
	}
	sqltext := fmt.Sprintf("select %v from %v where %v > ? order by %v",
		cols, e.cfg.SchemaTable, e.cfg.DeltaColumn, e.cfg.DeltaColumn)
	return e.capSql(sqltext), []interface{}{sinceArg(since)}
}

// capSql applies MaxRows in the source database's dialect. Ordering by the delta column
// makes a capped extraction safe to resume from the batch's highest committed position.
func (e *SqlExtractor) capSql(sqltext string) string {
	if e.cfg.MaxRows <= 0 {
		return sqltext
	}
	if e.cfg.DbType == constants.ConnectionTypeSqlServer { // T-SQL has TOP, not LIMIT.
		return strings.Replace(sqltext, "select ", fmt.Sprintf("select top %v ", e.cfg.MaxRows), 1)
	}
	return fmt.Sprintf("%v limit %v", sqltext, e.cfg.MaxRows)
}

func sinceArg(p watermark.Position) interface{} {
	switch p.Type {
	case watermark.PositionTypeTime:
		return p.Time.UTC()
	case watermark.PositionTypeNumber:
		return p.Number
	default:
		return p.Token
	}
}

func (e *SqlExtractor) positionFromDelta(v interface{}) (watermark.Position, error) {
	if v == nil {
		return watermark.Position{}, errors.New("delta column value is null")
	}
	switch e.cfg.PositionType {
	case watermark.PositionTypeTime:
		switch x := v.(type) {
		case time.Time:
			return watermark.TimePosition(x), nil
		default:
			return watermark.Position{}, fmt.Errorf("delta column value %v of type %T is not a time", v, v)
		}
	case watermark.PositionTypeNumber:
		switch x := v.(type) {
		case int64:
			return watermark.NumberPosition(x), nil
		case int32:
			return watermark.NumberPosition(int64(x)), nil
		case int:
			return watermark.NumberPosition(int64(x)), nil
		case []byte:
			n, err := strconv.ParseInt(string(x), 10, 64)
			if err != nil {
				return watermark.Position{}, fmt.Errorf("delta column value %q is not a number", string(x))
			}
			return watermark.NumberPosition(n), nil
		default:
			return watermark.Position{}, fmt.Errorf("delta column value %v of type %T is not a number", v, v)
		}
	case watermark.PositionTypeToken:
		switch x := v.(type) {
		case string:
			return watermark.TokenPosition(x), nil
		case []byte:
			return watermark.TokenPosition(string(x)), nil
		default:
			return watermark.Position{}, fmt.Errorf("delta column value %v of type %T is not a string token", v, v)
		}
	default:
		return watermark.Position{}, fmt.Errorf("unhandled watermark position type %q", e.cfg.PositionType)
	}
}

func laterPosition(a, b watermark.Position) watermark.Position {
	if a.IsZero() {
		return b
	}
	cmp, err := b.Compare(a)
	if err != nil || cmp <= 0 {
		return a
	}
	return b
}
