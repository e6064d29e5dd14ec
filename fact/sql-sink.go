package fact

import (
	om "github.com/cevaris/ordered_map"
	"github.com/pkg/errors"

	"github.com/lakepipe/lakepipe/constants"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/rdbms/shared"
	"github.com/lakepipe/lakepipe/stream"
)

type SqlSinkConfig struct {
	Log           logger.Logger
	Db            shared.Connector
	OutputSchema  string
	OutputTable   string         `errorTxt:"fact output table" mandatory:"yes"`
	TargetKeyCols *om.OrderedMap // ordered map of: key = record field name; value = target table column name (resolved surrogate keys).
	TargetColumns *om.OrderedMap // ordered map of: key = record field name; value = target table column name (measures and degenerate attributes).
	ExecBatchSize int
}

// SqlSink writes resolved fact rows to a database table using batched multi-row INSERT
// statements. Rows accumulate until the batch is full; Flush writes the remainder and
// commits, so a batch becomes visible atomically.
type SqlSink struct {
	log       logger.Logger
	cfg       *SqlSinkConfig
	fields    []string // record field names in column order.
	generator shared.SqlStmtTxtBatcher
	tx        shared.Transacter
	pending   [][]interface{}
}

func NewSqlSink(cfg *SqlSinkConfig) (*SqlSink, error) {
	if cfg.ExecBatchSize == 0 {
		cfg.ExecBatchSize = constants.DimBatchSizeDefault
	}
	if cfg.Db == nil {
		return nil, errors.New("missing db connection in call to NewSqlSink")
	}
	gen, ok := cfg.Db.GetDmlGenerator().NewInsertGenerator(&shared.SqlStatementGeneratorConfig{
		Log:             cfg.Log,
		OutputSchema:    cfg.OutputSchema,
		OutputTable:     cfg.OutputTable,
		TargetKeyCols:   cfg.TargetKeyCols,
		TargetOtherCols: cfg.TargetColumns,
	}).(shared.SqlStmtTxtBatcher)
	if !ok {
		return nil, errors.New("batched INSERT is not supported for this connection")
	}
	s := &SqlSink{log: cfg.Log, cfg: cfg, generator: gen}
	for _, m := range []*om.OrderedMap{cfg.TargetKeyCols, cfg.TargetColumns} {
		iter := m.IterFunc()
		for kv, ok := iter(); ok; kv, ok = iter() {
			s.fields = append(s.fields, kv.Key.(string))
		}
	}
	return s, nil
}

func (s *SqlSink) WriteRow(rec stream.Record) error {
	values := make([]interface{}, len(s.fields))
	for idx, field := range s.fields {
		values[idx], _ = rec.GetDataOk(field)
	}
	s.pending = append(s.pending, values)
	if len(s.pending) >= s.cfg.ExecBatchSize { // if the batch is full...
		return s.execPending()
	}
	return nil
}

// Flush writes any partial batch and commits the transaction.
func (s *SqlSink) Flush() error {
	if err := s.execPending(); err != nil {
		return err
	}
	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			return errors.Wrapf(err, "unable to commit fact rows to %v", s.cfg.OutputTable)
		}
		s.tx = nil
	}
	return nil
}

// Rollback discards uncommitted rows after a batch-fatal error.
func (s *SqlSink) Rollback() error {
	s.pending = nil
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

func (s *SqlSink) execPending() error {
	if len(s.pending) == 0 {
		return nil
	}
	if s.tx == nil {
		var err error
		if s.tx, err = s.cfg.Db.Begin(); err != nil {
			return errors.Wrapf(err, "unable to begin a transaction for fact table %v", s.cfg.OutputTable)
		}
	}
	// Size the generated INSERT to the exact number of pending rows so a partial final
	// batch produces matching binds and values.
	s.generator.InitBatch(len(s.pending))
	for _, values := range s.pending {
		if _, err := s.generator.AddValuesToBatch(values); err != nil {
			return errors.Wrapf(err, "unable to add a fact row to the INSERT batch for %v", s.cfg.OutputTable)
		}
	}
	if _, err := s.tx.Exec(s.generator.GetStatement(), s.generator.GetValues()...); err != nil {
		return errors.Wrapf(err, "unable to insert fact rows into %v", s.cfg.OutputTable)
	}
	s.log.Debug("fact sink wrote ", len(s.pending), " rows to ", s.cfg.OutputTable)
	s.pending = s.pending[:0]
	return nil
}
