package actions

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lakepipe/lakepipe/components"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/scd2"
	"github.com/lakepipe/lakepipe/stream"
)

// quarantineHeaderFields is the CSV header for quarantine report files.
var quarantineHeaderFields = []string{"batchToken", "naturalKey", "reason", "error", "record"}

// CsvQuarantineWriter persists a batch's quarantined records as CSV files, locally and
// optionally copied to an S3 bucket for operator triage.
type CsvQuarantineWriter struct {
	log  logger.Logger
	spec QuarantineSpec
}

func NewCsvQuarantineWriter(log logger.Logger, spec QuarantineSpec) *CsvQuarantineWriter {
	return &CsvQuarantineWriter{log: log, spec: spec}
}

// componentWaitGroup adapts sync.WaitGroup to the interface expected by channel components.
type componentWaitGroup struct {
	wg sync.WaitGroup
}

func (c *componentWaitGroup) Add()  { c.wg.Add(1) }
func (c *componentWaitGroup) Done() { c.wg.Done() }

// Write dumps the quarantined records to one or more CSV files named after the batch.
// When a bucket is configured the files are copied to S3 and removed locally.
func (w *CsvQuarantineWriter) Write(batchId string, q []scd2.Quarantined) error {
	if len(q) == 0 { // if there is nothing to persist...
		return nil
	}
	inputChan := make(chan stream.Record, len(q))
	for _, item := range q { // for each quarantined record...
		rec := stream.NewRecord()
		rec.SetData(quarantineHeaderFields[0], item.BatchToken)
		rec.SetData(quarantineHeaderFields[1], item.NaturalKey)
		rec.SetData(quarantineHeaderFields[2], item.Reason)
		errTxt := ""
		if item.Err != nil {
			errTxt = item.Err.Error()
		}
		rec.SetData(quarantineHeaderFields[3], errTxt)
		rec.SetData(quarantineHeaderFields[4], item.Record.GetJson(w.log, item.Record.GetSortedDataMapKeys()))
		inputChan <- rec
	}
	close(inputChan)
	prefix := w.spec.FileNamePrefix
	if prefix == "" {
		prefix = "quarantine"
	}
	wg := &componentWaitGroup{}
	chanErr := make(chan error, 2)
	panicHandlerFn := func() {
		if r := recover(); r != nil { // if a component panicked...
			var err error
			if x, ok := r.(*logrus.Entry); ok { // if we can cast to *logrus.Entry...
				err = fmt.Errorf("%v", x.Message)
			} else {
				err = fmt.Errorf("%v", r)
			}
			chanErr <- err
		}
	}
	outputChan, _ := components.NewCsvFileWriter(&components.CsvFileWriterConfig{
		Log:                               w.log,
		Name:                              fmt.Sprintf("quarantine CSV writer for batch %v", batchId),
		InputChan:                         inputChan,
		OutputDir:                         w.spec.Dir,
		FileNamePrefix:                    fmt.Sprintf("%v-%v", prefix, batchId),
		FileNameSuffixAppendCreationStamp: true,
		FileNameExtension:                 "csv",
		HeaderFields:                      quarantineHeaderFields,
		WaitCounter:                       wg,
		PanicHandlerFn:                    panicHandlerFn,
	})
	if w.spec.BucketName != "" { // if the files should be shipped to S3...
		outputChan, _ = components.NewCopyFilesToS3(&components.CopyFilesToS3Config{
			Log:               w.log,
			Name:              fmt.Sprintf("quarantine S3 copier for batch %v", batchId),
			InputChan:         outputChan,
			FileNameChanField: components.Defaults.ChanField4CSVFileName,
			BucketName:        w.spec.BucketName,
			BucketPrefix:      w.spec.BucketPrefix,
			Region:            w.spec.Region,
			RemoveInputFiles:  true,
			WaitCounter:       wg,
			PanicHandlerFn:    panicHandlerFn,
		})
	}
	// Drain the file names until the last component completes or panics.
	var err error
loop:
	for {
		select {
		case rec, ok := <-outputChan:
			if !ok { // if the last component is done...
				break loop
			}
			w.log.Info("quarantine report file for batch ", batchId, ": ", rec.GetDataAsStringPreserveTimeZone(w.log, components.Defaults.ChanField4CSVFileName))
		case err = <-chanErr: // if a component panicked...
			break loop
		}
	}
	wg.wg.Wait()
	if err == nil { // if no panic was seen while draining, check again after shutdown...
		select {
		case err = <-chanErr:
		default:
		}
	}
	return err
}
