package actions

import (
	"fmt"

	"github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
	"github.com/lakepipe/lakepipe/watermark"
)

// WatermarkListConfig is the config for the watermark list action.
type WatermarkListConfig struct {
	Connections      ConnectionLoader `errorTxt:"connections config" mandatory:"yes"`
	TargetString     ConnectionObject // <connection>[.<schema>.<table>]; the table defaults to the standard watermark table name.
	LogLevel         string           `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
}

// RunWatermarkList prints the saved watermark for every source-entity pair in the
// watermark table on the given connection.
func RunWatermarkList(cfg interface{}) error {
	c, ok := cfg.(*WatermarkListConfig)
	if !ok {
		return fmt.Errorf("expected *WatermarkListConfig in call to RunWatermarkList")
	}
	log := logger.NewLogger("lakepipe", c.LogLevel, c.StackDumpOnPanic)
	if err := helper.ValidateStructIsPopulated(c); err != nil {
		return err
	}
	db, err := openConnection(log, c.Connections, c.TargetString.GetConnectionName())
	if err != nil {
		return err
	}
	defer db.Close()
	records, err := watermark.NewSqlStore(log, db, c.TargetString.GetObject()).List()
	if err != nil {
		return err
	}
	if len(records) == 0 { // if there are no watermarks yet...
		fmt.Println("No watermarks found.")
		return nil
	}
	for _, rec := range records { // for each saved watermark...
		fmt.Println(fmt.Sprintf(`%v.%v:
  position: %v
  updatedAt: %v`, rec.SourceSystem, rec.Entity, rec.Position.String(), rec.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")))
	}
	return nil
}
