package stream

import (
	"testing"
	"time"

	om "github.com/cevaris/ordered_map"

	"github.com/lakepipe/lakepipe/logger"
)

func TestRecordJoinAndCompare(t *testing.T) {
	log := logger.NewLogger("lakepipe", "info", true)
	r1 := NewRecord()
	r1.SetData("productCode", "P1")
	r1.SetData("price", 10)
	r2 := NewRecord()
	r2.SetData("productCode", "P1")
	r2.SetData("price", 12)
	joinKeys := om.NewOrderedMap()
	joinKeys.Set("productCode", "productCode")
	if got := r1.DataCanJoinByKeyFields(log, r2, joinKeys); got != 0 {
		t.Fatalf("expected records to join, got comparison %v", got)
	}
	compareKeys := om.NewOrderedMap()
	compareKeys.Set("price", "price")
	if r1.DataIsDeepEqual(log, r2, compareKeys) {
		t.Fatal("expected price fields to differ")
	}
	r2.SetData("price", 10)
	if !r1.DataIsDeepEqual(log, r2, compareKeys) {
		t.Fatal("expected price fields to be equal")
	}
}

func TestGetDataAsTime(t *testing.T) {
	r := NewRecord()
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	r.SetData("updatedAt", now)
	r.SetData("updatedStr", "2021-06-01 12:00:00")
	r.SetData("badValue", 123)
	got, err := r.GetDataAsTime("updatedAt")
	if err != nil || !got.Equal(now) {
		t.Fatalf("expected %v, got %v (err %v)", now, got, err)
	}
	got, err = r.GetDataAsTime("updatedStr")
	if err != nil || got.Day() != 1 {
		t.Fatalf("unexpected parse result %v (err %v)", got, err)
	}
	if _, err = r.GetDataAsTime("badValue"); err == nil {
		t.Fatal("expected an error for a non-time field")
	}
	if _, err = r.GetDataAsTime("missing"); err == nil {
		t.Fatal("expected an error for a missing field")
	}
}

func TestMergeDataStreams(t *testing.T) {
	r1 := NewRecord()
	r1.SetData("a", 1)
	r2 := NewRecord()
	r2.SetData("a", 2)
	if _, err := MergeDataStreams(r1, r2, false); err == nil {
		t.Fatal("expected an error for duplicate field without overwrite")
	}
	merged, err := MergeDataStreams(r1, r2, true)
	if err != nil {
		t.Fatal(err)
	}
	if merged.GetData("a") != 2 {
		t.Fatal("expected overwrite to keep the second source value")
	}
}
