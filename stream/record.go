package stream

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"

	h "github.com/lakepipe/lakepipe/helper"
	"github.com/lakepipe/lakepipe/logger"
)

// NewRecord creates a new Record and returns it by value as we expect these records to go over
// channels by value too. The internal map is shared by copies so components must not hold on to
// records after sending them downstream.
func NewRecord() Record {
	return Record{
		data: make(map[string]interface{}),
	}
}

func NewNilRecord() Record {
	return Record{}
}

func (sr Record) RecordIsNil() bool {
	return len(sr.data) == 0 && sr.data == nil
}

// Record is used to communicate data between components.
// Attribute fields hold raw source values, which can represent null database values as nil
// interfaces. Fields whose names start with '#' are reserved for engine metadata, for example
// the extraction sequence number and the merge action flag.
type Record struct {
	data map[string]interface{}
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

func (sr Record) GetData(name string) interface{} {
	val, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("Invalid key name %q supplied while trying to fetch value from record: %v", name, sr.data))
	}
	return val
}

// GetDataOk fetches the value of the named field and reports whether the field exists,
// so callers can handle optional fields without a panic.
func (sr Record) GetDataOk(name string) (interface{}, bool) {
	val, ok := sr.data[name]
	return val, ok
}

func (sr Record) DeleteData(name string) {
	delete(sr.data, name)
}

func (sr Record) GetDataMap() map[string]interface{} {
	return sr.data
}

// GetDataAsStringUseUtcTime will convert the named field's value to a string for the purposes
// of gt/lt comparison. Times are converted to UTC for string comparison!
func (sr Record) GetDataAsStringUseUtcTime(log logger.Logger, name string) (retval string) {
	return sr.getStringFromInterface(log, name, true)
}

// GetDataAsStringPreserveTimeZone will convert the named field's value to a string.
// Times will be in local time.
func (sr Record) GetDataAsStringPreserveTimeZone(log logger.Logger, name string) (retval string) {
	return sr.getStringFromInterface(log, name, false)
}

func (sr Record) getStringFromInterface(log logger.Logger, name string, useUTC bool) (retval string) {
	v, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("unexpected field %q does not exist in the input stream (bad pipe definition?)", name))
	}
	return h.GetStringFromInterface(log, v, useUTC)
}

// GetDataAsTime fetches the named field as a time.Time.
// Values of type time.Time are returned as-is; strings are parsed with RFC3339 then the
// lakepipe time formats. An error is returned for anything else so callers can quarantine
// the record instead of guessing.
func (sr Record) GetDataAsTime(name string) (time.Time, error) {
	v, ok := sr.data[name]
	if !ok {
		return time.Time{}, fmt.Errorf("field %q does not exist in the input stream", name)
	}
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		for _, layout := range []string{time.RFC3339, "20060102T150405-0700", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("field %q value %q is not a recognised time format", name, x)
	default:
		return time.Time{}, fmt.Errorf("field %q of type %T cannot be used as a time", name, v)
	}
}

func (sr Record) GetDataAsStringSlice(log logger.Logger) []string {
	retval := make([]string, 0) // no max capacity so this allows the caller to reuse keys multiple times.
	for k := range sr.data {
		retval = append(retval, sr.GetDataAsStringPreserveTimeZone(log, k))
	}
	return retval
}

// GetDataKeysAsSlice builds a slice of strings containing the values found in sr.data for each of
// the supplied keys in slice keys.
func (sr Record) GetDataKeysAsSlice(log logger.Logger, keys []string) []string {
	retval := make([]string, 0)
	for _, k := range keys {
		retval = append(retval, sr.GetDataAsStringPreserveTimeZone(log, k))
	}
	return retval
}

func (sr Record) GetDataLen() int {
	return len(sr.data)
}

// GetSortedDataMapKeys will return a slice of the keys found in map sr.data sorted alphabetically.
func (sr Record) GetSortedDataMapKeys() []string {
	retval := make([]string, 0)
	for k := range sr.data {
		retval = append(retval, k)
	}
	sort.Slice(retval, func(i, j int) bool {
		return retval[i] < retval[j]
	})
	return retval
}

func (sr Record) CopyTo(t Record) {
	for k, v := range sr.data {
		t.SetData(k, v)
	}
}

// DataCanJoinByKeyFields compares two records using key fields for equality (return 0)
// less-than (return -1) or greater-than (return 1) status where return values are:
// -1 if sr is less than targetRec
//  0 if sr matches targetRec
//  1 if sr is greater than targetRec
func (sr Record) DataCanJoinByKeyFields(log logger.Logger, targetRec Record, joinKeys *om.OrderedMap) (retval int) {
	iter := joinKeys.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() { // for each key to compare...
		v1 := sr.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Key))
		v2 := targetRec.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Value))
		if v1 < v2 {
			retval = -1 // exit early as we have found a difference.
			break
		} else if v1 == v2 {
			retval = 0 // continue to check the next key.
		} else {
			retval = 1 // exit early as we have found a difference.
			break
		}
	}
	log.Trace("DataCanJoinByKeyFields() returning ", retval, " (0 is equal)")
	return
}

// DataIsDeepEqual compares two records for equality using reflect.DeepEqual over the
// string form of each value.
// Specify the keys to use for the comparison in the ordered map compareKeys.
// Example: use contents of compareKeys["X"]="Y" to check if sr["X"] == targetRec["Y"] and repeat
// for all of the map contents.
func (sr Record) DataIsDeepEqual(log logger.Logger, targetRec Record, compareKeys *om.OrderedMap) (retval bool) {
	iter := compareKeys.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() { // while we have more keys to compare...
		v1 := sr.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Key))
		v2 := targetRec.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Value))
		retval = reflect.DeepEqual(v1, v2)
		if !retval { // if records are NOT equal then return early!
			break
		}
	}
	return
}

// GetDataByKeys builds a list of data values found in the supplied Record using the keys supplied.
// Output: this function modifies the supplied list 'l' and 'idx' by reference.
// 'idx' is the last index in the slice 'l' that is populated.
// 'keys' is the map whose keys are field names in sr.data, while its values are database table
// field names.
func (sr Record) GetDataByKeys(log logger.Logger, keys *om.OrderedMap, l *[]interface{}, idx *int) {
	iter := keys.IterFunc()
	if iter == nil {
		log.Panic("GetDataByKeys() failed to get iterFunc.")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		key := kv.Key.(string)
		(*l)[*idx] = sr.GetData(key) // get value from rec using the key in keys.
		*idx++                       // save the location in the slice for the caller.
	}
}

// GetJson returns the JSON representation of sr.data using the supplied keys to fetch the data.
func (sr Record) GetJson(log logger.Logger, keys []string) string {
	out := make([]string, len(keys))
	for idx, key := range keys { // for each key...
		jsonValue, err := json.Marshal(sr.GetDataAsStringPreserveTimeZone(log, key))
		if err != nil {
			log.Panic("Error marshalling the value of key '", key, "' to JSON")
		}
		out[idx] = fmt.Sprintf("%q: %s", key, string(jsonValue))
	}
	return fmt.Sprintf("{%v}", strings.Join(out, ", "))
}

// MergeDataStreams will combine records from s1 into a new record, followed by s2 into the new
// record before returning it. You can supply a nil s2 to create a copy of s1 that is returned.
// If allowOverwrite is false, an error is returned if a field in s2 already exists in s1.
func MergeDataStreams(s1 Record, s2 Record, allowOverwrite bool) (Record, error) {
	retval := NewRecord()
	for k, v := range s1.GetDataMap() { // for each key:value in the 1st source...
		retval.data[k] = v // save it to the output
	}
	if !s2.RecordIsNil() { // if s2 is not empty...
		for k, v := range s2.GetDataMap() { // for each key:value in the 2nd source...
			_, ok := retval.data[k]
			if ok && !allowOverwrite { // if the key already exists...
				return Record{}, fmt.Errorf("field %v exists in stream record", k)
			} else { // else update the target map...
				retval.data[k] = v // save the source key:value
			}
		}
	}
	return retval, nil
}
