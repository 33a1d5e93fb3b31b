package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Record is one structured reply unit decoded from consecutive `key: value`
// lines, e.g. one track of a queue listing. Field names are case-insensitive
// and keep their first-seen order; setting an existing field overwrites its
// value in place.
type Record struct {
	keys   []string
	values map[string]string
}

// Set stores a field, overwriting any previous value for the same key.
func (r *Record) Set(key, value string) {
	key = strings.ToLower(key)
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key, or the empty string when absent.
func (r Record) Get(key string) string {
	return r.values[strings.ToLower(key)]
}

// Lookup returns the value for key and whether it is present.
func (r Record) Lookup(key string) (string, bool) {
	v, ok := r.values[strings.ToLower(key)]
	return v, ok
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	return r.keys
}

// Len reports the number of fields.
func (r Record) Len() int {
	return len(r.keys)
}

// MarshalJSON renders the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SplitPair splits a response line into its key and value. Lines without a
// `: ` separator are not field lines.
func SplitPair(line string) (string, string, bool) {
	i := strings.Index(line, ": ")
	if i < 0 {
		return "", "", false
	}
	return strings.ToLower(line[:i]), line[i+2:], true
}

// GroupRecords groups response lines into records. A line whose key equals
// startField begins a new record when the accumulator already holds fields;
// a trailing non-empty accumulator is emitted once. No lines means no
// records. An empty startField collapses all lines into a single record.
func GroupRecords(lines []string, startField string) []Record {
	startField = strings.ToLower(startField)

	var out []Record
	var acc Record
	for _, line := range lines {
		key, value, ok := SplitPair(line)
		if !ok {
			continue
		}
		if startField != "" && key == startField && acc.Len() > 0 {
			out = append(out, acc)
			acc = Record{}
		}
		acc.Set(key, value)
	}
	if acc.Len() > 0 {
		out = append(out, acc)
	}
	return out
}
