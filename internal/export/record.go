package export

import (
	"bytes"
	"encoding/json"
)

type Field struct {
	Key   string
	Value any
}

// Record is one sample with ordered keys. A Record value nests.
type Record []Field

func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Flatten lifts nested records into parent.child keys.
func (r Record) Flatten() Record {
	out := make(Record, 0, len(r))
	for _, f := range r {
		nested, ok := f.Value.(Record)
		if !ok {
			out = append(out, f)
			continue
		}
		for _, sub := range nested.Flatten() {
			out = append(out, Field{Key: f.Key + "." + sub.Key, Value: sub.Value})
		}
	}
	return out
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
