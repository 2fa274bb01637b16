package metadata

import (
	"fmt"
)

var _ = fmt.Print

// Kind says which of the three record variants a Record is.
type Kind int

const (
	Normal Kind = iota
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// FieldKey names a display field of a Record.
type FieldKey string

const (
	Make         FieldKey = "make"
	Model        FieldKey = "model"
	FNumber      FieldKey = "fNumber"
	ExposureTime FieldKey = "exposureTime"
	ISO          FieldKey = "iso"
	FocalLength  FieldKey = "focalLength"
)

// FieldOrder is the order in which fields are produced and rendered.
var FieldOrder = []FieldKey{Make, Model, FNumber, ExposureTime, ISO, FocalLength}

type Field struct {
	Key   FieldKey
	Value string
}

// Record is the normalized, display-ready metadata of one image. Message is
// set for Warning and Error records only.
type Record struct {
	Kind    Kind
	Message string
	Fields  []Field
}

// Get returns the value of the field key.
func (r Record) Get(key FieldKey) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Map returns the fields as a map, for JSON output and quick lookups.
func (r Record) Map() map[string]string {
	ans := make(map[string]string, len(r.Fields)+1)
	for _, f := range r.Fields {
		ans[string(f.Key)] = f.Value
	}
	switch r.Kind {
	case Warning:
		ans["warning"] = r.Message
	case Error:
		ans["error"] = r.Message
	}
	return ans
}

// placeholders returns the placeholder valued fields for keys.
func placeholders(unknown string, keys ...FieldKey) []Field {
	ans := make([]Field, len(keys))
	for i, k := range keys {
		ans[i] = Field{Key: k, Value: unknown}
	}
	return ans
}
