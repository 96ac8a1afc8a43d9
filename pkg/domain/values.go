package domain

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// FieldKind enumerates the closed set of shapes a field value can take.
// Import drivers decide the kind once per declared field, not per row.
type FieldKind string

// Field value kinds.
const (
	FieldText          FieldKind = "text"
	FieldInt           FieldKind = "int"
	FieldFloat         FieldKind = "float"
	FieldBool          FieldKind = "bool"
	FieldDate          FieldKind = "date"
	FieldReference     FieldKind = "reference"
	FieldReferenceList FieldKind = "reference_list"
	FieldTextList      FieldKind = "text_list"
	FieldRecord        FieldKind = "record"
	FieldRecordList    FieldKind = "record_list"
	FieldFile          FieldKind = "file"
)

// Record is one row of a record-list field (result ranges, interim fields,
// template partitions). Keys and values are plain strings.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	clone := make(Record, len(r))
	for k, v := range r {
		clone[k] = v
	}
	return clone
}

// Value is a tagged variant holding one field value. Exactly one payload
// member is meaningful, selected by Kind.
type Value struct {
	Kind    FieldKind  `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Int     int64      `json:"int,omitempty"`
	Float   float64    `json:"float,omitempty"`
	Bool    bool       `json:"bool,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
	Ref     string     `json:"ref,omitempty"`
	Refs    []string   `json:"refs,omitempty"`
	List    []string   `json:"list,omitempty"`
	Record  Record     `json:"record,omitempty"`
	Records []Record   `json:"records,omitempty"`
	File    []byte     `json:"file,omitempty"`
}

// TextValue wraps a plain string field.
func TextValue(s string) Value { return Value{Kind: FieldText, Text: s} }

// IntValue wraps an integer field.
func IntValue(n int64) Value { return Value{Kind: FieldInt, Int: n} }

// FloatValue wraps a floating-point field.
func FloatValue(f float64) Value { return Value{Kind: FieldFloat, Float: f} }

// BoolValue wraps a boolean field.
func BoolValue(b bool) Value { return Value{Kind: FieldBool, Bool: b} }

// DateValue wraps a timestamp field.
func DateValue(t time.Time) Value { return Value{Kind: FieldDate, Date: &t} }

// RefValue wraps a single-entity reference by UID.
func RefValue(uid string) Value { return Value{Kind: FieldReference, Ref: uid} }

// RefsValue wraps an ordered multi-entity reference by UIDs.
func RefsValue(uids ...string) Value {
	return Value{Kind: FieldReferenceList, Refs: append([]string(nil), uids...)}
}

// ListValue wraps an ordered list of strings.
func ListValue(items ...string) Value {
	return Value{Kind: FieldTextList, List: append([]string(nil), items...)}
}

// RecordValue wraps a single record field (an address block, for example).
func RecordValue(record Record) Value {
	return Value{Kind: FieldRecord, Record: record.Clone()}
}

// RecordsValue wraps an ordered list of records.
func RecordsValue(records ...Record) Value {
	return Value{Kind: FieldRecordList, Records: append([]Record(nil), records...)}
}

// FileValue wraps raw file contents.
func FileValue(data []byte) Value {
	return Value{Kind: FieldFile, File: append([]byte(nil), data...)}
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	clone := v
	if v.Date != nil {
		date := *v.Date
		clone.Date = &date
	}
	if v.Refs != nil {
		clone.Refs = append([]string(nil), v.Refs...)
	}
	if v.List != nil {
		clone.List = append([]string(nil), v.List...)
	}
	if v.Record != nil {
		clone.Record = v.Record.Clone()
	}
	if v.Records != nil {
		clone.Records = make([]Record, len(v.Records))
		for i, rec := range v.Records {
			clone.Records[i] = rec.Clone()
		}
	}
	if v.File != nil {
		clone.File = append([]byte(nil), v.File...)
	}
	return clone
}

// AsText renders the value for display and filter comparison. Reference and
// file payloads render as their identity or empty, never as raw bytes.
func (v Value) AsText() string {
	switch v.Kind {
	case FieldText:
		return v.Text
	case FieldInt:
		return strconv.FormatInt(v.Int, 10)
	case FieldFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case FieldBool:
		return strconv.FormatBool(v.Bool)
	case FieldDate:
		if v.Date == nil {
			return ""
		}
		return v.Date.Format(time.RFC3339)
	case FieldReference:
		return v.Ref
	case FieldTextList:
		return strings.Join(v.List, ", ")
	default:
		return ""
	}
}

// Values maps field names to typed values.
type Values map[string]Value

// Clone returns a deep copy of the field map.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	clone := make(Values, len(v))
	for name, value := range v {
		clone[name] = value.Clone()
	}
	return clone
}

// NormalizeKey canonicalizes a lookup key for comparison: Unicode NFC,
// surrounding whitespace removed, case folded.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
