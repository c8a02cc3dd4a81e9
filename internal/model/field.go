package model

import (
	"fmt"
	"strings"
)

// Field names one of the four editable time-of-day fields of an entry.
type Field int

const (
	FieldStartTime Field = iota
	FieldLunchStart
	FieldLunchEnd
	FieldEndTime
)

// Fields lists the editable fields in display order.
var Fields = []Field{FieldStartTime, FieldLunchStart, FieldLunchEnd, FieldEndTime}

func (f Field) String() string {
	switch f {
	case FieldStartTime:
		return "start"
	case FieldLunchStart:
		return "lunch-start"
	case FieldLunchEnd:
		return "lunch-end"
	case FieldEndTime:
		return "end"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField accepts the CLI names ("lunch-start") as well as the wire
// ("lunch_start") and camelCase ("lunchStart") spellings.
func ParseField(s string) (Field, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "start", "starttime":
		return FieldStartTime, nil
	case "lunchstart":
		return FieldLunchStart, nil
	case "lunchend":
		return FieldLunchEnd, nil
	case "end", "endtime":
		return FieldEndTime, nil
	}
	return 0, fmt.Errorf("unknown field %q (want start, lunch-start, lunch-end or end)", s)
}
