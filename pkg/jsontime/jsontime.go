package jsontime

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// Time wraps time.Time so JSON input may be either a plain date
// ("1990-01-01") or a full RFC 3339 timestamp. Clients send bare dates
// for fields like birth and visit dates; output is always RFC 3339.
type Time struct {
	time.Time
}

func New(t time.Time) Time {
	return Time{Time: t}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if parsed, err := time.Parse(dateOnly, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	t.Time = parsed
	return nil
}

// Scan implements sql.Scanner so timestamp columns read straight into
// the wrapper.
func (t *Time) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into jsontime.Time", src)
	}
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	return t.Time, nil
}
