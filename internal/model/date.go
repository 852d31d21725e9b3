package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a timestamp that normalizes every representation seen in
// stored or client-supplied data: RFC3339 strings, bare dates, epoch
// seconds or milliseconds, and {seconds,nanos} pairs. An absent or
// null value normalizes to "now" rather than failing, so legacy rows
// with missing timestamps stay readable.
type Date struct {
	time.Time
}

// secondsNanos is the split-epoch shape some document stores persist.
type secondsNanos struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanos"`
}

// NewDate wraps a time.Time.
func NewDate(t time.Time) Date { return Date{Time: t} }

// UnmarshalJSON accepts any of the supported timestamp encodings.
func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := normalizeJSON(b)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON always emits RFC3339, the canonical wire form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339Nano))
}

func normalizeJSON(b []byte) (time.Time, error) {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return time.Now().UTC(), nil
	}

	if strings.HasPrefix(s, "{") {
		var sn secondsNanos
		if err := json.Unmarshal(b, &sn); err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp object: %w", err)
		}
		return time.Unix(sn.Seconds, sn.Nanos).UTC(), nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return time.Time{}, err
		}
		return ParseTimeString(str)
	}

	// Bare number: epoch seconds, or milliseconds for large values.
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
		}
		n = int64(f)
	}
	return epochToTime(n), nil
}

// ParseTimeString normalizes a string timestamp. Empty strings yield
// "now".
func ParseTimeString(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epochToTime(n), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func epochToTime(n int64) time.Time {
	// Values beyond the year 33658 in seconds are clearly milliseconds.
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// Value stores the canonical time. Implemented so Date can live in
// gorm models.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan normalizes whatever representation the database hands back.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Now().UTC()
		return nil
	case time.Time:
		d.Time = v.UTC()
		return nil
	case string:
		t, err := ParseTimeString(v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case []byte:
		t, err := ParseTimeString(string(v))
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case int64:
		d.Time = epochToTime(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// NullableDate distinguishes three states of an optional timestamp
// field in a patch: absent (leave unchanged), explicit null (clear),
// and a concrete value. Needed for the checkout/reactivation
// tri-state on worker updates.
type NullableDate struct {
	Present bool
	Value   *time.Time
}

// UnmarshalJSON is only invoked when the field is present, so Present
// is always true here; json "null" leaves Value nil.
func (n *NullableDate) UnmarshalJSON(b []byte) error {
	n.Present = true
	if strings.TrimSpace(string(b)) == "null" {
		n.Value = nil
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	t := d.Time
	n.Value = &t
	return nil
}

// MarshalJSON keeps round-trips symmetrical for the set/cleared cases.
func (n NullableDate) MarshalJSON() ([]byte, error) {
	if !n.Present || n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value.Format(time.RFC3339Nano))
}

// SetDate builds a present NullableDate, used by tests and the repair
// tooling.
func SetDate(t time.Time) NullableDate {
	return NullableDate{Present: true, Value: &t}
}

// ClearDate builds an explicit-null NullableDate.
func ClearDate() NullableDate {
	return NullableDate{Present: true}
}
