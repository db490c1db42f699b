package inventory

import (
	"fmt"
	"time"
)

// DefaultTTL is the lifetime given to hosts with no expiry date.
const DefaultTTL = 365 * 24 * time.Hour

// Accepted expiry layouts, tried in order. Single-digit days and months are
// accepted as well.
var expiryLayouts = []string{"2006-1-2", "2/1/2006"}

// DateFormatError reports an expiry value matching none of the accepted layouts.
type DateFormatError struct {
	Host  string
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("host %s has invalid date format for expiry: format should be 'YYYY-MM-DD' or 'DD/MM/YYYY', received %q", e.Host, e.Value)
}

// Expiry returns the row's expiry date in now's location. An empty value
// expires defaultTTL after now.
func (r Row) Expiry(now time.Time, defaultTTL time.Duration) (time.Time, error) {
	if r.Expires == "" {
		return now.Add(defaultTTL), nil
	}
	return ParseExpiry(r.Expires, now.Location(), r.Hostname)
}

// ParseExpiry parses value as YYYY-MM-DD, falling back to DD/MM/YYYY.
func ParseExpiry(value string, loc *time.Location, host string) (time.Time, error) {
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateFormatError{Host: host, Value: value}
}
