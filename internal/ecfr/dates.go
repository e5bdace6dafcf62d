package ecfr

import (
	"strings"
	"time"
)

// NormalizeDate converts a date string in any of the formats observed
// in catalog payloads (ISO, slash-separated, or anything time.Parse
// accepts as a plain date) to canonical yyyy-mm-dd form. It returns
// "" when the input is blank or unparsable.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.DateOnly, "2006/01/02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(time.DateOnly)
		}
	}
	return ""
}
