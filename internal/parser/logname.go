package parser

import (
	"regexp"
	"time"
)

// Capture tooling names log files with the wall-clock capture time, e.g.
// "Round_2023-05-13-19-18-04.txt".
var lognameStampRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})-(\d{2})-(\d{2})-(\d{2})`)

// LogNameTime extracts the capture timestamp embedded in a log filename.
// Returns the zero time when the filename carries no recognizable stamp.
func LogNameTime(name string) time.Time {
	m := lognameStampRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02-15-04-05", m[0])
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
