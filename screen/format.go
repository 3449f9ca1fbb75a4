package screen

import "time"

// DisplayTimeLayout renders timestamps on the NFC screen.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// Layouts accepted for a tag's time field. Zoneless values are local time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTime renders a timestamp read from a tag in local time. Empty input
// gives empty output and unparseable input is returned unchanged.
func FormatTime(s string) string {
	return formatTimeIn(s, time.Local)
}

func formatTimeIn(s string, loc *time.Location) string {
	if s == "" {
		return ""
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc).Format(DisplayTimeLayout)
		}
	}
	return s
}

// broadcastTime renders t the way handset JavaScript stamps payloads:
// UTC, millisecond precision, Z suffix.
func broadcastTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
