package screen

import (
	"testing"
	"time"
)

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"not a time", "not a time"},
		{"2024-01-01T00:00:00.000Z", "2024-01-01 02:00:00"},
		{"2024-01-01T00:00:00Z", "2024-01-01 02:00:00"},
		{"2024-06-30T23:59:59.999+02:00", "2024-06-30 23:59:59"},
		{"2024-01-01T10:30:00", "2024-01-01 10:30:00"},
		{"2024-01-01", "2024-01-01 00:00:00"},
	}
	for _, tt := range tests {
		if got := formatTimeIn(tt.in, loc); got != tt.want {
			t.Errorf("formatTimeIn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBroadcastTime(t *testing.T) {
	in := time.Date(2024, 1, 1, 2, 0, 0, 123456789, time.FixedZone("UTC+2", 2*60*60))
	if got := broadcastTime(in); got != "2024-01-01T00:00:00.123Z" {
		t.Errorf("broadcastTime() = %q", got)
	}
}

func TestTriState(t *testing.T) {
	if Unknown.String() != "Unknown" || TriStateOf(true).String() != "Yes" || TriStateOf(false).String() != "No" {
		t.Error("unexpected TriState rendering")
	}
	b, err := Yes.MarshalJSON()
	if err != nil || string(b) != `"Yes"` {
		t.Errorf("MarshalJSON = %s, %v", b, err)
	}
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	var b broadcaster[int]
	ch, cancel := b.subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		b.publish(i)
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered %d, want %d", len(ch), subscriberBuffer)
	}
	cancel()
	cancel()
	b.publish(99)
}
