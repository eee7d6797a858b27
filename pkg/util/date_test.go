package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-01-30", " 2025-01-30 ", "2025-01-30T15:30:00Z"} {
		got, ok := ParseDate(in)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, %v", in, got, ok)
		}
	}
	if got, ok := ParseDate(""); !ok || !got.IsZero() {
		t.Fatalf("empty input should be zero and ok")
	}
	if _, ok := ParseDate("30/01/2025"); ok {
		t.Fatalf("expected failure")
	}
}

func TestSplitCSV(t *testing.T) {
	if got := SplitCSV("NIFTY, ,BANKNIFTY,"); len(got) != 2 || got[1] != "BANKNIFTY" {
		t.Fatalf("SplitCSV = %v", got)
	}
}
