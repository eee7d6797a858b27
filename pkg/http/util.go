package http

import (
	"time"

	xutil "SymDir/pkg/util"
)

// ParseDate parses a YYYY-MM-DD (or RFC3339) query value; empty is the zero time.
func ParseDate(s string) (time.Time, bool) { return xutil.ParseDate(s) }
