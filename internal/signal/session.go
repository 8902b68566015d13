package signal

import "time"

// Session returns the fine-grained trading session for a UTC timestamp.
func Session(t time.Time) string {
	hour := t.UTC().Hour()
	switch {
	case hour < 7:
		return "ASIA"
	case hour < 8:
		return "LONDON_OPEN"
	case hour < 13:
		return "LONDON"
	case hour < 14:
		return "NY_OPEN"
	case hour < 17:
		return "OVERLAP"
	case hour < 21:
		return "NY"
	default:
		return "NY_CLOSE"
	}
}

// CoarseSession returns the four-bucket session labels used by the
// learning subsystem.
func CoarseSession(t time.Time) string {
	hour := t.UTC().Hour()
	switch {
	case hour < 8:
		return "asia"
	case hour < 14:
		return "london"
	case hour < 21:
		return "newyork"
	default:
		return "overlap"
	}
}
