// Package credibility scores evidence sources and classifies claims using fixed heuristics.
package credibility

import (
	"math"
	"strings"
	"time"
)

// tldAuthority maps a domain suffix to its authority weight.
var tldAuthority = map[string]float64{
	".gov": 1.0,
	".edu": 0.9,
	".int": 0.9,
	".org": 0.7,
	".com": 0.6,
	".net": 0.5,
}

const (
	defaultTLDWeight     = 0.5
	unknownRecencyWeight = 0.6

	tldFactor     = 0.6
	recencyFactor = 0.4
)

// DomainFromURL returns the lower-cased network location of rawURL: the
// authority between "//" and the path, userinfo and port included. It is
// empty when the URL has no authority or an unbalanced IPv6 bracket. Hosts
// that net/url would reject, such as ones containing spaces, are kept.
func DomainFromURL(rawURL string) string {
	rest := strings.TrimLeft(rawURL, "\x00\x01\x02\x03\x04\x05\x06\x07\x08\t\n\v\f\r\x0e\x0f"+
		"\x10\x11\x12\x13\x14\x15\x16\x17\x18\x19\x1a\x1b\x1c\x1d\x1e\x1f ")
	rest = strings.NewReplacer("\t", "", "\r", "", "\n", "").Replace(rest)

	if i := strings.IndexByte(rest, ':'); i > 0 && isScheme(rest[:i]) {
		rest = rest[i+1:]
	}

	authority, ok := strings.CutPrefix(rest, "//")
	if !ok {
		return ""
	}
	if end := strings.IndexAny(authority, "/?#"); end >= 0 {
		authority = authority[:end]
	}
	if strings.Contains(authority, "[") != strings.Contains(authority, "]") {
		return ""
	}
	return strings.ToLower(authority)
}

func isScheme(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// TLDWeight returns the authority weight of the longest table suffix the domain ends with.
func TLDWeight(domain string) float64 {
	weight := defaultTLDWeight
	longest := 0
	for suffix, w := range tldAuthority {
		if strings.HasSuffix(domain, suffix) && len(suffix) > longest {
			weight = w
			longest = len(suffix)
		}
	}
	return weight
}

// RecencyWeight weights a publish time against the current UTC wall clock.
func RecencyWeight(published *time.Time) float64 {
	return RecencyWeightAt(published, utcNow())
}

// RecencyWeightAt buckets the age of published in whole days relative to now.
func RecencyWeightAt(published *time.Time, now time.Time) float64 {
	if published == nil {
		return unknownRecencyWeight
	}

	days := ageInDays(*published, now)
	switch {
	case days <= 7:
		return 1.0
	case days <= 30:
		return 0.9
	case days <= 180:
		return 0.8
	case days <= 365:
		return 0.7
	default:
		return unknownRecencyWeight
	}
}

// Score combines domain authority and recency into a value in [0, 1], rounded to 3 decimals.
func Score(domain string, published *time.Time) float64 {
	return ScoreAt(domain, published, utcNow())
}

// ScoreAt is Score evaluated against a fixed clock.
func ScoreAt(domain string, published *time.Time, now time.Time) float64 {
	raw := tldFactor*TLDWeight(domain) + recencyFactor*RecencyWeightAt(published, now)
	return math.Round(raw*1000) / 1000
}

// ageInDays floors the elapsed time to whole days, so future dates are negative.
func ageInDays(published, now time.Time) int {
	return int(math.Floor(now.Sub(published).Hours() / 24))
}

// utcNow returns the current UTC wall clock as a zone-less time, matching
// how publish dates are stored.
func utcNow() time.Time {
	return Naive(time.Now().UTC())
}

// Naive keeps the wall clock of t and drops its zone.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
