package resolver

import (
	"strings"
)

// MatchKind tags the outcome of comparing candidates against criteria.
type MatchKind int

const (
	NoMatch MatchKind = iota
	ExactMatch
	AmbiguousMatch
)

func (k MatchKind) String() string {
	switch k {
	case NoMatch:
		return "none"
	case ExactMatch:
		return "exact"
	case AmbiguousMatch:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Match is the tagged result of a dedup search. IDs holds one id for
// ExactMatch and every candidate for AmbiguousMatch.
type Match struct {
	Kind MatchKind
	IDs  []int64
}

// ID returns the matched id. Only meaningful for ExactMatch.
func (m Match) ID() int64 {
	if m.Kind != ExactMatch || len(m.IDs) == 0 {
		return 0
	}
	return m.IDs[0]
}

// Classify turns the ids of exactly-matching candidates into a Match.
// Duplicate ids count once.
func Classify(ids []int64) Match {
	seen := make(map[int64]struct{}, len(ids))
	uniq := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	switch len(uniq) {
	case 0:
		return Match{Kind: NoMatch}
	case 1:
		return Match{Kind: ExactMatch, IDs: uniq}
	default:
		return Match{Kind: AmbiguousMatch, IDs: uniq}
	}
}

// Normalize folds a name for comparison: trimmed, inner whitespace
// collapsed to one space, lower case.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Same reports whether a and b are equal after normalization.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
