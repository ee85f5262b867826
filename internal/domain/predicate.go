package domain

// ComparisonMode selects how a storage backend compares a stored tag name
// with a requested one. Each backend renders the mode in its own dialect.
type ComparisonMode int

const (
	// CompareFolded compares ASCII-lowercased forms ("Ruby" matches "ruby").
	CompareFolded ComparisonMode = iota

	// CompareBinary compares byte for byte, overriding any case-insensitive
	// default collation of the backend.
	CompareBinary
)

// String returns a short label for logs.
func (m ComparisonMode) String() string {
	if m == CompareBinary {
		return "binary"
	}
	return "folded"
}

// MatchKind is the shape of a name predicate.
type MatchKind int

const (
	// MatchExact matches names equal to any of the predicate names.
	MatchExact MatchKind = iota

	// MatchContains matches names containing any of the predicate names as a
	// literal, case-insensitive substring.
	MatchContains
)

// NamePredicate is a storage query over tag names. Names are OR-combined.
// For MatchExact the names are already in the form Comparison expects
// (folded for CompareFolded); for MatchContains they are raw and the
// backend escapes pattern characters.
type NamePredicate struct {
	Kind       MatchKind
	Names      []string
	Comparison ComparisonMode
}
