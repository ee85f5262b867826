package tagname

import "strings"

// LikeEscape is the escape character used in LIKE patterns built by
// ContainsPattern. It is the default escape character of both supported
// SQL backends when used with an explicit ESCAPE clause.
const LikeEscape = `\`

var likeEscaper = strings.NewReplacer(
	LikeEscape, LikeEscape+LikeEscape,
	"%", LikeEscape+"%",
	"_", LikeEscape+"_",
)

// ContainsPattern returns a LIKE pattern matching any value that contains
// name as a literal substring.
func ContainsPattern(name string) string {
	return "%" + likeEscaper.Replace(name) + "%"
}

// ContainsPatterns maps ContainsPattern over names.
func ContainsPatterns(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = ContainsPattern(n)
	}
	return out
}
