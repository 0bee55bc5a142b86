package storage

import (
	"strings"

	"github.com/julianstephens/habitkeep/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes the LIKE wildcards in s for use with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// MatchesSearch reports whether term occurs in the habit's title or
// description, ignoring case. term is matched literally.
func MatchesSearch(h models.Habit, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(h.Title), term) ||
		strings.Contains(strings.ToLower(h.Description), term)
}
