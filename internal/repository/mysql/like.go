package mysql

import "strings"

// likeEscape is used instead of backslash so the same clause works on MySQL
// and SQLite.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// containsPattern returns a LIKE pattern matching s anywhere, taken literally.
// Use it with the likeClause suffix.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

const likeClause = " LIKE ? ESCAPE '" + likeEscape + "'"
