package football

import "strings"

// FixtureIncludes returns the relations loaded with every fixture
func FixtureIncludes() []string {
	return []string{"participants", "league", "venue", "scores", "state"}
}

// LeagueIncludes returns the relations loaded with every league
func LeagueIncludes() []string {
	return []string{"country"}
}

// JoinIncludes renders includes the way the vendor expects them (comma-separated)
func JoinIncludes(includes []string) string {
	return strings.Join(includes, ",")
}
