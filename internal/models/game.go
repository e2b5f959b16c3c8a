package models

// Game is one entry of the provider catalog. Slug is the public identifier
// (e.g. "softswiss:AlohaKingElvis"), GID the provider-side path form used to
// bootstrap the upstream session.
type Game struct {
	Slug     string `json:"slug"`
	Provider string `json:"provider"`
	GID      string `json:"gid"`
	Enabled  bool   `json:"internal_enabled"`
}

// DefaultGames mirrors the catalog the launcher exposes. A real deployment
// would load this from a database.
func DefaultGames() []Game {
	return []Game{
		{Slug: "softswiss:AlohaKingElvis", Provider: "bgaming", GID: "softswiss/AlohaKingElvis", Enabled: true},
		{Slug: "softswiss:WildTexas", Provider: "bgaming", GID: "softswiss/WildTexas", Enabled: true},
	}
}

func FindGame(games []Game, slug string) (*Game, bool) {
	for i := range games {
		if games[i].Slug == slug {
			return &games[i], true
		}
	}
	return nil, false
}
