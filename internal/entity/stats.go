package entity

const DefaultRating = 1200

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	OwnerID   string `json:"odId"`
	Username  string `json:"username"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
	Draws     int    `json:"draws"`
	Rating    int    `json:"rating"`
	WinStreak int    `json:"winStreak"`
}

type PlayerStats struct {
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`
	TotalGames int `json:"totalGames"`
	Rating     int `json:"rating"`
	WinStreak  int `json:"winStreak"`
}

// MatchListing is one entry of the server's active match list.
type MatchListing struct {
	MatchID string `json:"matchId"`
	Size    int    `json:"size"`
	Label   string `json:"label,omitempty"`
}

// NewPlayerStats - stats of a player who has not finished a match yet.
func NewPlayerStats() *PlayerStats {
	return &PlayerStats{Rating: DefaultRating}
}

type HealthStatus struct {
	Status string `json:"status"`
}
