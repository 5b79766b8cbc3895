package entity

// Participant is the display metadata the server sends for each player.
type Participant struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Symbol   Symbol `json:"symbol,omitempty"`
}

// Presence identifies a user connected to a match.
type Presence struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
}
