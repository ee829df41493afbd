package game

// PlayerState is one side of a live match.
type PlayerState struct {
	UserID string  `json:"userId"`
	Y      float64 `json:"y"`
	Score  int     `json:"score"`
}
