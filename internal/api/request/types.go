package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetParamsRequest is the request body for changing game parameters.
// Durations use Go duration syntax, e.g. "30m".
type SetParamsRequest struct {
	JoinWindow   string `json:"join_window"`
	TurnDuration string `json:"turn_duration"`
	EntryFee     uint64 `json:"entry_fee"`
}

// MintRequest is the request body for crediting a player's wallet
type MintRequest struct {
	PlayerID string `json:"player_id"`
	Amount   uint64 `json:"amount"`
}
