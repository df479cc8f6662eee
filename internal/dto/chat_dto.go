package dto

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
}

type AskRequest struct {
	SessionId string `json:"session_id" validate:"omitempty,max=128"`
	Query     string `json:"query" validate:"required,max=4000"`
}

type PassageDTO struct {
	Id    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type AskResponse struct {
	SessionId string       `json:"session_id"`
	Answer    string       `json:"answer"`
	Category  string       `json:"category,omitempty"`
	Path      string       `json:"path"`
	Mode      string       `json:"mode"`
	Grounded  bool         `json:"grounded"`
	Passages  []PassageDTO `json:"passages"`
	LatencyMs int64        `json:"latency_ms"`
}

type TurnDTO struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type SummaryResponse struct {
	SessionId string `json:"session_id"`
	Summary   string `json:"summary"`
}

// SocketRequest is one inbound websocket frame.
type SocketRequest struct {
	SessionId string `json:"session_id"`
	Query     string `json:"query"`
}

// SocketError is sent instead of an answer when a query fails.
type SocketError struct {
	SessionId string `json:"session_id"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}
