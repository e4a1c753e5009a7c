package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest is sent by the client to save a single answer.
type AutosaveRequest struct {
	Action     Action `json:"action"`
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// SubmitRequest is sent by the client to finish the attempt.
type SubmitRequest struct {
	Action      Action `json:"action"`
	BrowserInfo string `json:"browser_info,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSuccess   Event = "success"
	EventTimerSync Event = "timer_sync"
	EventExpired   Event = "expired"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// TimerSyncResponse re-anchors the client countdown to the server clock.
type TimerSyncResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// ExpiredResponse tells the client the countdown hit zero and the attempt
// was submitted on its behalf.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

type SubmittedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
	Method string `json:"method"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
