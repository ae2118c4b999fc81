package chat

// ChatRequest is the browser-facing body of POST /api/chat.
type ChatRequest struct {
	Message   *string `json:"message"`
	SessionID *string `json:"sessionId"`
}

// QueryRequest is forwarded to the backend's /api/query. SessionID is
// always serialized, as null when the caller held no session.
type QueryRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

// QueryResponse is the backend's answer, relayed unchanged to the browser.
type QueryResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// ResetRequest is the browser-facing body of POST /api/reset.
type ResetRequest struct {
	SessionID *string `json:"sessionId"`
}

// BackendResetRequest is forwarded to the backend's /api/reset. An absent
// session id omits the key entirely.
type BackendResetRequest struct {
	SessionID *string `json:"session_id,omitempty"`
}

// ErrorResponse is the body of every failed proxy call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse acknowledges a successful reset.
type StatusResponse struct {
	Status string `json:"status"`
}

// OptionalSessionID maps an empty or missing identifier to nil.
func OptionalSessionID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}
