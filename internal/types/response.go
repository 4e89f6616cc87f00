package types

// Response is the envelope of every JSON body the API writes.
type Response struct {
	Error     bool   `json:"error"`
	Message   any    `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
