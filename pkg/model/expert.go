package model

import "github.com/google/uuid"

// ExpertRequest is a single question for the cinema expert. RequestID and
// ConversationID are generated when the caller does not provide them; there
// is no session state, the conversation ID is only echoed back.
type ExpertRequest struct {
	UserInput      string    `json:"user_input"`
	RequestID      uuid.UUID `json:"request_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// NewExpertRequest creates a request with fresh identifiers.
func NewExpertRequest(userInput string) ExpertRequest {
	return ExpertRequest{
		UserInput:      userInput,
		RequestID:      uuid.New(),
		ConversationID: uuid.New(),
	}
}

// ExpertResponse is the final generated answer for one request.
type ExpertResponse struct {
	GeneratedResponse string    `json:"generated_response"`
	UserInput         string    `json:"user_input"`
	ResponseID        uuid.UUID `json:"response_id"`
	ConversationID    uuid.UUID `json:"conversation_id"`
}
