package server

import "github.com/m-mizutani/goerr/v2"

var (
	errMissingInput      = goerr.New("user_input is required")
	errBadRequestID      = goerr.New("request_id must be a UUID")
	errBadConversationID = goerr.New("conversation_id must be a UUID")
)
