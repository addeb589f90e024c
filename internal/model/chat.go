package model

// ChatMessage is a single message in a conversation history
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatTurn is one inbound chat request. Conversation state, including a
// pending query intent awaiting confirmation, is carried by the caller.
type ChatTurn struct {
	Message             string        `json:"message" binding:"required"`
	ConversationHistory []ChatMessage `json:"conversation_history,omitempty"`
	PendingIntent       *QueryIntent  `json:"pending_intent,omitempty"`
	OriginalQuery       string        `json:"original_query,omitempty"`
}

// ChatReply is the outcome of one chat turn. PendingIntent is set when the
// reply asks the user to confirm a detected property query; QueryExecution
// is set when this turn ran a confirmed query.
type ChatReply struct {
	Reply          string          `json:"reply"`
	PendingIntent  *QueryIntent    `json:"pending_intent,omitempty"`
	QueryExecution *QueryExecution `json:"query_execution,omitempty"`
}

// QueryExecuteRequest asks the server to run a previously confirmed intent
type QueryExecuteRequest struct {
	Intent        QueryIntent `json:"intent" binding:"required"`
	OriginalQuery string      `json:"original_query,omitempty"`
}
