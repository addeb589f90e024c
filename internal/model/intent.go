package model

// IntentType discriminates the structured intents the chat model can emit
type IntentType string

const (
	IntentPropertyQuery      IntentType = "property_query"
	IntentPropertyImageQuery IntentType = "property_image_query"
)

// IntentTypes lists the accepted intent discriminator values
var IntentTypes = []string{
	string(IntentPropertyQuery),
	string(IntentPropertyImageQuery),
}

// Range is a numeric interval with optional bounds
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// QueryParams holds the search conditions the user explicitly supplied.
// Conditions the user did not mention stay nil.
type QueryParams struct {
	PropertyType      *string `json:"property_type,omitempty"` // sale, rent or both
	Community         *string `json:"community,omitempty"`
	Location          *string `json:"location,omitempty"`
	PriceRange        *Range  `json:"price_range,omitempty"`
	AreaRange         *Range  `json:"area_range,omitempty"`
	RoomCount         *string `json:"room_count,omitempty"`
	OtherRequirements *string `json:"other_requirements,omitempty"`
}

// QueryIntent is a structured property query detected in a chat turn
type QueryIntent struct {
	IntentType          IntentType  `json:"intent_type"`
	QueryParams         QueryParams `json:"query_params"`
	ConfirmationMessage string      `json:"confirmation_message"`
}

// GeneratedQuery is a model-produced read-only SQL statement with its
// named bind parameters. It is only constructed after the SELECT-only
// safety check has passed.
type GeneratedQuery struct {
	SQL         string         `json:"sql"`
	Params      map[string]any `json:"params"`
	Description string         `json:"description"`
}

// QueryResultRow maps column names to JSON-safe scalars. Temporal values
// are ISO-8601 strings and numerics are float64.
type QueryResultRow map[string]any

// QueryExecution is the caller-visible outcome of a confirmed query:
// generate, execute and summarize as one unit of work.
type QueryExecution struct {
	Success    bool             `json:"success"`
	FoundCount int              `json:"found_count"`
	Results    []QueryResultRow `json:"results"`
	Answer     string           `json:"answer"`
}
