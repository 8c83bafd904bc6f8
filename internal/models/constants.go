// Package models contains the transcript data types and the fixed texts of the weather chat.
package models

// Greeting seeds every new transcript
const Greeting = "Hello! I can tell you real-time weather for any city worldwide 🌍"

// BackendUnreachable is the bot reply used for every gateway failure
const BackendUnreachable = "Error connecting to backend. Make sure it's running on port 8001."

// BusyIndicator is shown while a query is outstanding
const BusyIndicator = "Getting weather data..."

// InputPlaceholder is shown in the empty composition box
const InputPlaceholder = "Ask about weather in any city..."

// Backend routes
const (
	DefaultEndpoint = "http://localhost:8001"
	RouteChat       = "/chat"
	RouteRoot       = "/"
	RouteWebSocket  = "/ws"
)

// Wire field names of the backend contract
const (
	FieldQuery   = "text"
	FieldAnswer  = "response"
	FieldMessage = "message"
)

// SuggestedQueries are the one-keystroke shortcuts offered below the input
var SuggestedQueries = []string{
	"What's the weather in Tokyo?",
	"Temperature in New York",
	"How is weather in Paris, France?",
	"Weather in Dubai today",
	"Is it raining in London?",
}
