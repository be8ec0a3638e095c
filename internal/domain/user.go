package domain

import "encoding/json"

type User struct {
	ID         int64   `json:"id"`
	FirstName  string  `json:"firstName"`
	SecondName string  `json:"secondName"`
	Age        float64 `json:"age"`
	City       string  `json:"city,omitempty"`
}

// UserInput is an undecoded create or update body. A nil field was absent;
// a JSON null stays as the literal "null" so it can be told apart.
type UserInput struct {
	FirstName  json.RawMessage
	SecondName json.RawMessage
	Age        json.RawMessage
	City       json.RawMessage

	// Unknown holds keys outside the schema, sorted.
	Unknown []string
}
