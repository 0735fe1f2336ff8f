package events

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/marcelsud/books-api/book"
)

// typePattern: hierarchical, full-stop delimited, [a-zA-Z0-9_.]
var typePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// Payload is a Standard Webhooks envelope carrying a book change.
type Payload struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// bookData is the wire shape of a book inside an event.
type bookData struct {
	ID            int64   `json:"id"`
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	PublishedYear *int    `json:"published_year,omitempty"`
	ISBN          *string `json:"isbn,omitempty"`
}

// Data maps a book event to what subscribers receive: the full book on
// creation, the supplied fields on update and only the id on deletion.
func Data(e book.Event) any {
	d := bookData{ID: e.BookID}
	switch v := e.Data.(type) {
	case book.Book:
		d.Title, d.Author = &v.Title, &v.Author
		d.PublishedYear, d.ISBN = v.PublishedYear, v.ISBN
	case book.Patch:
		d.Title, d.Author = v.Title, v.Author
		d.PublishedYear, d.ISBN = v.PublishedYear, v.ISBN
	}
	return d
}

// Validate checks the envelope against the Standard Webhooks rules.
func (p Payload) Validate() error {
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !typePattern.MatchString(p.Type) {
		return fmt.Errorf("type must be hierarchical and contain only [a-zA-Z0-9_.]: %s", p.Type)
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if len(p.Data) == 0 || !json.Valid(p.Data) {
		return fmt.Errorf("data must be valid JSON")
	}
	return nil
}

// New builds a payload stamped with the current UTC time.
func New(eventType string, data any) (Payload, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Payload{}, fmt.Errorf("marshaling data: %w", err)
	}
	p := Payload{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}
	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}
	return p, nil
}

// Parse decodes and validates a payload read back from the stream.
func Parse(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("unmarshaling payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}
	return p, nil
}

// Bytes returns the minified JSON encoding.
func (p Payload) Bytes() ([]byte, error) {
	return json.Marshal(p)
}
