package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultFunctionLabel is used when the author omits the label or sends null
const DefaultFunctionLabel = "New Function"

// FunctionRecord is one named cloud function within an application.
// Maps to: functions table
type FunctionRecord struct {
	ID           uuid.UUID         `json:"_id"`
	AppID        string            `json:"appid"`
	Name         string            `json:"name"`
	Code         string            `json:"code"`
	CompiledCode string            `json:"compiledCode"`
	Description  *string           `json:"description,omitempty"`
	EnableHTTP   bool              `json:"enableHTTP"`
	Status       int               `json:"status"`
	Tags         []string          `json:"tags"`
	Triggers     []json.RawMessage `json:"triggers"`
	Label        string            `json:"label"`
	Version      int               `json:"version"`

	// Hex digest of Code
	Hash string `json:"hash"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateFunctionRequest is the body of the create-function call.
// Pointer fields distinguish "absent" from zero values.
type CreateFunctionRequest struct {
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Description *string  `json:"description,omitempty"`
	EnableHTTP  *bool    `json:"enableHTTP,omitempty"`
	Status      *int     `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Label       *string  `json:"label,omitempty"`
}

// InsertResult is returned to the author after a function is stored
type InsertResult struct {
	Acknowledged bool      `json:"acknowledged"`
	InsertedID   uuid.UUID `json:"insertedId"`
}
