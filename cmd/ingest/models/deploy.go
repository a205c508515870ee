package models

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DeployKind is the payload kind of a deployment request
type DeployKind string

const (
	PolicyKind   DeployKind = "policy"
	FunctionKind DeployKind = "function"
)

// DeployStatus is the lifecycle state of a deployment request.
// Ingestion only ever writes StatusPending; the applier owns the rest.
type DeployStatus string

const (
	StatusPending  DeployStatus = "pending"
	StatusApplied  DeployStatus = "applied"  // policy terminal
	StatusDeployed DeployStatus = "deployed" // function terminal
	StatusCanceled DeployStatus = "canceled"
)

// IsTerminalFor reports whether s ends the lifecycle of a request of kind k
func (s DeployStatus) IsTerminalFor(k DeployKind) bool {
	switch s {
	case StatusCanceled:
		return true
	case StatusApplied:
		return k == PolicyKind
	case StatusDeployed:
		return k == FunctionKind
	default:
		return false
	}
}

// DeployRequest is one queued unit of deployment work.
// Maps to: deploy_requests table
type DeployRequest struct {
	ID        uuid.UUID       `json:"_id"`
	AppID     string          `json:"appid"`
	Source    string          `json:"source"`
	Status    DeployStatus    `json:"status"`
	Type      DeployKind      `json:"type"`
	Data      json.RawMessage `json:"data"`
	Triggers  json.RawMessage `json:"triggers,omitempty"`
	Comment   string          `json:"comment"`
	CreatedAt time.Time       `json:"created_at"`
}

// DeployRequestCreated is published after a request row is stored
type DeployRequestCreated struct {
	Event     string     `json:"event"`
	ID        uuid.UUID  `json:"id"`
	AppID     string     `json:"appid"`
	Type      DeployKind `json:"type"`
	Source    string     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
}

// EventDeployRequestCreated names DeployRequestCreated notifications
const EventDeployRequestCreated = "deploy_request.created"

// KindSet is a small set of payload kinds
type KindSet []DeployKind

// NewKindSet builds a set from scope names, ignoring unknown ones
func NewKindSet(names ...string) KindSet {
	var set KindSet
	for _, n := range names {
		k := DeployKind(n)
		if (k == PolicyKind || k == FunctionKind) && !set.Has(k) {
			set = append(set, k)
		}
	}
	return set
}

func (s KindSet) Has(k DeployKind) bool {
	return slices.Contains(s, k)
}

// Intersect keeps the kinds of s that are also in other, in s order
func (s KindSet) Intersect(other KindSet) KindSet {
	var out KindSet
	for _, k := range s {
		if other.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
