package models

import (
	"bytes"
	"encoding/json"
)

// DeploymentPayload is a batch of one payload kind: PolicyBatch or FunctionBatch
type DeploymentPayload interface {
	Kind() DeployKind
	isDeploymentPayload()
}

// PolicyBatch carries raw policy documents
type PolicyBatch struct {
	Data json.RawMessage
}

func (PolicyBatch) Kind() DeployKind     { return PolicyKind }
func (PolicyBatch) isDeploymentPayload() {}

// FunctionBatch carries raw function documents and, optionally, their triggers
type FunctionBatch struct {
	Data     json.RawMessage
	Triggers json.RawMessage
}

func (FunctionBatch) Kind() DeployKind     { return FunctionKind }
func (FunctionBatch) isDeploymentPayload() {}

// IncomingDeployRequest is the body pushed by a remote environment
type IncomingDeployRequest struct {
	DeployToken string          `json:"deploy_token"`
	Policies    json.RawMessage `json:"policies,omitempty"`
	Functions   json.RawMessage `json:"functions,omitempty"`
	Triggers    json.RawMessage `json:"triggers,omitempty"`
	Comment     string          `json:"comment,omitempty"`
}

// RequestedKinds returns the kinds whose payload field is present
func (r IncomingDeployRequest) RequestedKinds() KindSet {
	var set KindSet
	if Present(r.Policies) {
		set = append(set, PolicyKind)
	}
	if Present(r.Functions) {
		set = append(set, FunctionKind)
	}
	return set
}

// Payload builds the variant for kind k from the request fields
func (r IncomingDeployRequest) Payload(k DeployKind) DeploymentPayload {
	switch k {
	case PolicyKind:
		return PolicyBatch{Data: r.Policies}
	case FunctionKind:
		fb := FunctionBatch{Data: r.Functions}
		if Present(r.Triggers) {
			fb.Triggers = r.Triggers
		}
		return fb
	default:
		return nil
	}
}

// Present reports whether a raw JSON field carries a value. Missing, null,
// false, 0 and "" count as absent, matching what remote clients send for
// "nothing to deploy".
func Present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// not valid JSON on its own, let shape validation reject it
		return true
	}

	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
