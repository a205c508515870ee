package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresent(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"null", false},
		{"false", false},
		{"0", false},
		{"0.0", false},
		{`""`, false},
		{"  null  ", false},
		{"true", true},
		{"1", true},
		{`"x"`, true},
		{"{}", true},
		{"[]", true},
		{`{"p":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Present(json.RawMessage(tt.raw)))
		})
	}
}

func TestIncomingDeployRequest_RequestedKinds(t *testing.T) {
	req := IncomingDeployRequest{Policies: json.RawMessage(`{"p":1}`)}
	assert.Equal(t, KindSet{PolicyKind}, req.RequestedKinds())

	req.Functions = json.RawMessage(`[{"name":"f"}]`)
	assert.Equal(t, KindSet{PolicyKind, FunctionKind}, req.RequestedKinds())

	assert.Empty(t, IncomingDeployRequest{Policies: json.RawMessage("null")}.RequestedKinds())
}

func TestIncomingDeployRequest_Payload(t *testing.T) {
	req := IncomingDeployRequest{
		Policies:  json.RawMessage(`{"p":1}`),
		Functions: json.RawMessage(`[]`),
		Triggers:  json.RawMessage(`false`),
	}

	assert.Equal(t, PolicyBatch{Data: req.Policies}, req.Payload(PolicyKind))

	fb, ok := req.Payload(FunctionKind).(FunctionBatch)
	assert.True(t, ok)
	assert.Nil(t, fb.Triggers, "falsy triggers are dropped")

	req.Triggers = json.RawMessage(`[{"event":"x"}]`)
	fb = req.Payload(FunctionKind).(FunctionBatch)
	assert.JSONEq(t, `[{"event":"x"}]`, string(fb.Triggers))

	assert.Nil(t, req.Payload("trigger"))
}

func TestKindSet(t *testing.T) {
	scopes := NewKindSet("policy", "function", "policy", "debug")
	assert.Equal(t, KindSet{PolicyKind, FunctionKind}, scopes)

	requested := KindSet{FunctionKind, PolicyKind}
	assert.Equal(t, KindSet{PolicyKind}, requested.Intersect(NewKindSet("policy")))
	assert.Empty(t, requested.Intersect(nil))
}

func TestDeployStatus_IsTerminalFor(t *testing.T) {
	assert.False(t, StatusPending.IsTerminalFor(PolicyKind))
	assert.True(t, StatusApplied.IsTerminalFor(PolicyKind))
	assert.False(t, StatusApplied.IsTerminalFor(FunctionKind))
	assert.True(t, StatusDeployed.IsTerminalFor(FunctionKind))
	assert.False(t, StatusDeployed.IsTerminalFor(PolicyKind))
	assert.True(t, StatusCanceled.IsTerminalFor(FunctionKind))
}

func TestIngestError_Is(t *testing.T) {
	wrapped := fmt.Errorf("stage: %w", ErrPermissionDenied)
	assert.ErrorIs(t, wrapped, ErrPermissionDenied)
	assert.NotErrorIs(t, wrapped, ErrTokenAppMismatch)

	v := ValidationError("invalid %s payload: %s", "policy", "bad")
	assert.ErrorIs(t, v, &IngestError{Kind: KindValidation})
	assert.NotErrorIs(t, v, ErrNameEmpty)
	assert.Equal(t, "invalid policy payload: bad", v.Error())

	cause := errors.New("connection refused")
	infra := InfrastructureError(cause)
	assert.ErrorIs(t, infra, cause)
	assert.Equal(t, KindInfrastructure, KindOf(infra))
	assert.Equal(t, KindInfrastructure, KindOf(cause))
	assert.Equal(t, KindConflict, KindOf(ErrFunctionExists))
}

func TestBuildError(t *testing.T) {
	be := &BuildError{Diagnostics: []Diagnostic{
		{File: "f1.ts", Line: 1, Column: 15, Text: "Unexpected end of file"},
		{Text: "second"},
	}}
	assert.Equal(t, "build failed: f1.ts:1:15: Unexpected end of file (and 1 more)", be.Error())

	ie := BuildFailure(be)
	assert.Equal(t, KindBuildFailure, ie.Kind)

	var target *BuildError
	assert.True(t, errors.As(ie, &target))
	assert.Len(t, target.Diagnostics, 2)
}
