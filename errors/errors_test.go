package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseSerialize,
				Kind:      KindTypeMismatch,
				Component: "alice/Hello",
				Path:      []string{"props", "onClick"},
				Detail:    "cannot serialize channel",
			},
			contains: []string{"[serialize]", "type_mismatch", "alice/Hello", "props.onClick", "cannot serialize channel"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseFetch,
				Kind:  KindNotFound,
			},
			contains: []string{"[fetch]", "not_found"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindInstantiation,
				Detail: "engine load",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[runtime]", "instantiation", "engine load", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseInvoke,
		Kind:  KindRemote,
		Cause: cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := ComponentNotFound("bob/World", nil)

	if !errors.Is(err, ErrComponentNotFound) {
		t.Error("ComponentNotFound should match ErrComponentNotFound")
	}
	if errors.Is(err, ErrDuplicateName) {
		t.Error("ComponentNotFound should not match ErrDuplicateName")
	}

	wrapped := Wrap(PhaseCompile, KindInvalidData, err, "compile root")
	if !errors.Is(wrapped, ErrComponentNotFound) {
		t.Error("wrapped error should still match through the cause chain")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseHost, KindRegistration).
		Component("alice/Hello").
		Path("storage", "get").
		Value(42).
		Detail("register %s", "storage.get").
		Cause(cause).
		Build()

	if err.Phase != PhaseHost || err.Kind != KindRegistration {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Component != "alice/Hello" {
		t.Errorf("Component = %q", err.Component)
	}
	if strings.Join(err.Path, ".") != "storage.get" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v", err.Value)
	}
	if err.Detail != "register storage.get" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Cause != cause {
		t.Error("Cause not set")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err   *Error
		phase Phase
		kind  Kind
	}{
		{ParseFailed("alice/A", "bad import"), PhaseParse, KindInvalidData},
		{ComponentNotFound("alice/A", nil), PhaseFetch, KindNotFound},
		{TranspileFailed("alice/A", "unexpected token", nil), PhaseTranspile, KindInvalidData},
		{DuplicateName("C_alice__A", "alice/A", "alice_/A"), PhaseCompile, KindDuplicateName},
		{Invocation("b::h::onClick", errors.New("x")), PhaseInvoke, KindRemote},
		{Remote("x"), PhaseInvoke, KindRemote},
		{UnknownRequest("r1"), PhaseCorrelate, KindUnknownRequest},
		{UnknownCallback("b::h::onClick"), PhaseInvoke, KindUnknownCallback},
		{UnknownMessage("component.bogus"), PhaseProtocol, KindUnknownMessage},
		{Closed("boundary"), PhaseRuntime, KindClosed},
		{NotInitialized(PhaseRuntime, "engine"), PhaseRuntime, KindNotInitialized},
		{NotFound(PhaseHost, "method", "x"), PhaseHost, KindNotFound},
		{InvalidInput(PhaseHost, "x"), PhaseHost, KindInvalidInput},
		{InvalidData(PhaseSerialize, nil, "x"), PhaseSerialize, KindInvalidData},
		{Unsupported(PhaseSerialize, "chan"), PhaseSerialize, KindUnsupported},
		{Instantiation("alice/A", nil), PhaseRuntime, KindInstantiation},
	}

	for _, tt := range tests {
		if tt.err.Phase != tt.phase || tt.err.Kind != tt.kind {
			t.Errorf("%s: got %s/%s, want %s/%s", tt.err.Error(), tt.err.Phase, tt.err.Kind, tt.phase, tt.kind)
		}
		if tt.err.Error() == "" {
			t.Error("empty message")
		}
	}
}

func TestDuplicateName_Message(t *testing.T) {
	err := DuplicateName("C_alice__A", "alice/A", "alice/A_")
	msg := err.Error()
	for _, s := range []string{"C_alice__A", "alice/A", "alice/A_"} {
		if !strings.Contains(msg, s) {
			t.Errorf("message %q missing %q", msg, s)
		}
	}
	if !errors.Is(err, ErrDuplicateName) {
		t.Error("should match ErrDuplicateName")
	}
}

func TestBranchErrors(t *testing.T) {
	notFound := ComponentNotFound("bob/Missing", nil)
	err := &BranchErrors{Failures: []FailedComponent{
		{Path: "bob/Missing", Cause: notFound},
	}}

	if !strings.Contains(err.Error(), "bob/Missing") {
		t.Errorf("message %q should name the failed path", err.Error())
	}
	if !errors.Is(err, ErrComponentNotFound) {
		t.Error("BranchErrors should unwrap to its causes")
	}

	empty := &BranchErrors{}
	if !strings.Contains(empty.Error(), "no failed branches") {
		t.Errorf("unexpected empty message %q", empty.Error())
	}

	var none *BranchErrors
	if none.Len() != 0 {
		t.Errorf("nil Len() = %d", none.Len())
	}
	empty.Add("bob/Other", ComponentNotFound("bob/Other", nil))
	empty.Add("bob/Missing", notFound)
	if empty.Len() != 2 || empty.Failures[1].Path != "bob/Missing" {
		t.Errorf("Failures = %+v", empty.Failures)
	}
}
