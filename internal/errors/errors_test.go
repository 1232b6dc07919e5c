package errors

import (
	"fmt"
	"testing"
)

func TestTypeOf(t *testing.T) {
	base := New(TypeQuotaExhausted, "quota used up")
	wrapped := fmt.Errorf("lookup failed: %w", base)

	tests := []struct {
		name string
		err  error
		want Type
	}{
		{"direct", base, TypeQuotaExhausted},
		{"wrapped by fmt", wrapped, TypeQuotaExhausted},
		{"outer domain error wins", Wrap(TypeNetwork, "transport", base), TypeNetwork},
		{"plain error", fmt.Errorf("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.err); got != tt.want {
				t.Errorf("TypeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsType_WalksChain(t *testing.T) {
	inner := New(TypeInvalidKey, "bad key")
	outer := Wrap(TypeInternal, "quote failed", fmt.Errorf("provider: %w", inner))

	if !IsType(outer, TypeInvalidKey) {
		t.Error("expected the inner invalid-key error to be found")
	}
	if !IsType(outer, TypeInternal) {
		t.Error("expected the outer type to match")
	}
	if IsType(outer, TypeOverloaded) {
		t.Error("unexpected match")
	}
}

func TestIsLogistics(t *testing.T) {
	for _, typ := range []Type{TypeInvalidKey, TypeQuotaExhausted, TypeOverloaded, TypeNetwork} {
		if !IsLogistics(New(typ, "x")) {
			t.Errorf("%s should be a logistics failure", typ)
		}
	}
	if IsLogistics(Input("bad")) {
		t.Error("input errors are not logistics failures")
	}
}

func TestError_Message(t *testing.T) {
	err := Wrap(TypeParsing, "variables sheet", fmt.Errorf("line 3"))
	if got, want := err.Error(), "[PARSING_ERROR] variables sheet: line 3"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := err.WithContext("source", "vars.csv").Context["source"]; got != "vars.csv" {
		t.Errorf("context = %v", got)
	}
}
