package cli

import (
	"testing"
)

func TestParseOutputs(t *testing.T) {
	outputs, err := parseOutputs(`{"38fb65b08416b9870067b6cba63fa50a81bc78c8":100,"0000000000000000000000000000000000000000":5}`)
	if err != nil {
		t.Fatalf("parseOutputs: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(outputs))
	}
	// Document order is preserved, it is part of the canonical encoding.
	if outputs[0].Address != "38fb65b08416b9870067b6cba63fa50a81bc78c8" || outputs[0].Amount != 100 {
		t.Errorf("first output = %+v", outputs[0])
	}
	if outputs[1].Address != "0000000000000000000000000000000000000000" || outputs[1].Amount != 5 {
		t.Errorf("second output = %+v", outputs[1])
	}
}

func TestParseOutputsRejectsNonObject(t *testing.T) {
	tests := []string{"[]", `"x"`, "", "{", `{"a":}`}
	for _, input := range tests {
		if _, err := parseOutputs(input); err == nil {
			t.Errorf("parseOutputs(%q) accepted bad input", input)
		}
	}
}
