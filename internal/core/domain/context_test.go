package domain

import (
	"testing"
	"time"
)

func TestExecutionContext_MergeLaterWins(t *testing.T) {
	ec := ExecutionContext{"a": "one", "b": "two"}
	ec.Merge(ExecutionContext{"b": "override", "c": "three"})

	if ec["a"] != "one" {
		t.Errorf("a = %v, want one", ec["a"])
	}
	if ec["b"] != "override" {
		t.Errorf("b = %v, want override (later entry wins)", ec["b"])
	}
	if ec["c"] != "three" {
		t.Errorf("c = %v, want three", ec["c"])
	}
}

func TestExecutionContext_Project(t *testing.T) {
	ec := ExecutionContext{"dataset_id": "d1", "analysis_type": "bi", "noise": 42}

	got := ec.Project([]string{"dataset_id", "missing"})
	if len(got) != 1 {
		t.Fatalf("Project() returned %d keys, want 1", len(got))
	}
	if got["dataset_id"] != "d1" {
		t.Errorf("dataset_id = %v, want d1", got["dataset_id"])
	}
}

func TestExecutionContext_HasValue(t *testing.T) {
	ec := ExecutionContext{
		"present": "value",
		"empty":   "",
		"nilval":  nil,
		"number":  0,
	}

	tests := []struct {
		key  string
		want bool
	}{
		{"present", true},
		{"empty", false},
		{"nilval", false},
		{"number", true},
		{"absent", false},
	}
	for _, tt := range tests {
		if got := ec.HasValue(tt.key); got != tt.want {
			t.Errorf("HasValue(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestExecutionContext_CloneIsIndependent(t *testing.T) {
	ec := ExecutionContext{"k": "v"}
	cp := ec.Clone()
	cp["k"] = "changed"
	cp["extra"] = true

	if ec["k"] != "v" {
		t.Error("mutating the clone changed the original")
	}
	if ec.Has("extra") {
		t.Error("clone key set leaked into the original")
	}
}

func TestNewAuditID_UniqueWithinSecond(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	a := NewAuditID(now)
	b := NewAuditID(now)
	if a == b {
		t.Errorf("two audit IDs from the same second collided: %q", a)
	}

	const wantPrefix = "audit_20240301_103000_"
	if len(a) != len(wantPrefix)+8 || a[:len(wantPrefix)] != wantPrefix {
		t.Errorf("audit ID %q does not match audit_YYYYMMDD_HHMMSS_<suffix>", a)
	}
}

func TestNewExecutionID_Prefix(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	id := NewExecutionID(now)

	const wantPrefix = "exec_20240301_103000_"
	if len(id) != len(wantPrefix)+8 || id[:len(wantPrefix)] != wantPrefix {
		t.Errorf("execution ID %q does not match exec_YYYYMMDD_HHMMSS_<suffix>", id)
	}
}
