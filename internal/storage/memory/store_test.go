package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

func report(id string) *domain.ComplianceReport {
	return &domain.ComplianceReport{
		AuditID:          id,
		Timestamp:        time.Now().UTC(),
		StandardsChecked: []string{"SOX"},
		Results:          []domain.StandardResult{{Standard: "SOX", Status: domain.StandardCompliant}},
		Status:           domain.CompliancePassed,
		Violations:       []string{},
	}
}

func TestTrail_AppendPreservesOrder(t *testing.T) {
	trail := New()
	ctx := context.Background()

	r1 := report("audit_1")
	r2 := report("audit_2")
	if err := trail.Append(ctx, r1); err != nil {
		t.Fatalf("Append(r1) error = %v", err)
	}
	if err := trail.Append(ctx, r2); err != nil {
		t.Fatalf("Append(r2) error = %v", err)
	}

	all, err := trail.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() = %d reports, want 2", len(all))
	}
	if all[0] != r1 || all[1] != r2 {
		t.Error("List() order does not match insertion order")
	}
}

func TestTrail_GetByAuditID(t *testing.T) {
	trail := New()
	ctx := context.Background()

	r := report("audit_lookup")
	if err := trail.Append(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := trail.Get(ctx, "audit_lookup")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != r {
		t.Error("Get() returned a different report")
	}

	_, err = trail.Get(ctx, "audit_unknown")
	if !errors.Is(err, domain.ErrReportNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrReportNotFound", err)
	}
}

func TestTrail_RejectsDuplicateAuditID(t *testing.T) {
	trail := New()
	ctx := context.Background()

	if err := trail.Append(ctx, report("audit_dup")); err != nil {
		t.Fatal(err)
	}
	if err := trail.Append(ctx, report("audit_dup")); err == nil {
		t.Error("Append() accepted a duplicate audit ID")
	}
}

func TestTrail_ListIsSnapshot(t *testing.T) {
	trail := New()
	ctx := context.Background()

	if err := trail.Append(ctx, report("audit_snap")); err != nil {
		t.Fatal(err)
	}

	all, _ := trail.List(ctx)
	all[0] = report("audit_overwritten")

	again, _ := trail.List(ctx)
	if again[0].AuditID != "audit_snap" {
		t.Error("mutating the List() result changed the trail")
	}
}

func TestTrail_ConcurrentAppends(t *testing.T) {
	trail := New()
	ctx := context.Background()

	const goroutines = 16
	const perGoroutine = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id := fmt.Sprintf("audit_%d_%d", g, i)
				if err := trail.Append(ctx, report(id)); err != nil {
					t.Errorf("Append(%s) error = %v", id, err)
				}
			}
		}(g)
	}
	wg.Wait()

	all, err := trail.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != goroutines*perGoroutine {
		t.Fatalf("List() = %d reports, want %d (no appends lost)", len(all), goroutines*perGoroutine)
	}

	seen := make(map[string]bool, len(all))
	for _, r := range all {
		if seen[r.AuditID] {
			t.Errorf("report %s appears twice", r.AuditID)
		}
		seen[r.AuditID] = true
	}
}
