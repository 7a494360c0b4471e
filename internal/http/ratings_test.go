package httpserver

import (
	"testing"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

func TestParseBoolParam(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", " yes ", "Yes"}
	for _, raw := range truthy {
		if !parseBoolParam(raw) {
			t.Errorf("parseBoolParam(%q) = false, want true", raw)
		}
	}
	falsy := []string{"", "0", "false", "no", "on", "2"}
	for _, raw := range falsy {
		if parseBoolParam(raw) {
			t.Errorf("parseBoolParam(%q) = true, want false", raw)
		}
	}
}

func TestToAggregateResponse(t *testing.T) {
	empty := toAggregateResponse(domain.Aggregate{Subject: "alice"})
	if empty.Subject != "alice" || empty.TotalHandle != nil || empty.CountHandle != nil || empty.VisibleCount != 0 {
		t.Fatalf("unexpected empty response: %+v", empty)
	}

	total := domain.Handle("h-total")
	count := domain.Handle("h-count")
	seeded := toAggregateResponse(domain.Aggregate{
		Subject:      "alice",
		TotalHandle:  &total,
		CountHandle:  &count,
		VisibleCount: 3,
	})
	if seeded.TotalHandle == nil || *seeded.TotalHandle != "h-total" {
		t.Fatalf("total handle = %v", seeded.TotalHandle)
	}
	if seeded.CountHandle == nil || *seeded.CountHandle != "h-count" {
		t.Fatalf("count handle = %v", seeded.CountHandle)
	}
	if seeded.VisibleCount != 3 {
		t.Fatalf("visible count = %d", seeded.VisibleCount)
	}
}
