package lifecycle

import (
	"testing"
	"time"

	"edu_admin_backend/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func delivery(status model.DeliveryStatus, start, end string, completed, total int) *model.Delivery {
	return &model.Delivery{
		Status:                status,
		StartDate:             day(start),
		EndDate:               day(end),
		CompletedParticipants: completed,
		TotalParticipants:     total,
	}
}

func TestDeriveStatus(t *testing.T) {
	survey := Policy{ExpiredState: false, NearExpiryDays: 3}

	cases := []struct {
		name   string
		d      *model.Delivery
		policy Policy
		now    string
		want   model.DeliveryStatus
	}{
		{"before start stays scheduled", delivery(model.DeliveryScheduled, "2024-01-01", "2024-01-10", 0, 10), DefaultPolicy(), "2023-12-31", model.DeliveryScheduled},
		{"start instant begins", delivery(model.DeliveryScheduled, "2024-01-01", "2024-01-10", 0, 10), DefaultPolicy(), "2024-01-01", model.DeliveryInProgress},
		{"overdue incomplete expires", delivery(model.DeliveryScheduled, "2024-01-01", "2024-01-10", 5, 10), DefaultPolicy(), "2024-01-15", model.DeliveryExpired},
		{"overdue complete completes", delivery(model.DeliveryInProgress, "2024-01-01", "2024-01-10", 10, 10), DefaultPolicy(), "2024-01-10", model.DeliveryCompleted},
		{"survey overdue stays running", delivery(model.DeliveryScheduled, "2024-01-01", "2024-01-10", 5, 10), survey, "2024-01-15", model.DeliveryInProgress},
		{"cancelled is sticky", delivery(model.DeliveryCancelled, "2024-01-01", "2024-01-10", 0, 10), DefaultPolicy(), "2024-01-15", model.DeliveryCancelled},
		{"completed is sticky", delivery(model.DeliveryCompleted, "2024-01-01", "2024-01-10", 1, 10), DefaultPolicy(), "2024-01-05", model.DeliveryCompleted},
		{"nobody targeted completes at end", delivery(model.DeliveryScheduled, "2024-01-01", "2024-01-10", 0, 0), DefaultPolicy(), "2024-01-11", model.DeliveryCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.d, tc.policy, day(tc.now)); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDeriveStatusIsPure(t *testing.T) {
	d := delivery(model.DeliveryScheduled, "2024-01-01", "2024-01-10", 5, 10)
	now := day("2024-01-15")
	first := DeriveStatus(d, DefaultPolicy(), now)
	second := DeriveStatus(d, DefaultPolicy(), now)
	if first != second {
		t.Fatalf("expected identical results, got %s and %s", first, second)
	}
	if d.Status != model.DeliveryScheduled {
		t.Fatalf("derivation must not write the stored status, got %s", d.Status)
	}
}

func TestCompletionRate(t *testing.T) {
	if got := CompletionRate(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty delivery, got %v", got)
	}
	if got := CompletionRate(3, 4); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
	if got := CompletionRate(12, 10); got != 100 {
		t.Fatalf("expected clamp to 100, got %v", got)
	}
}

func TestIsNearExpiry(t *testing.T) {
	d := delivery(model.DeliveryScheduled, "2024-01-01", "2024-01-10", 1, 10)
	p := DefaultPolicy()

	if !IsNearExpiry(d, p, day("2024-01-07")) {
		t.Fatalf("3 days before end should be near expiry")
	}
	if IsNearExpiry(d, p, day("2024-01-05")) {
		t.Fatalf("5 days before end should not be near expiry")
	}
	if IsNearExpiry(d, p, day("2024-01-12")) {
		t.Fatalf("expired delivery should not be flagged")
	}

	scheduled := delivery(model.DeliveryScheduled, "2024-01-09", "2024-01-10", 0, 10)
	if IsNearExpiry(scheduled, p, day("2024-01-08")) {
		t.Fatalf("not-yet-started delivery should not be flagged")
	}
}

func TestDeriveProgress(t *testing.T) {
	d := delivery(model.DeliveryInProgress, "2024-01-01", "2024-01-10", 3, 4)
	got := DeriveProgress(d, DefaultPolicy(), day("2024-01-09"))
	if got.Percent != 75 || !got.IsNearExpiry {
		t.Fatalf("unexpected progress %+v", got)
	}
}
