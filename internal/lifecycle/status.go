// Package lifecycle derives a delivery's effective status and progress from its stored
// state and the evaluation instant. Nothing here writes; callers decide whether to
// persist a derived value.
package lifecycle

import (
	"math"
	"time"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/model"
)

const DefaultNearExpiryDays = 3

// Policy is the per content kind variation of the delivery state machine.
type Policy struct {
	// ExpiredState enables the expired terminal state for overdue, incomplete deliveries.
	// Without it an overdue delivery stays in-progress.
	ExpiredState   bool
	NearExpiryDays int
}

func DefaultPolicy() Policy {
	return Policy{ExpiredState: true, NearExpiryDays: DefaultNearExpiryDays}
}

// PolicyFor builds the policy of one content kind from configuration.
func PolicyFor(kind model.ContentKind, content config.ContentConfig, delivery config.DeliveryConfig) Policy {
	return Policy{
		ExpiredState:   content.Policy(string(kind)).ExpiredState,
		NearExpiryDays: delivery.NearExpiryDays,
	}
}

type Progress struct {
	Percent      float64 `json:"percent"`
	IsNearExpiry bool    `json:"isNearExpiry"`
}

// DeriveStatus returns the status of d as of now.
func DeriveStatus(d *model.Delivery, p Policy, now time.Time) model.DeliveryStatus {
	stored := d.Status
	if stored == model.DeliveryCancelled || stored == model.DeliveryCompleted {
		return stored
	}

	status := stored
	if stored == model.DeliveryScheduled && !now.Before(d.StartDate) {
		status = model.DeliveryInProgress
	}

	if !now.Before(d.EndDate) {
		switch {
		case d.CompletedParticipants >= d.TotalParticipants:
			status = model.DeliveryCompleted
		case p.ExpiredState:
			status = model.DeliveryExpired
		}
	}

	return status
}

// CompletionRate is completed/total as a percentage in [0,100]; 0 when nobody is targeted.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Max(0, math.Min(100, rate))
}

// DaysUntil counts whole days from now to end, rounding partial days up.
// Negative once end has passed.
func DaysUntil(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// IsNearExpiry flags running deliveries ending within the policy's threshold.
func IsNearExpiry(d *model.Delivery, p Policy, now time.Time) bool {
	if DeriveStatus(d, p, now) != model.DeliveryInProgress {
		return false
	}
	days := DaysUntil(d.EndDate, now)
	return days >= 0 && days <= p.NearExpiryDays
}

func DeriveProgress(d *model.Delivery, p Policy, now time.Time) Progress {
	return Progress{
		Percent:      CompletionRate(d.CompletedParticipants, d.TotalParticipants),
		IsNearExpiry: IsNearExpiry(d, p, now),
	}
}
