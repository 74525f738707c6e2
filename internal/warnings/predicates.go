// Package warnings flags agreements that need attention: rejected biddings,
// missing counterpart funding and overdue accountability.
package warnings

import (
	"strings"
	"time"

	"github.com/GlarosConsulting/atena-client/models"
)

const (
	biddingMarker  = "licitação"
	rejectedMarker = "rejeitad"
)

// accountability statuses that mean the report is done.
var finishedMarkers = []string{"aprovad", "conclu"}

func containsFold(s, substr string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), substr)
}

// HasRejectedBidding reports whether a has a bidding execution process and a
// rejected execution process. Both may be the same process.
func HasRejectedBidding(a models.Agreement) bool {
	var bidding, rejected bool
	for _, p := range a.ExecutionProcesses() {
		if containsFold(p.Details.ExecutionProcess, biddingMarker) {
			bidding = true
		}
		if containsFold(p.Acceptance(), rejectedMarker) {
			rejected = true
		}
		if bidding && rejected {
			return true
		}
	}
	return false
}

// BiddingRejected returns the ids of the agreements with a rejected bidding.
func BiddingRejected(agreements []models.Agreement) []string {
	ids := make([]string, 0)
	for _, a := range agreements {
		if HasRejectedBidding(a) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// CounterpartMissing reports whether the scope has agreements but none of them
// declared a financial or in-kind counterpart.
func CounterpartMissing(stats models.Statistics, agreements []models.Agreement) bool {
	if len(agreements) == 0 {
		return false
	}
	return stats.Counterpart.Financial == 0 && stats.Counterpart.AssetsAndServices == 0
}

// IsAccountabilityOverdue reports whether the accountability limit date of a
// has passed at now without the report being approved or concluded.
func IsAccountabilityOverdue(a models.Agreement, now time.Time) bool {
	if a.Accountability == nil {
		return false
	}
	data := a.Accountability.Data
	if data.LimitDate.IsZero() || !data.LimitDate.Before(now) {
		return false
	}
	for _, m := range finishedMarkers {
		if containsFold(data.Status, m) {
			return false
		}
	}
	return true
}

// AccountabilityOverdue returns the ids of the agreements whose accountability
// is overdue at now.
func AccountabilityOverdue(agreements []models.Agreement, now time.Time) []string {
	ids := make([]string, 0)
	for _, a := range agreements {
		if IsAccountabilityOverdue(a, now) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
