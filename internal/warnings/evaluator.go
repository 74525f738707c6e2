package warnings

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/Knetic/govaluate"

	"github.com/GlarosConsulting/atena-client/models"
)

// Rule is a named boolean expression over an agreement. Expressions see the
// parameters built by Parameters.
type Rule struct {
	Name       string
	Expression string
}

type compiledRule struct {
	name string
	expr *govaluate.EvaluableExpression
}

// Evaluator computes a Report for a search result.
type Evaluator struct {
	rules []compiledRule
	now   func() time.Time
}

// NewEvaluator compiles rules. An invalid expression or a repeated name fails.
func NewEvaluator(rules []Rule) (*Evaluator, error) {
	e := &Evaluator{now: time.Now}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate warning rule %q", r.Name)
		}
		seen[r.Name] = true

		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("warning rule %q: %w", r.Name, err)
		}
		e.rules = append(e.rules, compiledRule{name: r.Name, expr: expr})
	}
	return e, nil
}

// WithClock replaces the clock used for date comparisons.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Report lists what was flagged in one search result.
type Report struct {
	BiddingRejected       []string            `json:"biddingRejected"`
	CounterpartMissing    bool                `json:"counterpartMissing"`
	AccountabilityOverdue []string            `json:"accountabilityOverdue"`
	Custom                map[string][]string `json:"custom,omitempty"`
}

// Flagged returns every flagged agreement id once, in first-seen order.
func (r Report) Flagged() []string {
	var out []string
	seen := map[string]bool{}
	add := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	add(r.BiddingRejected)
	add(r.AccountabilityOverdue)

	names := make([]string, 0, len(r.Custom))
	for name := range r.Custom {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		add(r.Custom[name])
	}
	return out
}

// Any reports whether anything was flagged.
func (r Report) Any() bool {
	return r.CounterpartMissing || len(r.Flagged()) > 0
}

// Evaluate runs the built-in predicates and the custom rules.
func (e *Evaluator) Evaluate(stats models.Statistics, agreements []models.Agreement) Report {
	now := e.now()
	report := Report{
		BiddingRejected:       BiddingRejected(agreements),
		CounterpartMissing:    CounterpartMissing(stats, agreements),
		AccountabilityOverdue: AccountabilityOverdue(agreements, now),
	}
	if len(e.rules) == 0 {
		return report
	}

	report.Custom = make(map[string][]string, len(e.rules))
	for _, r := range e.rules {
		report.Custom[r.name] = make([]string, 0)
	}
	for _, a := range agreements {
		params := Parameters(a, now)
		for _, r := range e.rules {
			result, err := r.expr.Evaluate(params)
			if err != nil {
				slog.Warn("Warning rule failed", "rule", r.name, "agreement", a.ID, "error", err)
				continue
			}
			if matched, ok := result.(bool); ok && matched {
				report.Custom[r.name] = append(report.Custom[r.name], a.ID)
			}
		}
	}
	return report
}

// Parameters flattens a into the variables custom rules can use.
// daysToLimit and daysToEnd turn negative once the date has passed; a missing
// date counts as very far away.
func Parameters(a models.Agreement, now time.Time) map[string]interface{} {
	p := map[string]interface{}{
		"id":                   a.ID,
		"name":                 a.Name,
		"status":               a.Status,
		"program":              a.Program,
		"modality":             a.ProposalData.Data.Modality,
		"organ":                a.ProposalData.Data.Organ,
		"value":                a.TotalValue(),
		"executionProcesses":   float64(len(a.ExecutionProcesses())),
		"contracts":            float64(len(a.Contracts())),
		"rejectedBidding":      HasRejectedBidding(a),
		"accountabilityStatus": "",
		"totalValue":           0.0,
		"transferValue":        0.0,
		"counterpartValue":     0.0,
		"yieldValue":           0.0,
		"daysToLimit":          float64(math.MaxInt32),
		"daysToEnd":            float64(math.MaxInt32),
	}
	if !a.End.IsZero() {
		p["daysToEnd"] = math.Floor(a.End.Sub(now).Hours() / 24)
	}
	if acc := a.Accountability; acc != nil {
		p["accountabilityStatus"] = acc.Data.Status
		p["totalValue"] = acc.Data.TotalValue
		p["transferValue"] = acc.Data.TransferValue
		p["counterpartValue"] = acc.Data.CounterpartValue
		p["yieldValue"] = acc.Data.YieldValue
		if !acc.Data.LimitDate.IsZero() {
			p["daysToLimit"] = math.Floor(acc.Data.LimitDate.Sub(now).Hours() / 24)
		}
	}
	return p
}
