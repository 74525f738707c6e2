package warnings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlarosConsulting/atena-client/models"
)

var now = time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)

func withProcesses(id string, processes ...models.ExecutionProcess) models.Agreement {
	return models.Agreement{
		ID:                  id,
		ConvenientExecution: &models.ConvenientExecution{ExecutionProcesses: processes},
	}
}

func process(kind, accepted string) models.ExecutionProcess {
	return models.ExecutionProcess{
		Accepted: accepted,
		Details:  models.ExecutionProcessDetails{ExecutionProcess: kind},
	}
}

func withAccountability(id, status string, limit time.Time) models.Agreement {
	return models.Agreement{
		ID: id,
		Accountability: &models.Accountability{Data: models.AccountabilityData{
			Status:    status,
			LimitDate: models.NewDate(limit),
		}},
	}
}

func TestBiddingRejectedFlagsAgreement(t *testing.T) {
	agreements := []models.Agreement{
		withProcesses("a1", process("Licitação Pública", "Rejeitado")),
	}
	assert.Equal(t, []string{"a1"}, BiddingRejected(agreements))
}

func TestBiddingRejectedAcrossProcesses(t *testing.T) {
	agreements := []models.Agreement{
		withProcesses("a1", process("LICITAÇÃO", "Aceito"), process("Dispensa", "rejeitada")),
		withProcesses("a2", process("Licitação", "Aceito")),
		withProcesses("a3", process("Dispensa", "Rejeitado")),
	}
	assert.Equal(t, []string{"a1"}, BiddingRejected(agreements))
}

func TestBiddingRejectedReadsAcceptanceFromDetails(t *testing.T) {
	p := process("Licitação Pública", "")
	p.Details.Accepted = "Rejeitado"
	assert.True(t, HasRejectedBidding(withProcesses("a1", p)))
}

func TestBiddingRejectedFlatProcesses(t *testing.T) {
	flat := models.Agreement{ID: "a1", Processes: []models.ExecutionProcess{process("Licitação", "Rejeitado")}}
	assert.True(t, HasRejectedBidding(flat))

	mixed := withProcesses("a2", process("Licitação", "Aceito"))
	mixed.Processes = []models.ExecutionProcess{process("Dispensa", "Rejeitada")}
	assert.True(t, HasRejectedBidding(mixed))
}

func TestBiddingRejectedWithoutProcesses(t *testing.T) {
	assert.False(t, HasRejectedBidding(models.Agreement{ID: "a1"}))
	assert.False(t, HasRejectedBidding(withProcesses("a2")))
	assert.False(t, HasRejectedBidding(models.Agreement{ID: "a3", ConvenientExecution: &models.ConvenientExecution{}}))
}

func TestEmptyAgreementsFlagNothing(t *testing.T) {
	assert.Empty(t, BiddingRejected(nil))
	assert.Empty(t, AccountabilityOverdue(nil, now))
	assert.False(t, CounterpartMissing(models.Statistics{}, nil))

	e, err := NewEvaluator(nil)
	require.NoError(t, err)
	assert.False(t, e.Evaluate(models.Statistics{}, nil).Any())
}

func TestCounterpartMissing(t *testing.T) {
	agreements := []models.Agreement{{ID: "a1"}}

	stats := models.Statistics{Counterpart: models.CounterpartStats{Financial: 0, AssetsAndServices: 0}}
	assert.True(t, CounterpartMissing(stats, agreements))

	stats.Counterpart.Financial = 100
	assert.False(t, CounterpartMissing(stats, agreements))

	stats = models.Statistics{Counterpart: models.CounterpartStats{AssetsAndServices: 3}}
	assert.False(t, CounterpartMissing(stats, agreements))
}

func TestAccountabilityOverdue(t *testing.T) {
	agreements := []models.Agreement{
		withAccountability("late", "Aguardando Prestação de Contas", now.AddDate(0, 0, -1)),
		withAccountability("approved", "Prestação de Contas Aprovada", now.AddDate(0, -2, 0)),
		withAccountability("concluded", "CONCLUÍDA", now.AddDate(-1, 0, 0)),
		withAccountability("future", "Aguardando", now.AddDate(0, 0, 1)),
		withAccountability("nodate", "Aguardando", time.Time{}),
		{ID: "noaccountability"},
	}
	assert.Equal(t, []string{"late"}, AccountabilityOverdue(agreements, now))
}

func TestEvaluatorCustomRules(t *testing.T) {
	e, err := NewEvaluator([]Rule{
		{Name: "big-without-contract", Expression: "value > 1000000 && contracts == 0"},
		{Name: "limit-soon", Expression: "daysToLimit >= 0 && daysToLimit <= 30"},
	})
	require.NoError(t, err)
	e.WithClock(func() time.Time { return now })

	big := models.Agreement{ID: "big", ProposalData: models.ProposalData{Programs: []models.Program{{Value: 900000}, {Value: 200000}}}}
	soon := withAccountability("soon", "Aguardando", now.AddDate(0, 0, 10))
	small := models.Agreement{ID: "small", ProposalData: models.ProposalData{Programs: []models.Program{{Value: 10}}}}

	report := e.Evaluate(models.Statistics{Counterpart: models.CounterpartStats{Financial: 1}}, []models.Agreement{big, soon, small})

	assert.Equal(t, []string{"big"}, report.Custom["big-without-contract"])
	assert.Equal(t, []string{"soon"}, report.Custom["limit-soon"])
	assert.False(t, report.CounterpartMissing)
	assert.Equal(t, []string{"big", "soon"}, report.Flagged())
	assert.True(t, report.Any())
}

func TestEvaluatorNonBooleanRuleNeverMatches(t *testing.T) {
	e, err := NewEvaluator([]Rule{{Name: "sum", Expression: "value + 1"}})
	require.NoError(t, err)

	report := e.Evaluate(models.Statistics{}, []models.Agreement{{ID: "a1"}})
	assert.Empty(t, report.Custom["sum"])
}

func TestNewEvaluatorRejectsBadRules(t *testing.T) {
	_, err := NewEvaluator([]Rule{{Name: "broken", Expression: "value >"}})
	assert.Error(t, err)

	_, err = NewEvaluator([]Rule{{Name: "x", Expression: "true"}, {Name: "x", Expression: "false"}})
	assert.Error(t, err)
}

func TestReportFlaggedDeduplicates(t *testing.T) {
	r := Report{
		BiddingRejected:       []string{"a", "b"},
		AccountabilityOverdue: []string{"b", "c"},
		Custom:                map[string][]string{"z": {"d", "a"}, "y": {"e"}},
	}
	assert.Equal(t, []string{"a", "b", "c", "e", "d"}, r.Flagged())
}

func TestReportAnyCounterpartOnly(t *testing.T) {
	assert.True(t, Report{CounterpartMissing: true}.Any())
	assert.False(t, Report{}.Any())
}
