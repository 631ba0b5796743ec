package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SodiumWatch/pkg/model"
)

func mustPolicy(t *testing.T, limit int64) *Policy {
	t.Helper()
	p, err := NewPolicy(limit)
	require.NoError(t, err)
	return p
}

func TestNewPolicyRejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int64{0, -1, -2000} {
		_, err := NewPolicy(limit)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
}

func TestPolicyAbsoluteThresholds(t *testing.T) {
	p := mustPolicy(t, 2000)
	var got []int64
	for _, th := range p.Thresholds() {
		got = append(got, p.AbsoluteMG(th))
	}
	assert.Equal(t, []int64{1000, 1500, 2000, 2400}, got)
}

func TestPolicyMatchLastMatchWins(t *testing.T) {
	p := mustPolicy(t, 2000)

	tests := []struct {
		total    int64
		ok       bool
		code     string
		severity model.AlertSeverity
	}{
		{0, false, "", ""},
		{999, false, "", ""},
		{1000, true, "50", model.SeverityInfo},
		{1499, true, "50", model.SeverityInfo},
		{1600, true, "75", model.SeverityWarning},
		{2000, true, "100", model.SeverityDanger},
		{2100, true, "100", model.SeverityDanger},
		{2400, true, "120", model.SeverityDanger},
		{9000, true, "120", model.SeverityDanger},
	}
	for _, tt := range tests {
		th, ok := p.Match(tt.total)
		assert.Equal(t, tt.ok, ok, "total %d", tt.total)
		assert.Equal(t, tt.code, th.Code, "total %d", tt.total)
		assert.Equal(t, tt.severity, th.Severity, "total %d", tt.total)
	}
}

func TestPolicyThresholdsIsACopy(t *testing.T) {
	p := mustPolicy(t, 2000)
	ts := p.Thresholds()
	ts[0].Percent = 1
	th, ok := p.Match(10)
	assert.False(t, ok, "mutating the returned table must not change matching: %+v", th)
}

func TestPercentOfLimit(t *testing.T) {
	p := mustPolicy(t, 2000)
	assert.Equal(t, 0.0, p.PercentOfLimit(0))
	assert.Equal(t, 80.0, p.PercentOfLimit(1600))
	assert.Equal(t, 105.0, p.PercentOfLimit(2100))
	assert.Equal(t, 50.1, p.PercentOfLimit(1001)) // 50.05 rounds half up
	assert.Equal(t, 33.3, mustPolicy(t, 3).PercentOfLimit(1))
}

func TestAdvice(t *testing.T) {
	p := mustPolicy(t, 2000)
	assert.Equal(t, NoMealsAdvice, p.Advice(nil))
	assert.Contains(t, p.Advice(&model.DailySummary{PercentOfLimit: 10}), "within safe limits")
	assert.Contains(t, p.Advice(&model.DailySummary{PercentOfLimit: 50}), "half of the daily limit")
	assert.Contains(t, p.Advice(&model.DailySummary{PercentOfLimit: 80}), "above 75%")
	assert.Contains(t, p.Advice(&model.DailySummary{PercentOfLimit: 100}), "reached today's sodium limit")
	assert.Contains(t, p.Advice(&model.DailySummary{PercentOfLimit: 130}), "exceeded recommended")
}
