package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeasonalEventContains(t *testing.T) {
	holiday := SeasonalEvent{StartMonth: 11, StartDay: 15, EndMonth: 12, EndDay: 24}
	wrapped := SeasonalEvent{StartMonth: 11, StartDay: 15, EndMonth: 1, EndDay: 10}

	tests := []struct {
		name  string
		event SeasonalEvent
		month int
		day   int
		want  bool
	}{
		{"start boundary inclusive", holiday, 11, 15, true},
		{"end boundary inclusive", holiday, 12, 24, true},
		{"middle of window", holiday, 12, 1, true},
		{"day before start", holiday, 11, 14, false},
		{"day after end", holiday, 12, 25, false},
		{"far outside", holiday, 1, 1, false},
		{"wrapped window before new year", wrapped, 12, 31, true},
		{"wrapped window after new year", wrapped, 1, 1, true},
		{"wrapped window end inclusive", wrapped, 1, 10, true},
		{"wrapped window outside", wrapped, 6, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Contains(tt.month, tt.day))
		})
	}
}

func TestSeasonalEventContainsDate(t *testing.T) {
	ev := SeasonalEvent{StartMonth: 11, StartDay: 25, EndMonth: 11, EndDay: 29}

	assert.True(t, ev.ContainsDate(time.Date(2025, 11, 27, 13, 45, 0, 0, time.UTC)))
	assert.False(t, ev.ContainsDate(time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)))
}

func TestUrgencyOrdering(t *testing.T) {
	ordered := []Urgency{UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow, UrgencyOK}
	for i := 1; i < len(ordered); i++ {
		assert.True(t, ordered[i-1].MoreUrgentThan(ordered[i]),
			"%s should be more urgent than %s", ordered[i-1], ordered[i])
	}

	assert.False(t, UrgencyOK.MoreUrgentThan(UrgencyCritical))
	assert.False(t, UrgencyHigh.MoreUrgentThan(UrgencyHigh))
}

func TestUrgencyValid(t *testing.T) {
	assert.True(t, UrgencyCritical.Valid())
	assert.True(t, UrgencyOK.Valid())
	assert.False(t, Urgency("panic").Valid())

	// Unknown values sort after every known level.
	assert.True(t, UrgencyOK.MoreUrgentThan(Urgency("panic")))
}

func TestModelWeightsByModelRoundTrip(t *testing.T) {
	var w ModelWeights
	w.SetByModel(ModelTrendSeasonal, 0.4)
	w.SetByModel(ModelLearnedSequence, 0.3)
	w.SetByModel(ModelExponentialSmoothing, 0.2)
	w.SetByModel(ModelAutoregressive, 0.1)

	byModel := w.ByModel()
	assert.Equal(t, 0.4, byModel[ModelTrendSeasonal])
	assert.Equal(t, 0.3, byModel[ModelLearnedSequence])
	assert.Equal(t, 0.2, byModel[ModelExponentialSmoothing])
	assert.Equal(t, 0.1, byModel[ModelAutoregressive])

	assert.Equal(t, 0.4, w.ProphetWeight)
	assert.Equal(t, 0.3, w.LSTMWeight)
}
