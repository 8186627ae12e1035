// internal/domain/urgency.go
package domain

// Urgency classifies how soon action is needed, ordered by ascending
// days-of-supply cutoffs: critical < high < medium < low < ok.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
	UrgencyOK       Urgency = "ok"
)

var urgencyRank = map[Urgency]int{
	UrgencyCritical: 0,
	UrgencyHigh:     1,
	UrgencyMedium:   2,
	UrgencyLow:      3,
	UrgencyOK:       4,
}

// Rank returns the sort position of the urgency, most urgent first.
// Unknown values sort last.
func (u Urgency) Rank() int {
	if r, ok := urgencyRank[u]; ok {
		return r
	}
	return len(urgencyRank)
}

// MoreUrgentThan reports whether u requires action sooner than other.
func (u Urgency) MoreUrgentThan(other Urgency) bool {
	return u.Rank() < other.Rank()
}

// Valid reports whether the value is one of the known urgency levels.
func (u Urgency) Valid() bool {
	_, ok := urgencyRank[u]
	return ok
}
