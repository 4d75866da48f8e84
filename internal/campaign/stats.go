package campaign

import (
	"math"
	"strings"

	"github.com/jonathan/buyside/internal/types"
)

// Stats are the dashboard summary figures.
type Stats struct {
	ActiveCampaigns int `json:"active_campaigns"`
	TotalBudget     int `json:"total_budget"`
	// ApprovalRate is the rounded percentage of APPROVED campaigns, 100 for an empty list.
	ApprovalRate int `json:"approval_rate"`
}

// Summarize computes dashboard stats for list.
func Summarize(list []types.Campaign) Stats {
	stats := Stats{ActiveCampaigns: len(list), ApprovalRate: 100}
	if len(list) == 0 {
		return stats
	}

	approved := 0
	for _, c := range list {
		stats.TotalBudget += c.Budget
		if c.ReviewPolicy.Status == types.PolicyApproved {
			approved++
		}
	}
	stats.ApprovalRate = int(math.Floor(float64(approved)*100/float64(len(list)) + 0.5))
	return stats
}

// Filter returns the campaigns whose name or any keyword contains term,
// ignoring case. An empty term matches everything.
func Filter(list []types.Campaign, term string) []types.Campaign {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return clone(list)
	}

	out := []types.Campaign{}
	for _, c := range list {
		if matches(c, term) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c types.Campaign, term string) bool {
	if strings.Contains(strings.ToLower(c.Name), term) {
		return true
	}
	for _, k := range c.Keywords {
		if strings.Contains(strings.ToLower(k), term) {
			return true
		}
	}
	return false
}
