// Package domain holds the lead domain types shared by the repository,
// services, and the quote pipeline.
package domain

// Lead lifecycle statuses.
const (
	StatusNew        = "new"
	StatusContacted  = "contacted"
	StatusInProgress = "in_progress"
	StatusQuoted     = "quoted"
	StatusClosedWon  = "closed_won"
	StatusClosedLost = "closed_lost"
)

// ValidStatuses lists every allowed lead status, in lifecycle order.
var ValidStatuses = []string{
	StatusNew,
	StatusContacted,
	StatusInProgress,
	StatusQuoted,
	StatusClosedWon,
	StatusClosedLost,
}

// IsValidStatus reports whether s is a known lead status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
