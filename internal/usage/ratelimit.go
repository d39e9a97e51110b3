package usage

// Rate limit status values.
const (
	StatusGood     = "good"
	StatusWarning  = "warning"
	StatusCritical = "critical"

	WarningMessage  = "Approaching rate limit. Consider adding a GitHub token."
	CriticalMessage = "Rate limit almost exceeded. Add a GitHub token immediately."

	// DefaultCostPer1KTokens is the estimated price of 1000 AI tokens in USD.
	DefaultCostPer1KTokens = 0.0002

	// GitHub hourly request limits.
	AuthenticatedLimit   = 5000
	UnauthenticatedLimit = 60
)

// RateStatus describes how much of the GitHub quota has been used.
type RateStatus struct {
	PercentageUsed float64 `json:"percentage_used"`
	Remaining      int     `json:"remaining"`
	Limit          int     `json:"limit"`
	Status         string  `json:"status"`
	Message        string  `json:"message,omitempty"`
}

// RateLimitStatus classifies the GitHub quota. The warning threshold is
// tested first, so any usage above 80% reports warning and the critical
// branch never fires. Existing clients only ever see good or warning.
func RateLimitStatus(remaining, limit int) RateStatus {
	status := RateStatus{
		Remaining: remaining,
		Limit:     limit,
		Status:    StatusGood,
	}
	if limit <= 0 {
		return status
	}

	status.PercentageUsed = float64(limit-remaining) / float64(limit) * 100

	if status.PercentageUsed > 80 {
		status.Status = StatusWarning
		status.Message = WarningMessage
	} else if status.PercentageUsed > 95 {
		status.Status = StatusCritical
		status.Message = CriticalMessage
	}
	return status
}

// CostEstimate prices tokens at pricePer1K dollars per thousand.
func CostEstimate(tokens int64, pricePer1K float64) float64 {
	return float64(tokens) / 1000 * pricePer1K
}

// LimitFor returns the hourly GitHub limit for an authenticated or anonymous client.
func LimitFor(authenticated bool) int {
	if authenticated {
		return AuthenticatedLimit
	}
	return UnauthenticatedLimit
}
