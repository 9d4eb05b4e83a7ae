package domain

// Severity grades how urgent a failure is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Category groups failures by their origin.
type Category string

const (
	CategoryAuth      Category = "auth"
	CategoryNetwork   Category = "network"
	CategoryServer    Category = "server"
	CategoryClient    Category = "client"
	CategoryRateLimit Category = "rate_limit"
	CategoryUnknown   Category = "unknown"
)

// Diagnosis explains a terminal failure and suggests a remedy. Derived
// deterministically from the terminal attempt, immutable once created.
type Diagnosis struct {
	Issue      string   `json:"issue"`
	Cause      string   `json:"cause"`
	Suggestion string   `json:"suggestion"`
	Severity   Severity `json:"severity"`
	Category   Category `json:"category"`
}
