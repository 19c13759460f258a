package auditsvc

// RiskLevel classifies an audit event for escalation decisions.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRisk maps a string to a RiskLevel. Unknown or empty input defaults to
// low: audit logging accepts best-effort input rather than rejecting it.
func ParseRisk(s string) RiskLevel {
	switch s {
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	}
	return RiskLow
}

// Entry is one recorded audit event.
type Entry struct {
	ID          string                 `json:"id"`
	TimestampMs int64                  `json:"ts_ms"`
	UserID      string                 `json:"user_id"`
	Action      string                 `json:"action"`
	Resource    string                 `json:"resource"`
	Risk        RiskLevel              `json:"risk"`
	// Origin is only trustworthy when stamped by a server boundary; entries
	// recorded on the client path leave it empty.
	Origin  string                 `json:"origin,omitempty"`
	Agent   string                 `json:"agent,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Query selects entries from Logs and Export. Zero values mean "no
// constraint"; time bounds are inclusive on both ends. Filter is an optional
// CEL expression over user, action, resource, risk, ts_ms and details.
type Query struct {
	UserID  string
	StartMs int64
	EndMs   int64
	Filter  string
}

// payload is the store-side document for an audit entry; the envelope carries
// id, timestamp, actor, origin and agent.
type payload struct {
	Action   string                 `json:"action"`
	Resource string                 `json:"resource"`
	Risk     RiskLevel              `json:"risk"`
	Details  map[string]interface{} `json:"details,omitempty"`
}
