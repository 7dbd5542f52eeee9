package domain

// RiskLevel enumerates guardrail outcomes.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// GuardrailAction describes how the engine reacts to a matched rule.
// There is no human in the loop, so the only choices are to run the command
// with a logged warning or to refuse it.
type GuardrailAction string

const (
	ActionAllow GuardrailAction = "allow"
	ActionWarn  GuardrailAction = "warn"
	ActionBlock GuardrailAction = "block"
)

// RiskAssessment aggregates security evaluation data.
type RiskAssessment struct {
	Level        RiskLevel
	Action       GuardrailAction
	Reasons      []string
	MatchedRules []string
}
