package types

// Suggested actions a summary may recommend.
const (
	ActionAccept            = "Accept"
	ActionReject            = "Reject"
	ActionFurtherEvaluation = "Further Evaluation Needed"
)

// SummaryResult is the recommendation synthesised from all prior stages.
type SummaryResult struct {
	Pros                     []string `json:"pros"`
	Cons                     []string `json:"cons"`
	SuggestedAction          string   `json:"suggested_action"`
	DetailedReasoning        string   `json:"detailed_reasoning"`
	RiskFactors              []string `json:"risk_factors"`
	InterviewRecommendations []string `json:"interview_recommendations"`
	OverallAssessment        string   `json:"overall_assessment"`
}
