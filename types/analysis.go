package types

// BountyDraft is the input of a bounty text analysis.
type BountyDraft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	RewardAmount string `json:"rewardAmount"`
	Deadline     string `json:"deadline"`
}

type BountyAnalysis struct {
	ImprovedDescription  string   `json:"improvedDescription" bson:"improvedDescription"`
	ImprovedRequirements []string `json:"improvedRequirements" bson:"improvedRequirements"`
	SuggestedReward      string   `json:"suggestedReward" bson:"suggestedReward"`
	SuggestedDeadline    string   `json:"suggestedDeadline" bson:"suggestedDeadline"`
}

type QualityRequest struct {
	BountyID     *uint64 `json:"bountyId,omitempty"`
	ProofHash    string  `json:"proofHash"`
	Submission   string  `json:"submission"`
	Comments     string  `json:"comments"`
	Requirements string  `json:"requirements"`
	Amount       string  `json:"amount"`
}

// QualityAnalysis is always well formed, a reply the parser cannot read yields score 0.
type QualityAnalysis struct {
	Score            int    `json:"score" bson:"score"`
	Feedback         string `json:"feedback" bson:"feedback"`
	RewardPercentage int    `json:"rewardPercentage" bson:"rewardPercentage"`
	Explanation      string `json:"explanation" bson:"explanation"`
	SuggestedReward  string `json:"suggestedReward,omitempty" bson:"suggestedReward,omitempty"`
}

const (
	AnalysisKindBounty  = "bounty"
	AnalysisKindQuality = "quality"
)

type AnalysisRecord struct {
	ID        string      `json:"id" bson:"id"`
	Kind      string      `json:"kind" bson:"kind"`
	Request   interface{} `json:"request" bson:"request"`
	Result    interface{} `json:"result" bson:"result"`
	CreatedAt int64       `json:"createdAt" bson:"createdAt"`
}
