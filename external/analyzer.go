package external

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
)

const (
	maxProofBytes         = 8 << 10
	defaultDeadlineInDays = 14
	bountySystemPrompt    = "You review bounty postings for a decentralized bounty board. Reply with a single JSON object with the keys improvedDescription (string), improvedRequirements (array of strings), suggestedReward (decimal string in the native currency) and suggestedDeadline (YYYY-MM-DD)."
	qualitySystemPrompt   = "You grade bounty submissions. Reply with a JSON object with the keys score (0-100), feedback (string), rewardPercentage (0-100) and explanation (string)."
	bountyPromptTemplate  = "Title: %s\nDescription: %s\nRequirements: %s\nReward: %s\nDeadline: %s\nToday: %s"
	qualityPromptTemplate = "Requirements:\n%s\n\nBounty amount: %s\n\nSubmission:\n%s\n\nSubmitter comments:\n%s"
)

// ProofSource reads uploaded proof documents.
type ProofSource interface {
	Fetch(ctx context.Context, contentID string) ([]byte, error)
}

type Analyzer struct {
	llm    Completer
	proofs ProofSource
	now    func() time.Time
	lgr    *zap.Logger
}

type AnalyzerConfig struct {
	LLM    Completer
	Proofs ProofSource
	Now    func() time.Time
	Logger *zap.Logger
}

func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	a := &Analyzer{llm: cfg.LLM, proofs: cfg.Proofs, now: cfg.Now, lgr: cfg.Logger}
	if a.now == nil {
		a.now = time.Now
	}
	if a.lgr == nil {
		a.lgr = zap.NewNop()
	}
	return a
}

// AnalyzeBounty suggests a clearer posting. The suggested deadline is never before today.
// A reply that cannot be read falls back to the draft's own values.
func (a *Analyzer) AnalyzeBounty(ctx context.Context, draft types.BountyDraft) (*types.BountyAnalysis, error) {
	lgr := a.lgr.With(zap.String("method", "AnalyzeBounty"))
	today := utils.StartOfDay(a.now())
	prompt := fmt.Sprintf(bountyPromptTemplate, draft.Title, draft.Description, draft.Requirements,
		draft.RewardAmount, draft.Deadline, today.Format(utils.DateLayout))

	reply, err := a.llm.Complete(ctx, bountySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	res := &types.BountyAnalysis{
		ImprovedDescription:  draft.Description,
		ImprovedRequirements: splitLines(draft.Requirements),
		SuggestedReward:      draft.RewardAmount,
	}
	deadline := draft.Deadline
	if parsed, ok := parseBountyReply(reply); ok {
		if s := strings.TrimSpace(string(parsed.ImprovedDescription)); s != "" {
			res.ImprovedDescription = s
		}
		if len(parsed.ImprovedRequirements) > 0 {
			res.ImprovedRequirements = parsed.ImprovedRequirements
		}
		if s := strings.TrimSpace(string(parsed.SuggestedReward)); s != "" {
			res.SuggestedReward = s
		}
		if s := strings.TrimSpace(string(parsed.SuggestedDeadline)); s != "" {
			deadline = s
		}
	} else {
		lgr.Warn("Unreadable bounty analysis reply", zap.Int("length", len(reply)))
	}
	res.SuggestedDeadline = clampDeadline(deadline, today).Format(utils.DateLayout)
	return res, nil
}

// clampDeadline parses a date and moves it forward to today when it is in the past.
func clampDeadline(s string, today time.Time) time.Time {
	d, err := time.ParseInLocation(utils.DateLayout, strings.TrimSpace(s), today.Location())
	if err != nil {
		if len(s) >= len(utils.DateLayout) {
			d, err = time.ParseInLocation(utils.DateLayout, s[:len(utils.DateLayout)], today.Location())
		}
		if err != nil {
			return today.AddDate(0, 0, defaultDeadlineInDays)
		}
	}
	if d.Before(today) {
		return today
	}
	return d
}

// AnalyzeQuality grades a submission. The verdict is always well formed: a model
// failure returns the zero verdict together with the error.
func (a *Analyzer) AnalyzeQuality(ctx context.Context, req types.QualityRequest) (*types.QualityAnalysis, error) {
	lgr := a.lgr.With(zap.String("method", "AnalyzeQuality"))
	submission := req.Submission
	if submission == "" && req.ProofHash != "" {
		submission = a.proofText(ctx, req.ProofHash)
	}
	prompt := fmt.Sprintf(qualityPromptTemplate, req.Requirements, req.Amount, submission, req.Comments)

	res := &types.QualityAnalysis{}
	reply, err := a.llm.Complete(ctx, qualitySystemPrompt, prompt)
	if err != nil {
		lgr.Warn("Quality analysis failed", zap.Error(err))
		return res, err
	}
	*res = ParseQuality(reply)
	if res.Score == 0 && res.Feedback == "" {
		lgr.Info("Quality reply without a score", zap.Int("length", len(reply)))
	}
	if req.Amount != "" && res.RewardPercentage > 0 {
		if suggested, err := utils.PercentOf(req.Amount, res.RewardPercentage); err == nil {
			res.SuggestedReward = suggested
		}
	}
	return res, nil
}

func (a *Analyzer) proofText(ctx context.Context, contentID string) string {
	ref := "Proof reference: " + contentID
	if a.proofs == nil {
		return ref
	}
	data, err := a.proofs.Fetch(ctx, contentID)
	if err != nil {
		a.lgr.Warn("Cannot fetch proof", zap.String("cid", contentID), zap.Error(err))
		return ref
	}
	if len(data) > maxProofBytes {
		data = data[:maxProofBytes]
	}
	return ref + "\n" + strings.ToValidUTF8(string(data), "")
}
