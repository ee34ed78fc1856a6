package external

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/bountyboard/bounty-backend/types"
)

var (
	fencePattern       = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	scorePattern       = regexp.MustCompile(`(?i)\bscore\b\**\s*[:=]\s*\**\s*(\d{1,3})\b`)
	percentagePattern  = regexp.MustCompile(`(?i)reward[ _-]?percentage\b\**\s*[:=]\s*\**\s*(\d{1,3})\b\s*%?`)
	feedbackPattern    = regexp.MustCompile(`(?is)\bfeedback\b\**\s*[:=]\s*\**\s*(.*?)(?:\n\s*\n|\n\s*\**\s*(?:reward|explanation|score)|\z)`)
	explanationPattern = regexp.MustCompile(`(?is)\bexplanation\b\**\s*[:=]\s*\**\s*(.*?)(?:\n\s*\n|\n\s*\**\s*(?:reward|feedback|score)|\z)`)
)

// extractJSON returns the first JSON object in reply, looking inside code fences first.
func extractJSON(reply string) (string, bool) {
	candidates := []string{}
	if m := fencePattern.FindStringSubmatch(reply); m != nil {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, reply)
	for _, c := range candidates {
		start := strings.Index(c, "{")
		end := strings.LastIndex(c, "}")
		if start < 0 || end <= start {
			continue
		}
		s := c[start : end+1]
		if json.Valid([]byte(s)) {
			return s, true
		}
	}
	return "", false
}

// flexNumber accepts a JSON number or a numeric string.
type flexNumber struct {
	value int
	ok    bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"%`)
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return nil
	}
	n.value, n.ok = int(f), true
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*s = flexString(num.String())
	}
	return nil
}

// flexList accepts a list of strings or a single newline separated string.
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*l = splitLines(str)
	}
	return nil
}

func splitLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789.)"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ParseQuality reads a quality verdict from a free text model reply. A reply
// without a readable score yields the zero verdict.
func ParseQuality(reply string) types.QualityAnalysis {
	if s, ok := extractJSON(reply); ok {
		var v struct {
			Score            flexNumber `json:"score"`
			Feedback         flexString `json:"feedback"`
			RewardPercentage flexNumber `json:"rewardPercentage"`
			Explanation      flexString `json:"explanation"`
		}
		if err := json.Unmarshal([]byte(s), &v); err == nil && v.Score.ok {
			res := types.QualityAnalysis{
				Score:       clampPercent(v.Score.value),
				Feedback:    strings.TrimSpace(string(v.Feedback)),
				Explanation: strings.TrimSpace(string(v.Explanation)),
			}
			if v.RewardPercentage.ok {
				res.RewardPercentage = clampPercent(v.RewardPercentage.value)
			}
			return res
		}
	}

	m := scorePattern.FindStringSubmatch(reply)
	if m == nil {
		return types.QualityAnalysis{}
	}
	score, _ := strconv.Atoi(m[1])
	res := types.QualityAnalysis{Score: clampPercent(score)}
	if m := percentagePattern.FindStringSubmatch(reply); m != nil {
		pct, _ := strconv.Atoi(m[1])
		res.RewardPercentage = clampPercent(pct)
	}
	if m := feedbackPattern.FindStringSubmatch(reply); m != nil {
		res.Feedback = strings.TrimSpace(m[1])
	}
	if m := explanationPattern.FindStringSubmatch(reply); m != nil {
		res.Explanation = strings.TrimSpace(m[1])
	}
	return res
}

type bountyReply struct {
	ImprovedDescription  flexString `json:"improvedDescription"`
	ImprovedRequirements flexList   `json:"improvedRequirements"`
	SuggestedReward      flexString `json:"suggestedReward"`
	SuggestedDeadline    flexString `json:"suggestedDeadline"`
}

// parseBountyReply reads the structured part of a bounty analysis reply.
func parseBountyReply(reply string) (*bountyReply, bool) {
	s, ok := extractJSON(reply)
	if !ok {
		return nil, false
	}
	var v bountyReply
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return &v, true
}
