package complexity

import (
	"math"
	"strings"
	"unicode"
)

// Keyword tables for the per-dimension heuristics. Matching is per distinct
// keyword present, not per occurrence, so scoring stays deterministic and
// insensitive to repetition.
var (
	scopeKeywords = []string{
		"comprehensive", "multiple", "across", "entire", "all", "every",
	}
	uncertaintyKeywords = []string{
		"research", "investigate", "explore", "unclear", "unknown",
		"ambiguous", "uncertain", "might", "possibly", "evaluate",
	}
	coordinationKeywords = []string{
		"and", "with", "between", "integrate", "coordinate", "combine",
	}
	coordinationPhrases = []string{
		"across multiple",
	}
	riskKeywords = []string{
		"security", "production", "database", "audit", "testing",
		"compliance", "migration", "payment", "authentication", "infrastructure",
	}
)

// Sub-score tuning constants. Each dimension is clamped to [0, 1].
const (
	subtaskDivisor    = 10.0 // num_subtasks saturating toward 0.6
	subtaskCap        = 0.6
	keywordStep       = 0.15 // per scope/coordination keyword
	scopeKeywordCap   = 0.3
	coordKeywordCap   = 0.4
	lengthDivisor     = 200.0 // description word count toward 0.1
	lengthCap         = 0.1
	uncertaintyStep   = 0.25 // per hedge keyword
	riskStep          = 0.2  // per risk keyword
	skillsDivisor     = 5.0  // distinct skills saturating toward 0.6
	skillsWeight      = 0.6
	diversityPerSkill = 0.25
)

// ScoreTask computes the five-dimension complexity score for a task
// description plus optional structured context. It is pure: no I/O and no
// mutation of shared state.
func ScoreTask(description string, tc *TaskContext) (*Score, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrInvalidDescription
	}
	if tc == nil {
		tc = &TaskContext{}
	}

	text := strings.ToLower(description)
	words := tokenize(text)

	dims := map[Dimension]float64{
		DimScope:           scopeScore(words, len(words), tc.NumSubtasks),
		DimUncertainty:     uncertaintyScore(words),
		DimInterdependency: interdependencyScore(words, text, len(tc.RequiredSkills)),
		DimSkillDiversity:  skillDiversityScore(len(tc.RequiredSkills)),
		DimRisk:            riskScore(words),
	}

	total := 0.0
	for _, d := range AllDimensions {
		total += Weight(d) * dims[d]
	}
	total = clamp01(total)

	return &Score{
		Dimensions:            dims,
		TotalScore:            total,
		RequiresCollaboration: total > CollaborationThreshold,
	}, nil
}

// scopeScore grows with the declared subtask count, breadth keywords, and
// description length.
func scopeScore(words map[string]bool, wordCount, numSubtasks int) float64 {
	s := math.Min(float64(numSubtasks)/subtaskDivisor, subtaskCap)
	s += math.Min(keywordStep*countMatches(words, scopeKeywords), scopeKeywordCap)
	s += math.Min(float64(wordCount)/lengthDivisor, lengthCap)
	return clamp01(s)
}

// uncertaintyScore grows with hedge and ambiguity markers.
func uncertaintyScore(words map[string]bool) float64 {
	return clamp01(uncertaintyStep * countMatches(words, uncertaintyKeywords))
}

// interdependencyScore grows with the count of distinct required skills and
// with coordination language in the description.
func interdependencyScore(words map[string]bool, text string, numSkills int) float64 {
	s := skillsWeight * math.Min(float64(numSkills)/skillsDivisor, 1.0)

	coord := countMatches(words, coordinationKeywords)
	for _, p := range coordinationPhrases {
		if strings.Contains(text, p) {
			coord++
		}
	}
	s += math.Min(keywordStep*coord, coordKeywordCap)
	return clamp01(s)
}

// skillDiversityScore is derived directly from the distinct skill count:
// 0 skills scores 0, 1 scores low, 4+ saturates.
func skillDiversityScore(numSkills int) float64 {
	return math.Min(diversityPerSkill*float64(numSkills), 1.0)
}

// riskScore grows with risk-signaling keywords.
func riskScore(words map[string]bool) float64 {
	return clamp01(riskStep * countMatches(words, riskKeywords))
}

// tokenize splits lowercased text into a set of words. Splitting on
// non-alphanumeric runes keeps matching word-bounded, so "command" never
// matches "and".
func tokenize(text string) map[string]bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func countMatches(words map[string]bool, keywords []string) float64 {
	n := 0.0
	for _, k := range keywords {
		if words[k] {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
