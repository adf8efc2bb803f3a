package scoring

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/config"
)

const (
	confidenceExact    = 1.0
	confidenceSubstr   = 0.8
	confidenceSynonym  = 0.8
	matchedThreshold   = 0.5
	perfectMatchMin    = 0.9
	requiredWeight     = 0.75
	preferredWeight    = 0.25
)

// SemanticResult is the Semantic ComponentScorer's output: a [0,1] subscore
// plus the perfect-match bonus flag the MatchEngine applies separately.
type SemanticResult struct {
	Score        float64
	PerfectMatch bool
	NoRequired   bool
}

// SemanticScore implements spec §4.7's skills scorer: best-match confidence
// per required/preferred skill (exact > substring > sector synonym),
// combined 0.75 required / 0.25 preferred.
func SemanticScore(candidate domain.CandidateProfile, job domain.JobRequirement, sectors config.SectorConfig) SemanticResult {
	if len(job.RequiredSkills) == 0 {
		return SemanticResult{Score: 1.0, NoRequired: true}
	}

	required := skillSubscore(candidate.Skills, job.RequiredSkills, sectors)
	if len(job.PreferredSkills) == 0 {
		return SemanticResult{Score: required.subscore, PerfectMatch: required.perfectMatch}
	}

	preferred := skillSubscore(candidate.Skills, job.PreferredSkills, sectors)
	combined := requiredWeight*required.subscore + preferredWeight*preferred.subscore
	return SemanticResult{Score: domain.Clamp01(combined), PerfectMatch: required.perfectMatch}
}

type skillSubscoreResult struct {
	subscore     float64
	perfectMatch bool
}

// skillSubscore scores one skill list (required or preferred) against the
// candidate's skills: subscore = 0.6·matched_ratio + 0.4·mean_confidence.
func skillSubscore(candidateSkills, targetSkills []string, sectors config.SectorConfig) skillSubscoreResult {
	candidateSet := mapset.NewSet(lo.Map(candidateSkills, func(s string, _ int) string { return normalizeSkill(s) })...)

	confidences := lo.Map(targetSkills, func(skill string, _ int) float64 {
		return bestConfidence(normalizeSkill(skill), candidateSet, candidateSkills, sectors)
	})

	matched := lo.CountBy(confidences, func(c float64) bool { return c > matchedThreshold })
	matchedRatio := float64(matched) / float64(len(targetSkills))
	meanConfidence := lo.Sum(confidences) / float64(len(confidences))

	return skillSubscoreResult{
		subscore:     domain.Clamp01(0.6*matchedRatio + 0.4*meanConfidence),
		perfectMatch: matched == len(targetSkills) && meanConfidence > perfectMatchMin,
	}
}

// bestConfidence returns the best match confidence for one target skill
// against the full candidate skill list: exact (1.0), substring (0.8), or a
// synonym-table hit (0.8); 0 if nothing matches.
func bestConfidence(normalizedTarget string, candidateSet mapset.Set[string], candidateSkills []string, sectors config.SectorConfig) float64 {
	if candidateSet.Contains(normalizedTarget) {
		return confidenceExact
	}

	best := 0.0
	for _, cs := range candidateSkills {
		ncs := normalizeSkill(cs)
		if strings.Contains(ncs, normalizedTarget) || strings.Contains(normalizedTarget, ncs) {
			if confidenceSubstr > best {
				best = confidenceSubstr
			}
		}
		if isSynonym(normalizedTarget, ncs, sectors) {
			if confidenceSynonym > best {
				best = confidenceSynonym
			}
		}
	}
	return best
}

// isSynonym reports whether a and b are linked in the sector's synonym
// table, keyed by canonical skill name.
func isSynonym(a, b string, sectors config.SectorConfig) bool {
	for canonical, synonyms := range sectors.Synonyms {
		nc := normalizeSkill(canonical)
		matchesA := nc == a
		matchesB := nc == b
		for _, syn := range synonyms {
			ns := normalizeSkill(syn)
			if ns == a {
				matchesA = true
			}
			if ns == b {
				matchesB = true
			}
		}
		if matchesA && matchesB {
			return true
		}
	}
	return false
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
