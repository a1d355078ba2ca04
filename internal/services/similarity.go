package services

import (
	"strings"
)

// descriptorWords are preparation/descriptive words dropped before token
// comparison; they carry no identity ("fresh", "chopped") or are cut
// qualifiers that would dilute the overlap ("boneless", "breast").
var descriptorWords = map[string]struct{}{
	"raw": {}, "cooked": {}, "fresh": {}, "peeled": {}, "with": {},
	"skin": {}, "without": {}, "no": {}, "and": {}, "or": {}, "from": {},
	"juice": {}, "sliced": {}, "chopped": {}, "ground": {}, "whole": {},
	"medium": {}, "large": {}, "small": {}, "boneless": {}, "breast": {},
	"thigh": {}, "drumstick": {},
}

// SimilarityScore scores how well two ingredient names match, in [0,1].
//
// The token score is |intersection| / min(|a|, |b|) over the filtered,
// singularized token sets: a short query fully contained in a longer
// catalog phrase scores 1.0. The root score compares the space-stripped
// singularized forms of the whole strings and recovers substring pairs
// like "berry" in "strawberry" that share no tokens. The final score is
// the larger of the two.
func SimilarityScore(a, b string) float64 {
	normA := NormalizeName(a)
	normB := NormalizeName(b)
	if normA == "" || normB == "" {
		return 0
	}

	setA := tokenSet(normA)
	setB := tokenSet(normB)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	common := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common++
		}
	}
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	tokenScore := float64(common) / float64(smaller)

	rootScore := rootContainmentScore(normA, normB)

	if rootScore > tokenScore {
		return rootScore
	}
	return tokenScore
}

// tokenSet splits a normalized name into its identity-bearing singular
// tokens; duplicates collapse.
func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		if _, skip := descriptorWords[tok]; skip {
			continue
		}
		set[SingularizeToken(tok)] = struct{}{}
	}
	return set
}

// rootContainmentScore compares the whole strings with spaces removed,
// singularized once. If one root contains the other the score is the
// length ratio, else 0.
func rootContainmentScore(normA, normB string) float64 {
	rootA := SingularizeToken(strings.ReplaceAll(normA, " ", ""))
	rootB := SingularizeToken(strings.ReplaceAll(normB, " ", ""))
	if rootA == "" || rootB == "" {
		return 0
	}
	if !strings.Contains(rootA, rootB) && !strings.Contains(rootB, rootA) {
		return 0
	}
	shorter, longer := len(rootA), len(rootB)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter) / float64(longer)
}
