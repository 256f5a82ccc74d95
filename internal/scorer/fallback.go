package scorer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// stopwords excluded from keyword extraction: function words plus resume
// boilerplate that matches everything.
var stopwords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "with": {}, "in": {}, "to": {}, "for": {},
	"of": {}, "on": {}, "by": {}, "a": {}, "an": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"has": {}, "have": {}, "had": {},
	"experience": {}, "experiences": {}, "skill": {}, "skills": {},
	"using": {}, "use": {}, "working": {}, "work": {},
	"responsibilities": {}, "responsibility": {}, "including": {}, "etc": {},
}

var fallbackTokenizer = unicode.NewUnicodeTokenizer()

// extractKeywords tokenizes text and returns lowercased terms longer than
// three characters that are not stopwords.
func extractKeywords(text string) map[string]struct{} {
	keywords := make(map[string]struct{})
	for _, tok := range fallbackTokenizer.Tokenize([]byte(text)) {
		term := strings.ToLower(string(tok.Term))
		if len(term) <= 3 {
			continue
		}
		if _, ok := stopwords[term]; ok {
			continue
		}
		keywords[term] = struct{}{}
	}
	return keywords
}

// fallbackExplanation builds a deterministic keyword-overlap explanation when
// the model output is unusable. The naive score is the share of job keywords
// found in the resume, scaled to 0-10.
func fallbackExplanation(jobText, resumeText string) string {
	jobKeywords := extractKeywords(jobText)
	resumeKeywords := extractKeywords(resumeText)

	var common []string
	for kw := range jobKeywords {
		if _, ok := resumeKeywords[kw]; ok {
			common = append(common, kw)
		}
	}
	sort.Strings(common)

	var score float64
	if len(jobKeywords) > 0 {
		score = float64(len(common)) / float64(len(jobKeywords)) * 10
	}

	if len(common) == 0 {
		return fmt.Sprintf("Rating: %.2f/10. The resume lacks the key skills mentioned in the job description.", score)
	}
	shown := common
	if len(shown) > 8 {
		shown = shown[:8]
	}
	return fmt.Sprintf("Rating: %.2f/10. The resume shows experience matching the job requirements, including %s.",
		score, strings.Join(shown, ", "))
}
