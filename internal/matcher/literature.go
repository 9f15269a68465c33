package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// Evidence confidence per hit class.
const (
	evidenceExplicitConf = 0.9
	evidencePartialConf  = 0.6
	evidenceRegionalConf = 0.3
)

// foldTransformer strips diacritics: NFD decompose, drop combining marks,
// recompose. "Öræfajökull" and "Oraefajokull" won't fold to the same bytes
// for every ligature, but accent variance (the common case) does.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases, removes diacritics, and flattens punctuation so name
// scans tolerate minor formatting variance in citation strings.
func foldText(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return " " + strings.Join(strings.Fields(b.String()), " ") + " "
}

// containsTerm reports whether folded text contains term as whole words.
func containsTerm(foldedText, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(foldedText, " "+term+" ")
}

// extractEvidence scans the sample's title/abstract/reference text for the
// candidate volcano's name. The result never feeds score arithmetic; it is
// surfaced alongside the numeric decision, matched or not, so a literature
// mention that contradicts the spatial evidence stays inspectable.
func extractEvidence(s model.Sample, v model.Volcano) model.Evidence {
	name := strings.TrimSpace(foldText(v.Name))
	if name == "" {
		return noEvidence()
	}

	title := foldText(s.Title)
	abstract := foldText(s.Abstract + " " + s.Reference)

	// Full name in the title is the strongest signal.
	if containsTerm(title, name) {
		return model.Evidence{Found: true, Type: model.EvidenceExplicit, Confidence: evidenceExplicitConf, Source: model.SourceTitle}
	}
	if containsTerm(abstract, name) {
		return model.Evidence{Found: true, Type: model.EvidencePartial, Confidence: evidencePartialConf, Source: model.SourceAbstract}
	}

	// Distinctive fragment of a multi-word name ("Nevado del Ruiz" → "ruiz").
	if frag := nameFragment(name); frag != "" {
		if containsTerm(title, frag) {
			return model.Evidence{Found: true, Type: model.EvidencePartial, Confidence: evidencePartialConf, Source: model.SourceTitle}
		}
		if containsTerm(abstract, frag) {
			return model.Evidence{Found: true, Type: model.EvidencePartial, Confidence: evidencePartialConf, Source: model.SourceAbstract}
		}
	}

	// Broader place names only.
	for _, place := range []string{foldRegionTerm(v.Region), foldRegionTerm(v.Country)} {
		if place == "" {
			continue
		}
		if containsTerm(title, place) {
			return model.Evidence{Found: true, Type: model.EvidenceRegional, Confidence: evidenceRegionalConf, Source: model.SourceTitle}
		}
		if containsTerm(abstract, place) {
			return model.Evidence{Found: true, Type: model.EvidenceRegional, Confidence: evidenceRegionalConf, Source: model.SourceAbstract}
		}
	}

	return noEvidence()
}

func noEvidence() model.Evidence {
	return model.Evidence{Type: model.EvidenceNone, Source: model.SourceNone}
}

// nameFragment returns the longest word of a multi-word name, skipping
// generic volcano words, or "" when the name is a single word (a single
// word already matched or missed in full).
func nameFragment(folded string) string {
	words := strings.Fields(folded)
	if len(words) < 2 {
		return ""
	}
	var best string
	for _, w := range words {
		if genericNameWords[w] || len(w) < 4 {
			continue
		}
		if len(w) > len(best) {
			best = w
		}
	}
	return best
}

var genericNameWords = map[string]bool{
	"volcano": true, "volcan": true, "mount": true, "mont": true,
	"monte": true, "cerro": true, "nevado": true, "caldera": true,
	"islands": true, "island": true, "complex": true, "field": true,
}

func foldRegionTerm(s string) string {
	return strings.TrimSpace(foldText(s))
}
