package matcher

import (
	"strings"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// Petrological axis scores by matched rank. A miss stays nonzero because
// GVP rock lists are known to be incomplete.
const (
	petroPrimary   = 1.0
	petroSecondary = 0.7
	petroTertiary  = 0.5
	petroFamily    = 0.4 // same compositional family, different named type
	petroMiss      = 0.1
)

// rockFamilies maps normalized rock names to a coarse compositional family
// used as a fallback when no named type in the ranked list matches.
var rockFamilies = map[string]string{
	"basalt":             "basalt",
	"picrite":            "basalt",
	"picrobasalt":        "basalt",
	"trachybasalt":       "basalt",
	"basanite":           "basalt",
	"andesite":           "andesite",
	"basaltic andesite":  "andesite",
	"trachyandesite":     "andesite",
	"boninite":           "andesite",
	"dacite":             "dacite",
	"trachydacite":       "dacite",
	"rhyolite":           "rhyolite",
	"obsidian":           "rhyolite",
	"trachyte":           "trachyte",
	"phonolite":          "phonolite",
	"tephrite":           "phonolite",
	"phonotephrite":      "phonolite",
	"foidite":            "foidite",
	"nephelinite":        "foidite",
	"leucitite":          "foidite",
	"carbonatite":        "carbonatite",
	"kimberlite":         "kimberlite",
}

// normalizeRock lowercases and strips punctuation so that catalog and
// database spellings of the same type compare equal.
func normalizeRock(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("-", " ", "/", " ", ",", " ", "(", "", ")", "").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// scorePetrology compares the sample's rock type against the volcano's
// ranked rock-type list. Missing data on either side excludes the axis.
func scorePetrology(sampleRock string, ranked []string) (axisResult, []model.Flag) {
	rock := normalizeRock(sampleRock)
	if rock == "" || len(ranked) == 0 {
		return axisNeutral(), nil
	}

	for i, rt := range ranked {
		if normalizeRock(rt) != rock {
			continue
		}
		switch i {
		case 0:
			return axis(petroPrimary), nil
		case 1:
			return axis(petroSecondary), []model.Flag{model.FlagSecondaryRockMatch}
		default:
			return axis(petroTertiary), []model.Flag{model.FlagSecondaryRockMatch}
		}
	}

	// Family-level fallback.
	if fam, ok := rockFamilies[rock]; ok {
		for _, rt := range ranked {
			if rockFamilies[normalizeRock(rt)] == fam {
				return axis(petroFamily), []model.Flag{model.FlagSecondaryRockMatch}
			}
		}
	}

	return axis(petroMiss), nil
}
