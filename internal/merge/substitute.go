package merge

import (
	"fmt"
	"regexp"

	"github.com/hazlab/doseplan/internal/phitsdoc"
)

// Recognized placeholder keys. The set is closed: templates may only use
// these, and substitution maps may only provide these, so absence and typos
// surface as deterministic errors instead of silently surviving in output.
const (
	KeyDetX     = "det_x"
	KeyDetY     = "det_y"
	KeyDetZ     = "det_z"
	KeyDetector = "detector_cell"
	KeySrcX     = "src_x"
	KeySrcY     = "src_y"
	KeySrcZ     = "src_z"
	KeyMaxCas   = "maxcas"
	KeyMaxBch   = "maxbch"
	KeyNuclide  = "nuclide"
	KeyActivity = "activity"
)

// requiredKeys must be exposed by every per-point template; the batch
// generator supplies fresh values for them on every waypoint.
var requiredKeys = []string{KeyDetX, KeyDetY, KeyDetZ, KeyDetector}

var knownKeys = map[string]bool{
	KeyDetX: true, KeyDetY: true, KeyDetZ: true, KeyDetector: true,
	KeySrcX: true, KeySrcY: true, KeySrcZ: true,
	KeyMaxCas: true, KeyMaxBch: true,
	KeyNuclide: true, KeyActivity: true,
}

// Substitutions maps placeholder keys to literal replacement text.
type Substitutions map[string]string

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// validateKeys rejects substitution keys outside the closed enumeration.
func (s Substitutions) validateKeys() error {
	for k := range s {
		if !knownKeys[k] {
			return fmt.Errorf("merge: unknown substitution key %q", k)
		}
	}
	return nil
}

// collectPlaceholders returns every placeholder key appearing in the
// document's overlay text fields.
func collectPlaceholders(doc *phitsdoc.Document) map[string]bool {
	found := make(map[string]bool)
	scan := func(text string) {
		for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
			found[m[1]] = true
		}
	}
	for si := range doc.Sections {
		for _, line := range doc.Sections[si].Preamble {
			scan(line)
		}
		for ei := range doc.Sections[si].Entities {
			e := &doc.Sections[si].Entities[ei]
			scan(e.Body)
			scan(e.Comment)
			scan(e.Density)
			for _, line := range e.Extra {
				scan(line)
			}
		}
	}
	return found
}

// substitute rewrites placeholders in all overlay text fields. Keys without
// a value are left verbatim when optional and reported otherwise; unknown
// keys in the template are always an error.
func substitute(doc *phitsdoc.Document, subs Substitutions) error {
	var substErr error
	replace := func(text string) string {
		if substErr != nil {
			return text
		}
		var innerErr error
		out := placeholderRe.ReplaceAllStringFunc(text, func(tok string) string {
			key := tok[1 : len(tok)-1]
			if v, ok := subs[key]; ok {
				return v
			}
			if !knownKeys[key] || isRequired(key) {
				innerErr = &UnresolvedPlaceholderError{Key: key}
				return tok
			}
			return tok // optional by convention: tolerated when absent
		})
		if innerErr != nil {
			substErr = innerErr
			return text
		}
		return out
	}

	for si := range doc.Sections {
		s := &doc.Sections[si]
		for i, line := range s.Preamble {
			s.Preamble[i] = replace(line)
		}
		for ei := range s.Entities {
			e := &s.Entities[ei]
			e.Body = replace(e.Body)
			e.Comment = replace(e.Comment)
			e.Density = replace(e.Density)
			for i, line := range e.Extra {
				e.Extra[i] = replace(line)
			}
		}
	}
	return substErr
}

func isRequired(key string) bool {
	for _, k := range requiredKeys {
		if k == key {
			return true
		}
	}
	return false
}

// checkRequired verifies the template exposes every required placeholder.
func checkRequired(found map[string]bool) error {
	for _, k := range requiredKeys {
		if !found[k] {
			return &MissingPlaceholderError{Key: k}
		}
	}
	return nil
}
