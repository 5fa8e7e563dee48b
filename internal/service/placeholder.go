package service

import (
	"regexp"

	"github.com/health-advisor-server/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ResolvePlaceholders substitutes every {name} in tpl. Names are looked up in the
// vital reading first, then in the risk scores; unknown names are left as written.
func ResolvePlaceholders(tpl string, v domain.VitalReading, r domain.RiskScoreMap) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		name := match[1 : len(match)-1]
		if val, ok := v.Lookup(name); ok {
			return val
		}
		if val, ok := r.Lookup(name); ok {
			return val
		}
		return match
	})
}

// usedTemplates tracks the templates drawn during a single assembly call
type usedTemplates map[string]struct{}

func (u usedTemplates) has(tpl string) bool {
	_, ok := u[tpl]
	return ok
}

func (u usedTemplates) mark(tpl string) {
	u[tpl] = struct{}{}
}

// unused filters a bucket down to the templates not yet drawn, keeping order
func (u usedTemplates) unused(bucket []string) []string {
	out := make([]string, 0, len(bucket))
	for _, tpl := range bucket {
		if !u.has(tpl) {
			out = append(out, tpl)
		}
	}
	return out
}
