package feature

import (
	"strings"
)

// Rule derives Targets for one dataset from the first non-empty value found
// under Keys, tried in order.
type Rule struct {
	Dataset string
	Keys    []string
	Targets []string
}

// DefaultRules returns the built-in enrichment for the workshop locations layer.
func DefaultRules() []Rule {
	return []Rule{{
		Dataset: "Locais_oficina",
		Keys:    []string{"nome", "NOME", "Nome"},
		Targets: DefaultTargets(),
	}}
}

// DefaultTargets are the label fields read by KML viewers.
func DefaultTargets() []string {
	return []string{"name", "description"}
}

// Enricher applies per-dataset rules to attribute records.
type Enricher struct {
	rules map[string]Rule
}

// NewEnricher indexes rules by dataset name. An empty rule set disables
// enrichment; pass DefaultRules for the built-in behaviour.
func NewEnricher(rules []Rule) *Enricher {
	e := &Enricher{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		if len(r.Targets) == 0 {
			r.Targets = DefaultTargets()
		}
		e.rules[r.Dataset] = r
	}
	return e
}

// Enrich returns attrs with the dataset's targets filled in. Records of
// datasets without a rule are returned as is; attrs itself is never modified.
func (e *Enricher) Enrich(dataset string, attrs Attributes) Attributes {
	rule, ok := e.rules[dataset]
	if !ok {
		return attrs
	}

	label, ok := firstValue(attrs, rule.Keys)
	if !ok {
		return attrs
	}

	out := attrs.Clone()
	for _, target := range rule.Targets {
		if _, ok := firstValue(out, []string{target}); ok {
			continue
		}
		out.Set(target, label)
	}
	return out
}

// firstValue returns the first candidate that holds a label. Blank strings,
// false and zero numbers do not count.
func firstValue(attrs Attributes, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := attrs.Get(k)
		if ok && isLabel(v) {
			return v, true
		}
	}
	return nil, false
}

func isLabel(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}
