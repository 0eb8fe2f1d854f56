package tools

import "strings"

// Classifier selects the tool kind for a free-text request. Classify must
// be total: every input, including the empty string, maps to a kind.
type Classifier interface {
	Classify(text string) ToolKind
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(text string) ToolKind

// Classify calls f(text).
func (f ClassifierFunc) Classify(text string) ToolKind {
	return f(text)
}

// KeywordRule selects Kind when the text contains any of Keywords.
type KeywordRule struct {
	Kind     ToolKind
	Keywords []string
}

// KeywordClassifier matches case-insensitive substrings. Rules are tried in
// order; the first rule with a matching keyword wins. Text matching no rule
// is classified as ToolKindNone.
type KeywordClassifier struct {
	rules []KeywordRule
}

// NewKeywordClassifier creates a classifier from rules. Keywords are
// lowercased once here; empty keywords are ignored.
func NewKeywordClassifier(rules []KeywordRule) *KeywordClassifier {
	c := &KeywordClassifier{}
	for _, r := range rules {
		var kws []string
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) > 0 {
			c.rules = append(c.rules, KeywordRule{Kind: r.Kind, Keywords: kws})
		}
	}
	return c
}

// DefaultSQLKeywords are the substrings that route a request to the sales
// query tool. "vendemos" covers the first person plural ("quanto vendemos"),
// which does not contain "vendas".
var DefaultSQLKeywords = []string{"vendas", "vendemos", "sql"}

// DefaultClassifier routes requests mentioning sales or SQL to ToolKindSQL
// and everything else to ToolKindNone.
func DefaultClassifier() *KeywordClassifier {
	return NewKeywordClassifier([]KeywordRule{
		{Kind: ToolKindSQL, Keywords: DefaultSQLKeywords},
	})
}

// Classify returns the kind of the first matching rule, or ToolKindNone.
func (c *KeywordClassifier) Classify(text string) ToolKind {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Kind
			}
		}
	}
	return ToolKindNone
}
