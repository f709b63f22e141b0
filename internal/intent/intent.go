// Package intent scans free-text customer instructions for known directive
// patterns. The result is an auxiliary signal for prompting; the model
// pricing pass always still runs.
package intent

import (
	"regexp"
	"strings"

	"github.com/sells-group/quoteflow/internal/model"
)

// rule is one fixed pattern with the directive it implies. Rules run in
// order against the lower-cased text.
type rule struct {
	name   string
	re     *regexp.Regexp
	action string
	target string
	change string
}

var rules = []rule{
	{
		name:   "add_node",
		re:     regexp.MustCompile(`add (?:a |an )?([a-z ]+?) node`),
		action: "add",
		target: "workflow",
		change: "new_node",
	},
	{
		name:   "modify_timeout",
		re:     regexp.MustCompile(`(?:modify|change|increase|set) (?:the )?timeout(?: to ([0-9]+ ?(?:s|ms|sec|seconds|minutes)?))?`),
		action: "modify",
		target: "timeout",
		change: "timeout_value",
	},
	{
		name:   "make_async",
		re:     regexp.MustCompile(`make (?:it |this )?async(?:hronous)?`),
		action: "modify",
		target: "execution",
		change: "async",
	},
	{
		name:   "add_retry",
		re:     regexp.MustCompile(`(?:add|enable) (?:a |automatic )?retr(?:y|ies)`),
		action: "modify",
		target: "reliability",
		change: "retry",
	},
	{
		name:   "urgent",
		re:     regexp.MustCompile(`urgent|asap|as soon as possible|rush`),
		action: "flag",
		target: "priority",
		change: "urgent",
	},
	{
		name:   "increase_reliability",
		re:     regexp.MustCompile(`(?:increase|improve) reliability`),
		action: "modify",
		target: "reliability",
		change: "hardening",
	},
	{
		name:   "add_attachment_support",
		re:     regexp.MustCompile(`(?:add|support|handle) attachments?(?: support)?`),
		action: "add",
		target: "attachments",
		change: "attachment_support",
	},
	{
		name:   "cost_optimization",
		re:     regexp.MustCompile(`(?:reduce|lower|optimi[sz]e) (?:the )?costs?|cost optimi[sz]ation`),
		action: "optimize",
		target: "cost",
		change: "reduce",
	},
	{
		name:   "improve_performance",
		re:     regexp.MustCompile(`(?:improve|increase|better) performance|make (?:it |this )?faster`),
		action: "optimize",
		target: "performance",
		change: "improve",
	},
}

// Parse runs the fixed pattern rules against customer text. Empty input
// returns an empty result; NeedsLLM is always true.
func Parse(customerText string) model.ParsedIntent {
	out := model.ParsedIntent{NeedsLLM: true}

	text := strings.ToLower(strings.TrimSpace(customerText))
	if text == "" {
		return out
	}

	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		out.DetectedPatterns = append(out.DetectedPatterns, model.DetectedPattern{
			Pattern:     r.name,
			Confidence:  confidence(len(m[0]), len(text)),
			MatchedText: m[0],
		})

		directive := model.ParsedDirective{
			Action: r.action,
			Target: r.target,
			Change: r.change,
		}
		for _, group := range m[1:] {
			if group != "" {
				directive.Details = append(directive.Details, group)
			}
		}
		out.ParsedDirectives = append(out.ParsedDirectives, directive)
	}

	return out
}

// confidence scores a match by how much of the text it covers:
// min(1.0, 0.7 + matched/total * 0.3).
func confidence(matchedLen, totalLen int) float64 {
	if totalLen == 0 {
		return 0.7
	}
	c := 0.7 + float64(matchedLen)/float64(totalLen)*0.3
	if c > 1.0 {
		c = 1.0
	}
	return c
}
