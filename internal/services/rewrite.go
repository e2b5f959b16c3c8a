package services

import (
	"fmt"
	"regexp"
	"strings"
)

// RewriteRule is one (pattern, replacement) substitution applied once per
// response. Rules are ordered; later rules see the output of earlier ones.
type RewriteRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

type ContentRewriter struct {
	rules []RewriteRule
}

func NewContentRewriter(rules []RewriteRule) *ContentRewriter {
	return &ContentRewriter{rules: rules}
}

func (r *ContentRewriter) Apply(content string) string {
	for _, rule := range r.rules {
		content = rule.Pattern.ReplaceAllString(content, rule.Replacement)
	}
	return content
}

// DefaultRewriteRules points the three known upstream API domains at the
// internal callback base, sinks the analytics endpoints and strips
// document.write calls. assetBase hosts the local analytics replacement,
// parameterized with gameID.
func DefaultRewriteRules(callbackBase, assetBase, gameID string) []RewriteRule {
	apiDomains := []string{
		`https://bgaming-network\.com/api`,
		`https://bgaming-network-mga\.com/api`,
		`https://demo\.bgaming-network\.com/api`,
	}

	var rules []RewriteRule
	for _, domain := range apiDomains {
		// With a trailing separator first so the bare-domain rule cannot eat
		// the slash.
		rules = append(rules, RewriteRule{
			Pattern:     regexp.MustCompile(domain + `/`),
			Replacement: callbackBase + "/",
		})
		rules = append(rules, RewriteRule{
			Pattern:     regexp.MustCompile(domain + `"`),
			Replacement: callbackBase + `"`,
		})
	}

	rules = append(rules,
		RewriteRule{Pattern: regexp.MustCompile(`sentry\.softswiss\.net`), Replacement: "bog.asia"},
		RewriteRule{Pattern: regexp.MustCompile(`googletagmanager\.com`), Replacement: "bog.asia"},
		RewriteRule{Pattern: regexp.MustCompile(`UA-98852510-1`), Replacement: " "},
		RewriteRule{
			Pattern:     regexp.MustCompile(`https://boost\.bgaming-network\.com/analytics\.js`),
			Replacement: fmt.Sprintf("%s/api/bgaming/asset/custom.js?game=%s", assetBase, gameID),
		},
		RewriteRule{Pattern: regexp.MustCompile(`document\.write`), Replacement: " "},
	)

	return rules
}

// InjectAfterBody places markup right after the opening body tag.
func InjectAfterBody(content, injected string) string {
	return strings.Replace(content, "<body>", "<body>"+injected, 1)
}
