package utils

import (
	"regexp"
)

var placeholderRe = regexp.MustCompile(`{{\s*(\w+)\s*}}`)

// ReplaceVariables substitutes every {{variable}} token whose key is present
// in variables. The template is scanned exactly once, so tokens inside
// substituted values stay literal. Keys are matched case-sensitively; tokens
// with no entry in the map are left untouched, so rendering with an empty map
// is the identity.
func ReplaceVariables(input string, variables map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(input, func(token string) string {
		name := placeholderRe.FindStringSubmatch(token)[1]
		if value, ok := variables[name]; ok {
			return value
		}
		return token
	})
}

// ParseVariables lists the distinct placeholder names found in a template
// string, in order of first appearance.
func ParseVariables(input string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, match := range placeholderRe.FindAllStringSubmatch(input, -1) {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		names = append(names, match[1])
	}
	return names
}
