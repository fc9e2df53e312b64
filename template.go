package promptreg

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// placeholderPattern matches {{ name }} tokens; whitespace inside the braces is allowed.
// Names found by Placeholders are runs without whitespace or braces.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Apply substitutes every {{ key }} occurrence for each key in values.
// Keys are matched literally, so they may contain spaces or regex metacharacters.
// Placeholders without a value are left untouched and substituted text is not rescanned.
func Apply(content string, values map[string]string) string {
	if len(values) == 0 || !strings.Contains(content, "{{") {
		return content
	}
	re := keyPattern(values)
	if re == nil {
		return content
	}
	return re.ReplaceAllStringFunc(content, func(token string) string {
		return values[re.FindStringSubmatch(token)[1]]
	})
}

// keyPattern builds one alternation over the quoted keys, longest first so a key
// never loses to a shorter key it starts with. Empty keys are skipped.
func keyPattern(values map[string]string) *regexp.Regexp {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	for i, k := range keys {
		keys[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\{\{\s*(` + strings.Join(keys, "|") + `)\s*\}\}`)
}

// Placeholders returns the placeholder names referenced by content in first-seen order.
func Placeholders(content string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Render checks that every required variable has a value and applies the template.
// Returns a VariableError wrapping ErrMissingVariable for the first missing variable in name order.
func (p *Prompt) Render(values map[string]string) (string, error) {
	for _, name := range p.RequiredVariables() {
		if _, ok := values[name]; !ok {
			return "", &VariableError{Variable: name, Prompt: p.ID, Err: ErrMissingVariable}
		}
	}
	return Apply(p.Content, values), nil
}
