package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Rule identifies one password requirement.
type Rule string

const (
	RuleMinLength     Rule = "minLength"
	RuleUppercase     Rule = "uppercase"
	RuleLowercase     Rule = "lowercase"
	RuleDigit         Rule = "digit"
	RuleSpecial       Rule = "special"
	RuleForbiddenWord Rule = "forbiddenWord"
	RuleRepeated      Rule = "repeated"
	RuleSequential    Rule = "sequential"
)

// Rules lists every rule in display order.
var Rules = []Rule{
	RuleMinLength,
	RuleUppercase,
	RuleLowercase,
	RuleDigit,
	RuleSpecial,
	RuleForbiddenWord,
	RuleRepeated,
	RuleSequential,
}

const (
	defaultMinLength = 8
	defaultRunLength = 3
)

// DefaultForbiddenWords are rejected case-insensitively anywhere in a
// password.
var DefaultForbiddenWords = []string{"scb"}

var (
	// ErrPolicy is wrapped by every Violation.
	ErrPolicy = errors.New("password policy violation")
	// ErrInvalidConfig is returned by NewPolicy for unusable settings.
	ErrInvalidConfig = errors.New("invalid password policy config")
)

// Config tunes a Policy. Zero values select the defaults.
type Config struct {
	MinLength      int
	ForbiddenWords []string
	// RunLength is the shortest run of identical or sequential characters
	// that is rejected.
	RunLength int
}

// Policy validates passwords against a fixed rule set.
type Policy struct {
	minLength int
	forbidden []string
	runLength int
}

// RuleStatus is the result of one rule.
type RuleStatus struct {
	Rule   Rule
	Passed bool
}

// Violation lists the rules a password failed.
type Violation struct {
	Failed []Rule
}

func (v *Violation) Error() string {
	parts := make([]string, len(v.Failed))
	for i, r := range v.Failed {
		parts[i] = string(r)
	}
	return fmt.Sprintf("%s: %s", ErrPolicy, strings.Join(parts, ", "))
}

func (v *Violation) Unwrap() error {
	return ErrPolicy
}

// NewPolicy returns a Policy for cfg.
func NewPolicy(cfg Config) (*Policy, error) {
	if cfg.MinLength < 0 || cfg.RunLength < 0 || cfg.RunLength == 1 {
		return nil, fmt.Errorf("%w: min length %d, run length %d", ErrInvalidConfig, cfg.MinLength, cfg.RunLength)
	}
	p := &Policy{
		minLength: cfg.MinLength,
		runLength: cfg.RunLength,
	}
	if p.minLength == 0 {
		p.minLength = defaultMinLength
	}
	if p.runLength == 0 {
		p.runLength = defaultRunLength
	}

	words := cfg.ForbiddenWords
	if words == nil {
		words = DefaultForbiddenWords
	}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			p.forbidden = append(p.forbidden, w)
		}
	}
	return p, nil
}

// Default returns the policy used by the e-banking portal.
func Default() *Policy {
	p, _ := NewPolicy(Config{})
	return p
}

// Check evaluates every rule in display order.
func (p *Policy) Check(password string) []RuleStatus {
	runes := []rune(password)
	out := make([]RuleStatus, 0, len(Rules))
	for _, rule := range Rules {
		out = append(out, RuleStatus{Rule: rule, Passed: p.passes(rule, runes)})
	}
	return out
}

// Validate returns a *Violation listing the failed rules, or nil.
func (p *Policy) Validate(password string) error {
	var failed []Rule
	for _, st := range p.Check(password) {
		if !st.Passed {
			failed = append(failed, st.Rule)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &Violation{Failed: failed}
}

func (p *Policy) passes(rule Rule, runes []rune) bool {
	switch rule {
	case RuleMinLength:
		return len(runes) >= p.minLength
	case RuleUppercase:
		return containsFunc(runes, unicode.IsUpper)
	case RuleLowercase:
		return containsFunc(runes, unicode.IsLower)
	case RuleDigit:
		return containsFunc(runes, unicode.IsDigit)
	case RuleSpecial:
		return containsFunc(runes, isSpecial)
	case RuleForbiddenWord:
		lower := strings.ToLower(string(runes))
		for _, w := range p.forbidden {
			if strings.Contains(lower, w) {
				return false
			}
		}
		return true
	case RuleRepeated:
		return !hasRun(runes, p.runLength, 0)
	case RuleSequential:
		return !hasRun(runes, p.runLength, 1) && !hasRun(runes, p.runLength, -1)
	default:
		return false
	}
}

func containsFunc(runes []rune, fn func(rune) bool) bool {
	for _, r := range runes {
		if fn(r) {
			return true
		}
	}
	return false
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

// hasRun reports whether runes contains n consecutive letters or digits
// each differing from the previous one by step, ignoring letter case.
func hasRun(runes []rune, n int, step rune) bool {
	count := 1
	for i := 1; i < len(runes); i++ {
		prev, cur := unicode.ToLower(runes[i-1]), unicode.ToLower(runes[i])
		sameClass := (unicode.IsLetter(prev) && unicode.IsLetter(cur)) ||
			(unicode.IsDigit(prev) && unicode.IsDigit(cur))
		if cur-prev == step && (step == 0 || sameClass) {
			count++
			if count >= n {
				return true
			}
			continue
		}
		count = 1
	}
	return false
}

// Mismatch reports whether confirm visibly disagrees with password. An
// empty field, or a confirmation still shorter than the password, is not a
// mismatch yet.
func Mismatch(password, confirm string) bool {
	if password == "" || confirm == "" {
		return false
	}
	if len(confirm) < len(password) {
		return false
	}
	return password != confirm
}
