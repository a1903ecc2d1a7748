package edge

import (
	"fmt"

	"golang.org/x/text/cases"
)

// DeleteRule is the policy applied to a relationship when the object
// holding it is deleted.
type DeleteRule uint8

// List of delete rules.
const (
	NoAction DeleteRule = iota
	Nullify
	Cascade
	Deny
	endRules
)

// DefaultDeleteRule is applied when a relationship does not name a rule.
const DefaultDeleteRule = Nullify

var (
	ruleNames = [...]string{
		NoAction: "no-action",
		Nullify:  "nullify",
		Cascade:  "cascade",
		Deny:     "deny",
	}
	coreDataRules = [...]string{
		NoAction: "NSNoActionDeleteRule",
		Nullify:  "NSNullifyDeleteRule",
		Cascade:  "NSCascadeDeleteRule",
		Deny:     "NSDenyDeleteRule",
	}
	ruleLookup = func() map[string]DeleteRule {
		fold := cases.Fold()
		m := make(map[string]DeleteRule, 2*len(ruleNames))
		for r := NoAction; r < endRules; r++ {
			m[fold.String(ruleNames[r])] = r
			m[fold.String(coreDataRules[r])] = r
		}
		return m
	}()
)

// ParseDeleteRule returns the rule registered under the given name. Both
// "cascade" and "NSCascadeDeleteRule" spellings are accepted, case-insensitively.
func ParseDeleteRule(s string) (DeleteRule, error) {
	if r, ok := ruleLookup[cases.Fold().String(s)]; ok {
		return r, nil
	}
	return DefaultDeleteRule, fmt.Errorf("edge: unknown delete rule %q", s)
}

// String returns the canonical name of the rule.
func (r DeleteRule) String() string {
	if r.Valid() {
		return ruleNames[r]
	}
	return fmt.Sprintf("DeleteRule(%d)", uint8(r))
}

// CoreDataName returns the CoreData constant name of the rule.
func (r DeleteRule) CoreDataName() string {
	if r.Valid() {
		return coreDataRules[r]
	}
	return ""
}

// Valid reports if r is a known rule.
func (r DeleteRule) Valid() bool { return r < endRules }

// MarshalText implements the encoding.TextMarshaler interface.
func (r DeleteRule) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("edge: invalid delete rule %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (r *DeleteRule) UnmarshalText(text []byte) error {
	v, err := ParseDeleteRule(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
