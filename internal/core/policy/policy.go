// Package policy holds the declarative access table consulted after the
// request's identity has been resolved. The table is data: rules can be
// tightened per role from a YAML file without touching token handling.
package policy

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

// Access is the requirement a rule places on the caller.
type Access string

const (
	AccessPublic        Access = "public"
	AccessAuthenticated Access = "authenticated"
	AccessRoles         Access = "roles"
)

// Decision is the outcome of evaluating a request against the table.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Rule maps a route pattern to an access requirement. Pattern is a glob with
// "/" as separator: "*" matches one segment, "**" any number of segments.
// An empty Methods list matches every method.
type Rule struct {
	Pattern string        `yaml:"pattern"`
	Methods []string      `yaml:"methods,omitempty"`
	Access  Access        `yaml:"access"`
	Roles   []domain.Role `yaml:"roles,omitempty"`
}

type compiledRule struct {
	Rule
	matcher glob.Glob
	methods map[string]struct{}
	roles   map[domain.Role]struct{}
}

// Policy is an ordered rule table. The first matching rule wins; requests
// matching no rule get the fallback access.
type Policy struct {
	rules    []compiledRule
	fallback Access
}

// New compiles rules into a Policy.
func New(rules []Rule, fallback Access) (*Policy, error) {
	if fallback == "" {
		fallback = AccessPublic
	}
	if fallback != AccessPublic && fallback != AccessAuthenticated {
		return nil, fmt.Errorf("policy: fallback must be %q or %q, got %q", AccessPublic, AccessAuthenticated, fallback)
	}

	p := &Policy{fallback: fallback, rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		cr, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("policy: rule %d (%s): %w", i, r.Pattern, err)
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

func compile(r Rule) (compiledRule, error) {
	if !strings.HasPrefix(r.Pattern, "/") {
		return compiledRule{}, fmt.Errorf("pattern must start with /")
	}
	g, err := glob.Compile(r.Pattern, '/')
	if err != nil {
		return compiledRule{}, fmt.Errorf("compile pattern: %w", err)
	}

	cr := compiledRule{Rule: r, matcher: g}
	if len(r.Methods) > 0 {
		cr.methods = make(map[string]struct{}, len(r.Methods))
		for _, m := range r.Methods {
			cr.methods[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
		}
	}

	switch r.Access {
	case AccessPublic, AccessAuthenticated:
		if len(r.Roles) > 0 {
			return compiledRule{}, fmt.Errorf("roles are only valid with access %q", AccessRoles)
		}
	case AccessRoles:
		if len(r.Roles) == 0 {
			return compiledRule{}, fmt.Errorf("access %q needs at least one role", AccessRoles)
		}
		cr.roles = make(map[domain.Role]struct{}, len(r.Roles))
		for _, role := range r.Roles {
			if !role.Valid() {
				return compiledRule{}, fmt.Errorf("unknown role %q", role)
			}
			cr.roles[role] = struct{}{}
		}
	default:
		return compiledRule{}, fmt.Errorf("unknown access %q", r.Access)
	}
	return cr, nil
}

// Decide evaluates method and path for principal, which is nil for an
// unauthenticated request.
func (p *Policy) Decide(method, path string, principal *domain.Principal) Decision {
	access, roles := p.requirement(strings.ToUpper(method), path)

	switch access {
	case AccessPublic:
		return Allow
	case AccessAuthenticated:
		if principal == nil {
			return DenyUnauthenticated
		}
		return Allow
	case AccessRoles:
		if principal == nil {
			return DenyUnauthenticated
		}
		if _, ok := roles[principal.Role]; !ok {
			return DenyForbidden
		}
		return Allow
	}
	return DenyUnauthenticated
}

func (p *Policy) requirement(method, path string) (Access, map[domain.Role]struct{}) {
	for _, r := range p.rules {
		if r.methods != nil {
			if _, ok := r.methods[method]; !ok {
				continue
			}
		}
		if r.matcher.Match(path) {
			return r.Access, r.roles
		}
	}
	return p.fallback, nil
}

// Rules returns a copy of the table in evaluation order.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	for i, r := range p.rules {
		out[i] = r.Rule
	}
	return out
}
