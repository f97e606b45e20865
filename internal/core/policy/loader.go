package policy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type document struct {
	Default Access `yaml:"default"`
	Rules   []Rule `yaml:"rules"`
}

// Parse builds a Policy from a YAML document:
//
//	default: public
//	rules:
//	  - pattern: /api/admin/**
//	    access: roles
//	    roles: [ADMIN, HOD]
func Parse(data []byte) (*Policy, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("policy: decode: %w", err)
	}
	return New(doc.Rules, doc.Default)
}

// Load reads and parses the policy file at path.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default is the table the portal ships with: preflight requests, the auth
// endpoints and the operational routes are public, the current-user route
// needs a valid access token, and everything else is open.
func Default() *Policy {
	p, err := New([]Rule{
		{Pattern: "/**", Methods: []string{"OPTIONS"}, Access: AccessPublic},
		{Pattern: "/api/auth/me", Access: AccessAuthenticated},
		{Pattern: "/api/auth/**", Access: AccessPublic},
		{Pattern: "/", Access: AccessPublic},
		{Pattern: "/error", Access: AccessPublic},
		{Pattern: "/health", Access: AccessPublic},
		{Pattern: "/health/**", Access: AccessPublic},
		{Pattern: "/metrics", Access: AccessPublic},
		{Pattern: "/swagger/**", Access: AccessPublic},
		{Pattern: "/api/**", Access: AccessPublic},
	}, AccessPublic)
	if err != nil {
		panic(err)
	}
	return p
}
