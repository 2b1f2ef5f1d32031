// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recommend

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Policy holds the keyword groups used to relate categories.
type Policy struct {
	Groups [][]string `yaml:"groups"`
}

// DefaultPolicy returns the built-in keyword groups.
func DefaultPolicy() *Policy {
	policy, err := ParsePolicy(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("recommend: embedded policy: %v", err))
	}
	return policy
}

// LoadPolicy reads a policy file. An empty path yields [DefaultPolicy].
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recommend: read policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes a YAML policy and lowercases its keywords.
func ParsePolicy(raw []byte) (*Policy, error) {
	policy := &Policy{}
	if err := yaml.Unmarshal(raw, policy); err != nil {
		return nil, fmt.Errorf("recommend: parse policy: %w", err)
	}

	groups := make([][]string, 0, len(policy.Groups))
	for _, group := range policy.Groups {
		keywords := make([]string, 0, len(group))
		for _, keyword := range group {
			if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		if len(keywords) > 0 {
			groups = append(groups, keywords)
		}
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("recommend: policy has no keyword groups")
	}

	policy.Groups = groups
	return policy, nil
}

// Related reports whether both category names match a keyword of one group.
func (policy *Policy) Related(first, second string) bool {
	first, second = strings.ToLower(first), strings.ToLower(second)
	if first == "" || second == "" {
		return false
	}

	for _, group := range policy.Groups {
		if matchesAny(first, group) && matchesAny(second, group) {
			return true
		}
	}
	return false
}

func matchesAny(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
