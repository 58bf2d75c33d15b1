package taskforce

import (
	"strings"
	"unicode"
)

// RoleCoordinator is always the first member of any task force.
const RoleCoordinator = "coordinator"

// roleRule maps a set of trigger keywords to a role. Rules are evaluated in
// order against the word-bounded description, so role selection is
// deterministic and independent of keyword overlap.
type roleRule struct {
	keywords []string
	role     string
}

var roleRules = []roleRule{
	{[]string{"security", "audit", "vulnerability", "penetration"}, "security_analyst"},
	{[]string{"database", "schema", "migration", "query"}, "database_engineer"},
	{[]string{"test", "testing", "qa", "verification"}, "test_engineer"},
	{[]string{"research", "investigate", "analyze", "explore"}, "researcher"},
	{[]string{"design", "architecture", "architect"}, "architect"},
	{[]string{"implement", "build", "develop", "code", "refactor"}, "developer"},
	{[]string{"document", "documentation", "docs"}, "technical_writer"},
}

// MatchRoles selects the roles required for a task description. The
// coordinator role is always first; the remaining roles follow the rule
// table order. Matching is word-bounded, not substring-based.
func MatchRoles(description string) []string {
	words := roleWords(description)

	roles := []string{RoleCoordinator}
	for _, rule := range roleRules {
		for _, kw := range rule.keywords {
			if words[kw] {
				roles = append(roles, rule.role)
				break
			}
		}
	}
	return roles
}

func roleWords(description string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
