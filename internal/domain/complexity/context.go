package complexity

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// TaskContext holds the structured hints that may accompany a task
// description. Unknown keys in the raw mapping are ignored.
type TaskContext struct {
	NumSubtasks    int
	RequiredSkills []string // distinct, lowercased, sorted
}

// ParseContext validates and extracts the known keys from a free-form
// context mapping. A nil mapping yields an empty context. Malformed values
// return ErrInvalidContext rather than being silently coerced.
func ParseContext(raw map[string]any) (*TaskContext, error) {
	tc := &TaskContext{}
	if raw == nil {
		return tc, nil
	}

	if v, ok := raw["num_subtasks"]; ok {
		n, err := toNonNegativeInt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: num_subtasks: %v", ErrInvalidContext, err)
		}
		tc.NumSubtasks = n
	}

	if v, ok := raw["required_skills"]; ok {
		skills, err := toSkillList(v)
		if err != nil {
			return nil, fmt.Errorf("%w: required_skills: %v", ErrInvalidContext, err)
		}
		tc.RequiredSkills = skills
	}

	return tc, nil
}

// CacheKey returns a canonical string for this context, suitable for
// memoizing scores. Skills are already sorted by ParseContext.
func (tc *TaskContext) CacheKey() string {
	if tc == nil {
		return "0|"
	}
	return fmt.Sprintf("%d|%s", tc.NumSubtasks, strings.Join(tc.RequiredSkills, ","))
}

// toNonNegativeInt coerces JSON numbers and native ints to a non-negative
// integer. Strings, bools, negatives, and fractional values are rejected.
func toNonNegativeInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, fmt.Errorf("must be non-negative, got %d", n)
		}
		return n, nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("must be non-negative, got %d", n)
		}
		return int(n), nil
	case float64:
		if n < 0 || n != math.Trunc(n) {
			return 0, fmt.Errorf("must be a non-negative integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}

// toSkillList coerces a skill sequence to a distinct, lowercased, sorted
// slice. Non-string entries are rejected; empty entries are dropped.
func toSkillList(v any) ([]string, error) {
	var items []string
	switch list := v.(type) {
	case []string:
		items = list
	case []any:
		for _, it := range list {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("entries must be strings, got %T", it)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("must be a list of strings, got %T", v)
	}

	seen := make(map[string]bool, len(items))
	var skills []string
	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills, nil
}
