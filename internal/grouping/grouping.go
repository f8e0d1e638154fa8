// Package grouping partitions operations into named groups while preserving
// within-group order.
package grouping

import (
	"fmt"
	"strings"

	"github.com/loadscribe/loadscribe/internal/models"
)

// Strategy selects how operations are partitioned into thread groups.
type Strategy string

const (
	ByTag              Strategy = "by-tag"
	ByFirstPathSegment Strategy = "by-first-path-segment"
	ByAIPattern        Strategy = "by-ai-pattern"
	SingleDefaultGroup Strategy = "single-default-group"
)

// DefaultGroupName is the synthesized group for operations that match nothing.
const DefaultGroupName = "Default"

// Strategies lists the accepted strategy names for CLI/API validation.
func Strategies() []string {
	return []string{
		string(ByTag),
		string(ByFirstPathSegment),
		string(ByAIPattern),
		string(SingleDefaultGroup),
	}
}

// ParseStrategy validates a strategy name, defaulting to
// single-default-group when empty.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return SingleDefaultGroup, nil
	}
	for _, s := range Strategies() {
		if name == s {
			return Strategy(name), nil
		}
	}
	return "", fmt.Errorf("unknown grouping strategy %q (expected one of %s)",
		name, strings.Join(Strategies(), ", "))
}

// Group partitions operations by the given strategy. Group order follows
// first occurrence of each key; operations keep their original order within
// a group. Output is identical on every run for identical input.
func Group(ops []models.Operation, strategy Strategy, insight *models.AIInsight) []models.OperationGroup {
	switch strategy {
	case ByTag:
		return groupByKey(ops, func(op models.Operation) string {
			if len(op.Tags) > 0 && op.Tags[0] != "" {
				return op.Tags[0]
			}
			return DefaultGroupName
		})
	case ByFirstPathSegment:
		return groupByKey(ops, func(op models.Operation) string {
			return op.FirstPathSegment()
		})
	case ByAIPattern:
		return groupByPattern(ops, insight)
	default:
		return groupByKey(ops, func(models.Operation) string {
			return DefaultGroupName
		})
	}
}

func groupByKey(ops []models.Operation, keyOf func(models.Operation) string) []models.OperationGroup {
	var groups []models.OperationGroup
	index := map[string]int{}
	for _, op := range ops {
		key := keyOf(op)
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.OperationGroup{Name: key})
		}
		groups[i].Operations = append(groups[i].Operations, op)
	}
	return groups
}

// groupByPattern tests each operation against the recommended groups in the
// order the AI returned them; first match wins. Unmatched operations fall
// into a synthesized Default group appended last.
func groupByPattern(ops []models.Operation, insight *models.AIInsight) []models.OperationGroup {
	if insight == nil || len(insight.Groups) == 0 {
		return groupByKey(ops, func(models.Operation) string { return DefaultGroupName })
	}

	matched := make([][]models.Operation, len(insight.Groups))
	var unmatched []models.Operation

	for _, op := range ops {
		placed := false
		for i, rec := range insight.Groups {
			if matchesGroup(op, rec) {
				matched[i] = append(matched[i], op)
				placed = true
				break
			}
		}
		if !placed {
			unmatched = append(unmatched, op)
		}
	}

	var groups []models.OperationGroup
	for i, rec := range insight.Groups {
		if len(matched[i]) > 0 {
			groups = append(groups, models.OperationGroup{Name: rec.Name, Operations: matched[i]})
		}
	}
	if len(unmatched) > 0 {
		groups = append(groups, models.OperationGroup{Name: DefaultGroupName, Operations: unmatched})
	}
	return groups
}

func matchesGroup(op models.Operation, rec models.RecommendedGroup) bool {
	target := op.Host + op.Path
	if rec.Pattern != "" && (strings.Contains(target, rec.Pattern) || strings.Contains(op.Path, rec.Pattern)) {
		return true
	}
	for _, p := range rec.Paths {
		if p != "" && (op.Path == p || strings.Contains(op.Path, p)) {
			return true
		}
	}
	return false
}
