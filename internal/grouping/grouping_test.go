package grouping

import (
	"testing"

	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOps() []models.Operation {
	return []models.Operation{
		{Name: "listUsers", Method: "GET", Path: "/users", Tags: []string{"accounts"}, SequenceIndex: 0},
		{Name: "createOrder", Method: "POST", Path: "/orders", Tags: []string{"commerce"}, SequenceIndex: 1},
		{Name: "getUser", Method: "GET", Path: "/users/42", Tags: []string{"accounts"}, SequenceIndex: 2},
		{Name: "getOrder", Method: "GET", Path: "/orders/7", Tags: []string{"commerce"}, SequenceIndex: 3},
		{Name: "ping", Method: "GET", Path: "/health", SequenceIndex: 4},
	}
}

func TestParseStrategy(t *testing.T) {
	t.Run("empty defaults to single group", func(t *testing.T) {
		s, err := ParseStrategy("")
		require.NoError(t, err)
		assert.Equal(t, SingleDefaultGroup, s)
	})

	t.Run("known names round trip", func(t *testing.T) {
		for _, name := range Strategies() {
			s, err := ParseStrategy(name)
			require.NoError(t, err)
			assert.Equal(t, Strategy(name), s)
		}
	})

	t.Run("unknown name rejected", func(t *testing.T) {
		_, err := ParseStrategy("by-moon-phase")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "by-moon-phase")
	})
}

func TestGroupByTag(t *testing.T) {
	groups := Group(testOps(), ByTag, nil)
	require.Len(t, groups, 3)

	assert.Equal(t, "accounts", groups[0].Name)
	assert.Equal(t, "commerce", groups[1].Name)
	assert.Equal(t, DefaultGroupName, groups[2].Name)

	// Operations keep their original order within each group.
	assert.Equal(t, "listUsers", groups[0].Operations[0].Name)
	assert.Equal(t, "getUser", groups[0].Operations[1].Name)
	assert.Equal(t, "createOrder", groups[1].Operations[0].Name)
	assert.Equal(t, "getOrder", groups[1].Operations[1].Name)
}

func TestGroupByFirstPathSegment(t *testing.T) {
	groups := Group(testOps(), ByFirstPathSegment, nil)
	require.Len(t, groups, 3)

	assert.Equal(t, "users", groups[0].Name)
	assert.Equal(t, "orders", groups[1].Name)
	assert.Equal(t, "health", groups[2].Name)
}

func TestGroupSingleDefault(t *testing.T) {
	groups := Group(testOps(), SingleDefaultGroup, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, DefaultGroupName, groups[0].Name)
	assert.Len(t, groups[0].Operations, 5)
}

func TestGroupByAIPattern(t *testing.T) {
	insight := &models.AIInsight{Groups: []models.RecommendedGroup{
		{Name: "User Flow", Pattern: "/users"},
		{Name: "Commerce", Paths: []string{"/orders"}},
	}}

	groups := Group(testOps(), ByAIPattern, insight)
	require.Len(t, groups, 3)

	t.Run("first match wins and order follows the recommendation", func(t *testing.T) {
		assert.Equal(t, "User Flow", groups[0].Name)
		assert.Len(t, groups[0].Operations, 2)
		assert.Equal(t, "Commerce", groups[1].Name)
		assert.Len(t, groups[1].Operations, 2)
	})

	t.Run("unmatched operations land in a trailing default group", func(t *testing.T) {
		assert.Equal(t, DefaultGroupName, groups[2].Name)
		require.Len(t, groups[2].Operations, 1)
		assert.Equal(t, "ping", groups[2].Operations[0].Name)
	})
}

func TestGroupByAIPatternWithoutInsight(t *testing.T) {
	groups := Group(testOps(), ByAIPattern, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, DefaultGroupName, groups[0].Name)
}

func TestGroupDeterministic(t *testing.T) {
	for _, strategy := range []Strategy{ByTag, ByFirstPathSegment, SingleDefaultGroup} {
		first := Group(testOps(), strategy, nil)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Group(testOps(), strategy, nil), "strategy %s", strategy)
		}
	}
}
