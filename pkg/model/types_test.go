package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthor(t *testing.T) {
	a := Author{Name: "Ada", Email: "ada@example.com"}
	assert.Equal(t, "Ada <ada@example.com>", a.String())
	assert.Equal(t, a, ParseAuthor(a.String()))

	assert.Equal(t, "Ada", Author{Name: "Ada"}.String())
	assert.Equal(t, "ada@example.com", Author{Email: "ada@example.com"}.String())
	assert.Equal(t, Author{Name: "Ada"}, ParseAuthor("Ada"))
}

func TestParseTechnique(t *testing.T) {
	tech, err := ParseTechnique("Hash")
	require.NoError(t, err)
	assert.Equal(t, TechniqueHash, tech)

	tech, err = ParseTechnique("")
	require.NoError(t, err)
	assert.Equal(t, TechniqueSmart, tech)

	_, err = ParseTechnique("fuzzy")
	require.Error(t, err)
}

func TestParsePushStrategy(t *testing.T) {
	strategy, err := ParsePushStrategy("LAST")
	require.NoError(t, err)
	assert.Equal(t, PushLast, strategy)

	strategy, err = ParsePushStrategy("")
	require.NoError(t, err)
	assert.Equal(t, PushSmart, strategy)

	_, err = ParsePushStrategy("some")
	require.Error(t, err)
}

func TestTreeJSON(t *testing.T) {
	tree := Tree{"y": Tree{"q": 2}, "x": 1}
	s, err := tree.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":{"q":2}}`, s)

	back, err := ParseTree(s)
	require.NoError(t, err)
	assert.Equal(t, float64(1), back["x"])

	empty, err := ParseTree("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseTree("[")
	require.Error(t, err)
}

func TestSnapshotString(t *testing.T) {
	assert.Equal(t, "a.md@main/10", Snapshot{Path: "a.md", Branch: "main", Epoch: 10}.String())
}
