package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate_NoMarkers(t *testing.T) {
	out, err := RenderTemplate("plain prompt, no templating", map[string]any{"unused": 1})
	require.NoError(t, err)
	assert.Equal(t, "plain prompt, no templating", out)
}

func TestRenderTemplate_Substitution(t *testing.T) {
	out, err := RenderTemplate("You are {{.persona}}.", map[string]any{"persona": "a pirate"})
	require.NoError(t, err)
	assert.Equal(t, "You are a pirate.", out)
}

func TestRenderTemplate_Helpers(t *testing.T) {
	state := map[string]any{"name": "berlin"}

	out, err := RenderTemplate("City: {{upper .name}}", state)
	require.NoError(t, err)
	assert.Equal(t, "City: BERLIN", out)

	out, err = RenderTemplate("Hello {{.missing | default \"friend\"}}", state)
	require.NoError(t, err)
	assert.Equal(t, "Hello friend", out)
}

func TestRenderTemplate_NoHTMLEscaping(t *testing.T) {
	// Prompts are plain text; characters like & and ' must pass through.
	out, err := RenderTemplate("{{.q}}", map[string]any{"q": "isn't A & B <enough>?"})
	require.NoError(t, err)
	assert.Equal(t, "isn't A & B <enough>?", out)
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("broken {{.persona", nil)
	require.Error(t, err)
}
