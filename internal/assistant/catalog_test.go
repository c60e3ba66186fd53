package assistant

import (
	"testing"

	"hrmserver/internal/leaves"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIntegrity(t *testing.T) {
	catalog := DefaultCatalog()
	tools := catalog.Tools()
	require.Len(t, tools, 9)

	seen := map[string]bool{}
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.Parameters.Type)
		assert.False(t, seen[tool.Name], "tool names must be unique")
		seen[tool.Name] = true

		for _, required := range tool.Parameters.Required {
			_, ok := tool.Parameters.Properties[required]
			assert.True(t, ok, "required parameter %q of %s must be declared", required, tool.Name)
		}

		found, ok := catalog.Lookup(tool.Name)
		require.True(t, ok)
		assert.Equal(t, tool.Name, found.Name)
	}

	_, ok := catalog.Lookup("doesNotExist")
	assert.False(t, ok)
}

func TestCatalogEnumsTrackDomainConstants(t *testing.T) {
	assert.Equal(t, leaves.LeaveTypes(), ApplyLeaveTool.Parameters.Properties["leave_type"].Enum)
	assert.Equal(t, leaves.Statuses(), GetLeaveHistoryTool.Parameters.Properties["status"].Enum)
}

func TestBuildHandlersCoversCatalog(t *testing.T) {
	handlers := BuildHandlers(Collaborators{})
	for _, tool := range DefaultCatalog().Tools() {
		_, ok := handlers[tool.Name]
		assert.True(t, ok, "tool %s has no registered handler", tool.Name)
	}
	assert.Len(t, handlers, len(DefaultCatalog().Tools()))
}
