package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

const sampleRequests = `
- type: insertStyle
  afterId: -1
  style:
    role: FORMULA
    type: EXPR
    data: "x + x"
- type: insertStyle
  afterId: -1
  style:
    role: TEXT
    type: TEXT
    data: "notes"
    children:
      - role: COMMENT
        type: TEXT
        data: "draft"
`

func TestParseRequests(t *testing.T) {
	requests, err := parseRequests([]byte(sampleRequests))

	require.NoError(t, err)
	require.Len(t, requests, 2)

	first, ok := requests[0].(domain.InsertStyle)
	require.True(t, ok)
	assert.Equal(t, domain.PositionBottom, first.AfterID)
	assert.Equal(t, domain.TextPayload("x + x"), first.Props.Data)

	second, ok := requests[1].(domain.InsertStyle)
	require.True(t, ok)
	require.Len(t, second.Props.Children, 1)
	assert.Equal(t, domain.StyleRole("COMMENT"), second.Props.Children[0].Role)
}

func TestParseRequests_AllTypes(t *testing.T) {
	raw := `
- type: changeStyle
  styleId: 3
  styleType: EXPR
  data: "y"
- type: convertStyle
  styleId: 3
  role: TEXT
- type: moveStyle
  styleId: 3
  afterId: 0
- type: deleteStyle
  styleId: 3
- type: insertRelationship
  fromId: 1
  toId: 2
  relationRole: DEPENDENCY
- type: deleteRelationship
  relationshipId: 9
`
	requests, err := parseRequests([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, []domain.ChangeRequest{
		domain.ChangeStyle{StyleID: 3, Data: domain.TextPayload("y")},
		domain.ConvertStyle{StyleID: 3, Role: domain.RoleText},
		domain.MoveStyle{StyleID: 3, AfterID: domain.PositionTop},
		domain.DeleteStyle{StyleID: 3},
		domain.InsertRelationship{FromID: 1, ToID: 2, Props: domain.RelationshipProps{Role: domain.RelationshipDependency}},
		domain.DeleteRelationship{ID: 9},
	}, requests)
}

func TestParseRequests_Errors(t *testing.T) {
	tests := map[string]string{
		"not a list":    "type: insertStyle",
		"unknown type":  "- type: frobnicate",
		"missing style": "- type: insertStyle",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseRequests([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestApplyCmd_RequiresFile(t *testing.T) {
	cleanup := setupMockServices(&mockNotebookService{})
	defer cleanup()

	_, err := executeCommand("apply", "nb")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "file" not set`)
}

func TestApplyCmd_AppliesBatch(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	newTestNotebook(t, "algebra")

	path := filepath.Join(t.TempDir(), "requests.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRequests), 0o600))

	out, err := executeCommand("apply", "algebra", "-f", path)

	require.NoError(t, err)
	assert.Contains(t, out, `"x + x"`)
	assert.Contains(t, out, `"draft"`)
	assert.Contains(t, out, `"2x"`)

	out, err = executeCommand("notebook", "show", "algebra")
	require.NoError(t, err)
	assert.Contains(t, out, "COMMENT TEXT [USER]")
}

func TestApplyCmd_EmptyFile(t *testing.T) {
	m := &mockNotebookService{}
	cleanup := setupMockServices(m)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0o600))

	out, err := executeCommand("apply", "nb", "--file", path)

	require.NoError(t, err)
	assert.Contains(t, out, "No requests in file.")
	assert.Empty(t, m.requests)
}

func TestApplyCmd_MissingFile(t *testing.T) {
	cleanup := setupMockServices(&mockNotebookService{})
	defer cleanup()

	_, err := executeCommand("apply", "nb", "-f", filepath.Join(t.TempDir(), "none.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read request file")
}
