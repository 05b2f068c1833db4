package template

import (
	"testing"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_PlainContent(t *testing.T) {
	result, err := Render("deploy finished", Data{})
	require.NoError(t, err)
	assert.Equal(t, "deploy finished", result)
}

func TestRender_WorkflowFields(t *testing.T) {
	data := Data{
		Workflow: &models.Workflow{ID: "wf-1", Name: "Release"},
		Service:  models.ServiceSlack,
		Channels: []string{"C1", "C2"},
	}

	result, err := Render("{{ upper .Workflow.Name }} ran on {{ .Service }} ({{ len .Channels }} channels)", data)
	require.NoError(t, err)
	assert.Equal(t, "RELEASE ran on Slack (2 channels)", result)
}

func TestRender_Now(t *testing.T) {
	result, err := Render("{{ now }}", Data{})
	require.NoError(t, err)
	assert.NotEmpty(t, result)
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("{{ .Workflow.Name ", Data{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("hello {{ .Workflow.Name }}"))
	require.NoError(t, Validate("no actions"))
	require.Error(t, Validate("{{ if }}"))
	require.Error(t, Validate("{{ unknownFunc }}"))
}
