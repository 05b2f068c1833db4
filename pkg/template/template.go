// Package template renders connector message content against the workflow it belongs to.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dukex/fuzzie/pkg/models"
)

func parse(content string) (*template.Template, error) {
	tmpl, err := template.
		New("content").
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl, nil
}

// Validate reports whether content parses as a template.
func Validate(content string) error {
	_, err := parse(content)

	return err
}

// Data is what content templates can reference, e.g. {{ .Workflow.Name }}.
type Data struct {
	Workflow *models.Workflow
	Service  models.ServiceType
	Channels []string
}

// Render executes content against data. Content without actions is returned unchanged.
func Render(content string, data Data) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}

	tmpl, err := parse(content)
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
