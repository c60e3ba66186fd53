package chatgpt

import (
	"github.com/sashabaranov/go-openai"
)

// Tool is the provider-neutral schema of one callable operation. Parameter
// schemas are declarative data passed verbatim to the provider.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

type ToolParameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

func convertTools(tools []Tool) []openai.Tool {
	var result []openai.Tool

	for _, t := range tools {
		params := map[string]interface{}{
			"type":       t.Parameters.Type,
			"properties": convertProperties(t.Parameters.Properties),
		}
		if len(t.Parameters.Required) > 0 {
			params["required"] = t.Parameters.Required
		} else {
			params["required"] = []string{}
		}

		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}

	return result
}

func convertProperties(properties map[string]Property) map[string]interface{} {
	result := make(map[string]interface{})

	for key, prop := range properties {
		propMap := map[string]interface{}{
			"type":        prop.Type,
			"description": prop.Description,
		}
		if len(prop.Enum) > 0 {
			propMap["enum"] = prop.Enum
		}
		result[key] = propMap
	}

	return result
}
