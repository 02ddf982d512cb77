package modelrt

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"ptc/internal/toolregistry"
)

// ToolParamsFromDescriptors converts the tool registry's descriptors into
// the Anthropic SDK's tool-parameter shape, so the same schema drives both
// the registry's dispatch table and what's advertised to the model.
func ToolParamsFromDescriptors(descriptors []toolregistry.Descriptor) []anthropic.ToolParam {
	out := make([]anthropic.ToolParam, 0, len(descriptors))
	for _, d := range descriptors {
		var schema map[string]any
		_ = json.Unmarshal(d.ParameterSchema, &schema)

		properties, _ := schema["properties"].(map[string]any)

		out = append(out, anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
			},
		})
	}
	return out
}
