// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auditor

// =============================================================================
// OUTPUT SCHEMA
// =============================================================================

// SchemaType is the JSON type of a schema node.
type SchemaType string

const (
	TypeObject SchemaType = "OBJECT"
	TypeArray  SchemaType = "ARRAY"
	TypeString SchemaType = "STRING"
)

// Schema is a provider-neutral description of the structured output.
// Generators translate it into their own schema type.
type Schema struct {
	Type             SchemaType         `json:"type"`
	Description      string             `json:"description,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

// Field names of the audit document, in output order.
var auditFields = []string{
	"detectedBiases",
	"evidence",
	"reasoningFlaws",
	"weakAssumptions",
	"counterHypotheses",
	"killCriteria",
	"riskAssessment",
}

func stringList(description string) *Schema {
	return &Schema{
		Type:        TypeArray,
		Items:       &Schema{Type: TypeString},
		Description: description,
	}
}

// ResponseSchema returns the schema every audit response must follow.
// A fresh value is built on each call so callers may not corrupt it.
func ResponseSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"detectedBiases": stringList("List of specific cognitive biases identified in the statement."),
			"evidence": {
				Type:        TypeString,
				Description: "Direct quotes or references from the statement that prove the bias.",
			},
			"reasoningFlaws":    stringList("Specific logical fallacies or errors in the chain of reasoning."),
			"weakAssumptions":   stringList("Foundational beliefs that lack sufficient data or evidence."),
			"counterHypotheses": stringList("Plausible alternative explanations that contradict the founder's view."),
			"killCriteria":      stringList("Specific metrics or events that, if observed, should result in immediate termination of the current strategy."),
			"riskAssessment": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"level": {
						Type:        TypeString,
						Description: "The assessed risk level. Expected values: Low, Moderate, High, or Extreme.",
					},
					"summary": {
						Type:        TypeString,
						Description: "A one-sentence cold summary of the logical risk.",
					},
				},
				Required:         []string{"level", "summary"},
				PropertyOrdering: []string{"level", "summary"},
			},
		},
		Required:         append([]string(nil), auditFields...),
		PropertyOrdering: append([]string(nil), auditFields...),
	}
}
