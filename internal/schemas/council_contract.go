// Package schemas содержит контракт между приложением и провайдером модели:
// системные промты, JSON-схему ответа совета и их централизованную проверку.
// Любое изменение промта или схемы должно сопровождаться повышением CouncilContractVersion.
package schemas

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CouncilContractVersion - версия пары "промт + схема" для вызова совета.
const CouncilContractVersion = "1.1.0"

// CouncilSchemaName - имя схемы для response_format.json_schema (OpenAI).
const CouncilSchemaName = "sustainability_council_response"

const councilPromptBody = `You are an AI system that simulates a Sustainability Council: a panel of expert personas and a facilitator who together provide a CSR-style assessment of a sustainability decision.

Your job is to help humans think clearly about sustainability decisions involving climate, carbon footprint, ecosystems, communities, infrastructure, business/CSR, and public finance.

Always:
1. Provide a structured CSR assessment across Environmental, Social, and Governance/Economic dimensions.
2. Keep personas distinct and allow disagreement or different emphases.
3. Return only valid JSON using the schema provided below.

Personas (each gives 3–6 sentences):
- climate_scientist – emissions pathways, physical climate risk, carbon budgets, long-term climate goals.
- carbon_footprint_analyst – approximate CO2e impact of the scenario (qualitative high/medium/low), main emission drivers, key reduction levers.
- biodiversity_ecologist – ecosystems, habitats, species, nature-based solutions, land and water impacts.
- community_representative – local livelihoods, equity, culture, health, impacts on vulnerable groups.
- urban_planner_or_infrastructure_engineer – technical feasibility, safety, integration with existing infrastructure, timelines.
- business_csr_lead – business model and strategy, ESG/CSR positioning, long-term value, brand and investor expectations.
- public_finance_minister_or_budget_officer – public budget impact, affordability, fiscal risk, competing priorities.

The facilitator synthesizes their views into a CSR-style assessment and options:
- Environmental (E)
- Social (S)
- Governance/Economic (G)

The user scenario will be provided as text, possibly with a scenario type. Assume missing details and list your assumptions explicitly.

Respond using this exact JSON structure and keys, with no extra text:
`

// ChatSystemPrompt ограничивает ассистента вопросами об использовании приложения.
const ChatSystemPrompt = `You are a helpful assistant for the "Sustainability Council" web app. Your role is to answer user questions about how to use the app.
Keep your answers concise and friendly. You can answer questions about:
- How to write a good scenario (it should be specific and include context).
- What each expert persona focuses on (e.g., the Climate Scientist cares about emissions, the Community Rep cares about local jobs).
- How to interpret the CSR assessment (it's a summary of Environmental, Social, and Governance/Economic impacts).
Do not answer questions outside of this scope.`

// councilSystemPrompt собирается один раз: текст промта плюс сама схема.
var councilSystemPrompt = func() string {
	schemaJSON, err := json.MarshalIndent(CouncilResponseSchema(), "", "  ")
	if err != nil {
		panic(fmt.Sprintf("schemas: council schema is not serializable: %v", err))
	}
	return councilPromptBody + string(schemaJSON)
}()

// CouncilSystemPrompt возвращает системную инструкцию совета.
func CouncilSystemPrompt() string {
	return councilSystemPrompt
}

// CouncilUserPrompt формирует пользовательское сообщение для вызова совета.
func CouncilUserPrompt(scenarioType, scenario string) string {
	return fmt.Sprintf("Scenario Type: %s\n\nScenario Description: %s", scenarioType, strings.TrimSpace(scenario))
}

func str(description string) map[string]interface{} {
	s := map[string]interface{}{"type": "string"}
	if description != "" {
		s["description"] = description
	}
	return s
}

func strArray(description string) map[string]interface{} {
	s := map[string]interface{}{"type": "array", "items": str("")}
	if description != "" {
		s["description"] = description
	}
	return s
}

func object(properties map[string]interface{}, order ...string) map[string]interface{} {
	required := make([]interface{}, 0, len(order))
	for _, key := range order {
		required = append(required, key)
	}
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
		"required":             required,
	}
}

func assessmentItem(dimension string) map[string]interface{} {
	return object(map[string]interface{}{
		"rating":     str(fmt.Sprintf("High / Medium / Low (overall %s performance).", dimension)),
		"key_points": strArray(""),
	}, "rating", "key_points")
}

// CouncilResponseSchema возвращает JSON-схему ответа совета.
// Каждый вызов отдает новую копию, ее можно менять.
// Порядок ключей в "required" совпадает с порядком полей в ответе.
func CouncilResponseSchema() map[string]interface{} {
	persona := object(map[string]interface{}{
		"id":               str(""),
		"title":            str(""),
		"primary_concerns": strArray(""),
		"statement":        str("3–6 sentence response from this persona."),
	}, "id", "title", "primary_concerns", "statement")

	option := object(map[string]interface{}{
		"option_name": str(""),
		"description": str(""),
		"csr_implications": object(map[string]interface{}{
			"environmental":       str(""),
			"social":              str(""),
			"governance_economic": str(""),
		}, "environmental", "social", "governance_economic"),
	}, "option_name", "description", "csr_implications")

	schema := object(map[string]interface{}{
		"scenario_summary": str("Short neutral summary of the user scenario in 2–3 sentences."),
		"assumptions":      strArray("List of assumptions about missing details."),
		"personas": map[string]interface{}{
			"type":  "array",
			"items": persona,
		},
		"csr_assessment": object(map[string]interface{}{
			"environmental":       assessmentItem("environmental"),
			"social":              assessmentItem("social"),
			"governance_economic": assessmentItem("governance & economic"),
		}, "environmental", "social", "governance_economic"),
		"options_and_recommendation": object(map[string]interface{}{
			"option_summaries": map[string]interface{}{
				"type":  "array",
				"items": option,
			},
			"recommended_option": object(map[string]interface{}{
				"option_name":   str(""),
				"csr_rationale": str(""),
			}, "option_name", "csr_rationale"),
		}, "option_summaries", "recommended_option"),
	}, "scenario_summary", "assumptions", "personas", "csr_assessment", "options_and_recommendation")

	return schema
}
