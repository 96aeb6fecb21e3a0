package web

import (
	"html/template"

	"sustainability-council/internal/model"
)

// PersonaBadge - иконка и цвет тегов эксперта.
type PersonaBadge struct {
	Icon  string
	Color string
}

var personaBadges = map[string]PersonaBadge{
	model.PersonaClimateScientist:       {Icon: "🌡️", Color: "bg-blue-100 text-blue-800"},
	model.PersonaCarbonFootprintAnalyst: {Icon: "💨", Color: "bg-gray-100 text-gray-800"},
	model.PersonaBiodiversityEcologist:  {Icon: "🌿", Color: "bg-green-100 text-green-800"},
	model.PersonaCommunityRep:           {Icon: "👥", Color: "bg-yellow-100 text-yellow-800"},
	model.PersonaUrbanPlanner:           {Icon: "🏗️", Color: "bg-indigo-100 text-indigo-800"},
	model.PersonaBusinessCSRLead:        {Icon: "💼", Color: "bg-purple-100 text-purple-800"},
	model.PersonaPublicFinance:          {Icon: "💰", Color: "bg-red-100 text-red-800"},
}

var defaultPersonaBadge = PersonaBadge{Icon: "🧑‍⚖️", Color: "bg-gray-100 text-gray-800"}

// PersonaStyle возвращает оформление эксперта. Неизвестный id получает нейтральный значок.
func PersonaStyle(id string) PersonaBadge {
	if b, ok := personaBadges[id]; ok {
		return b
	}
	return defaultPersonaBadge
}

// PersonaView - карточка эксперта.
type PersonaView struct {
	model.Persona
	Badge PersonaBadge
}

// AssessmentView - карточка одной оси CSR.
type AssessmentView struct {
	Title string
	model.CSRAssessmentItem
}

// OptionView - карточка варианта. Recommended выставляется не более чем у одного варианта.
type OptionView struct {
	model.OptionSummary
	Recommended bool
}

// CouncilView - ответ совета в порядке отображения. Порядок элементов сохраняется как в ответе модели.
type CouncilView struct {
	ScenarioSummary string
	Assumptions     []string
	Personas        []PersonaView
	Assessment      []AssessmentView
	Options         []OptionView
	Recommended     model.RecommendedOption
	// HasRecommendedMatch = false, если рекомендованное имя не совпало ни с одним вариантом
	HasRecommendedMatch bool
}

// NewCouncilView готовит ответ к рендеру и отмечает рекомендованный вариант.
func NewCouncilView(resp *model.CouncilResponse) *CouncilView {
	if resp == nil {
		return nil
	}
	v := &CouncilView{
		ScenarioSummary: resp.ScenarioSummary,
		Assumptions:     resp.Assumptions,
		Personas:        make([]PersonaView, 0, len(resp.Personas)),
		Assessment: []AssessmentView{
			{Title: "Environmental", CSRAssessmentItem: resp.CSRAssessment.Environmental},
			{Title: "Social", CSRAssessmentItem: resp.CSRAssessment.Social},
			{Title: "Governance/Economic", CSRAssessmentItem: resp.CSRAssessment.GovernanceEconomic},
		},
		Options:     make([]OptionView, 0, len(resp.OptionsAndRecommendation.OptionSummaries)),
		Recommended: resp.OptionsAndRecommendation.RecommendedOption,
	}
	for _, p := range resp.Personas {
		v.Personas = append(v.Personas, PersonaView{Persona: p, Badge: PersonaStyle(p.ID)})
	}
	recommended := resp.OptionsAndRecommendation.RecommendedIndex()
	v.HasRecommendedMatch = recommended >= 0
	for i, opt := range resp.OptionsAndRecommendation.OptionSummaries {
		v.Options = append(v.Options, OptionView{OptionSummary: opt, Recommended: i == recommended})
	}
	return v
}

// FuncMap - функции, доступные в шаблонах.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"axisIcon": func(title string) string {
			switch title {
			case "Environmental":
				return "🌍"
			case "Social":
				return "🤝"
			default:
				return "🏛️"
			}
		},
	}
}
