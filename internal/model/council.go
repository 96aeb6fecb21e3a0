package model

import "strings"

// CouncilResponse - структурированный ответ совета. Создается заново на каждый запуск и нигде не сохраняется.
type CouncilResponse struct {
	ScenarioSummary          string                   `json:"scenario_summary"`
	Assumptions              []string                 `json:"assumptions"`
	Personas                 []Persona                `json:"personas"`
	CSRAssessment            CSRAssessment            `json:"csr_assessment"`
	OptionsAndRecommendation OptionsAndRecommendation `json:"options_and_recommendation"`
}

// Persona - высказывание одного эксперта совета.
type Persona struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	PrimaryConcerns []string `json:"primary_concerns"`
	Statement       string   `json:"statement"`
}

// CSRAssessment - оценка по трем фиксированным осям.
type CSRAssessment struct {
	Environmental      CSRAssessmentItem `json:"environmental"`
	Social             CSRAssessmentItem `json:"social"`
	GovernanceEconomic CSRAssessmentItem `json:"governance_economic"`
}

// CSRAssessmentItem - рейтинг (High / Medium / Low) и ключевые тезисы по одной оси.
type CSRAssessmentItem struct {
	Rating    string   `json:"rating"`
	KeyPoints []string `json:"key_points"`
}

type OptionsAndRecommendation struct {
	OptionSummaries   []OptionSummary   `json:"option_summaries"`
	RecommendedOption RecommendedOption `json:"recommended_option"`
}

// RecommendedIndex возвращает индекс варианта, чье имя совпадает с рекомендованным
// (точное совпадение после обрезки пробелов), или -1, если совпадения нет.
// При нескольких совпадениях берется первое.
func (o OptionsAndRecommendation) RecommendedIndex() int {
	want := strings.TrimSpace(o.RecommendedOption.OptionName)
	if want == "" {
		return -1
	}
	for i, opt := range o.OptionSummaries {
		if strings.TrimSpace(opt.OptionName) == want {
			return i
		}
	}
	return -1
}

type OptionSummary struct {
	OptionName      string          `json:"option_name"`
	Description     string          `json:"description"`
	CSRImplications CSRImplications `json:"csr_implications"`
}

type CSRImplications struct {
	Environmental      string `json:"environmental"`
	Social             string `json:"social"`
	GovernanceEconomic string `json:"governance_economic"`
}

// RecommendedOption.OptionName по соглашению совпадает с одним из OptionSummary.OptionName, но это не гарантируется.
type RecommendedOption struct {
	OptionName   string `json:"option_name"`
	CSRRationale string `json:"csr_rationale"`
}

// Идентификаторы семи фиксированных экспертов.
const (
	PersonaClimateScientist       = "climate_scientist"
	PersonaCarbonFootprintAnalyst = "carbon_footprint_analyst"
	PersonaBiodiversityEcologist  = "biodiversity_ecologist"
	PersonaCommunityRep           = "community_representative"
	PersonaUrbanPlanner           = "urban_planner_or_infrastructure_engineer"
	PersonaBusinessCSRLead        = "business_csr_lead"
	PersonaPublicFinance          = "public_finance_minister_or_budget_officer"
)

// PersonaIDs перечисляет экспертов в порядке, в котором их описывает системный промт.
var PersonaIDs = []string{
	PersonaClimateScientist,
	PersonaCarbonFootprintAnalyst,
	PersonaBiodiversityEcologist,
	PersonaCommunityRep,
	PersonaUrbanPlanner,
	PersonaBusinessCSRLead,
	PersonaPublicFinance,
}

// ScenarioTypes - фиксированные категории сценария. Первая используется по умолчанию.
var ScenarioTypes = []string{
	"Energy & Renewables",
	"Water & Drought",
	"Cities & Transport",
	"Buildings & Cooling",
	"Waste & Materials",
	"Other",
}

// DefaultScenarioType - значение селекта по умолчанию.
func DefaultScenarioType() string {
	return ScenarioTypes[0]
}

// IsScenarioType проверяет, что тип сценария входит в фиксированный список.
func IsScenarioType(t string) bool {
	for _, st := range ScenarioTypes {
		if st == t {
			return true
		}
	}
	return false
}
