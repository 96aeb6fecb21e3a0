package mocks

// SampleCouncilReply - корректный ответ модели для тестов. Ключи идут в порядке схемы.
const SampleCouncilReply = `{
  "scenario_summary": "A 50 MW solar farm is proposed 2 km from a village in a water-stressed region. Locals worry about land use and jobs.",
  "assumptions": [
    "The land is currently used for grazing.",
    "Panels will be cleaned with trucked-in water.",
    "Construction takes 18 months."
  ],
  "personas": [
    {"id": "climate_scientist", "title": "Climate Scientist", "primary_concerns": ["emissions", "climate risk"], "statement": "The project displaces coal generation."},
    {"id": "carbon_footprint_analyst", "title": "Carbon Footprint Analyst", "primary_concerns": ["CO2e"], "statement": "Lifecycle emissions are low."},
    {"id": "biodiversity_ecologist", "title": "Biodiversity Ecologist", "primary_concerns": ["habitat"], "statement": "Agrivoltaics can keep grazing."},
    {"id": "community_representative", "title": "Community Representative", "primary_concerns": ["jobs", "water"], "statement": "Local hiring must be guaranteed."},
    {"id": "urban_planner_or_infrastructure_engineer", "title": "Infrastructure Engineer", "primary_concerns": ["grid"], "statement": "A substation upgrade is needed."},
    {"id": "business_csr_lead", "title": "CSR Lead", "primary_concerns": ["ESG"], "statement": "Strong ESG story if water is handled."},
    {"id": "public_finance_minister_or_budget_officer", "title": "Budget Officer", "primary_concerns": ["fiscal risk"], "statement": "Tax revenue offsets grid costs."}
  ],
  "csr_assessment": {
    "environmental": {"rating": "High", "key_points": ["Large emissions cut", "Water use must be minimised"]},
    "social": {"rating": "Medium", "key_points": ["Jobs during construction"]},
    "governance_economic": {"rating": "Medium", "key_points": ["Needs a benefit-sharing agreement"]}
  },
  "options_and_recommendation": {
    "option_summaries": [
      {"option_name": "Build as proposed", "description": "Proceed with the 50 MW design.", "csr_implications": {"environmental": "High benefit", "social": "Mixed", "governance_economic": "Good returns"}},
      {"option_name": "Agrivoltaic design with dry cleaning", "description": "Raise panels and use robotic dry cleaning.", "csr_implications": {"environmental": "Highest benefit", "social": "Keeps grazing", "governance_economic": "Higher capex"}},
      {"option_name": "Do not build", "description": "Keep the land as is.", "csr_implications": {"environmental": "No benefit", "social": "No change", "governance_economic": "No revenue"}}
    ],
    "recommended_option": {"option_name": "Agrivoltaic design with dry cleaning", "csr_rationale": "It balances emissions cuts with water and livelihoods."}
  }
}`
