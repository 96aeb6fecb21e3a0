package web

// Feature - карточка на главной странице.
type Feature struct {
	Title string
	Text  string
}

// Step - шаг блока "How It Works".
type Step struct {
	Title string
	Text  string
}

// HomeContent - тексты главной страницы.
type HomeContent struct {
	Tagline  string
	Features []Feature
	Steps    []Step
}

// PersonaDescription - эксперт на странице About.
type PersonaDescription struct {
	Name        string
	Description string
}

// AboutContent - тексты страницы About.
type AboutContent struct {
	Mission  []string
	Personas []PersonaDescription
	HowAI    string
}

var homeContent = &HomeContent{
	Tagline: "An AI-powered CSR panel that debates your sustainability decisions from multiple expert perspectives.",
	Features: []Feature{
		{
			Title: "Multiple Expert Personas",
			Text:  "Our AI council includes climate, carbon, biodiversity, community, engineering, business/CSR, and public finance experts to provide a holistic view.",
		},
		{
			Title: "CSR-Style Assessment",
			Text:  "Receive a structured assessment covering Environmental (E), Social (S), and Governance/Economic (G) dimensions of your project.",
		},
		{
			Title: "Decision Support, Not Just Answers",
			Text:  "The tool surfaces diverse perspectives and CSR implications to help you make more informed and robust sustainability decisions.",
		},
	},
	Steps: []Step{
		{Title: "Describe Your Scenario", Text: "Provide a detailed description of the sustainability challenge or decision you are facing."},
		{Title: "Run the Council", Text: "Our AI panel analyzes your scenario, with each persona offering their unique expert viewpoint."},
		{Title: "Review Assessment", Text: "Explore the CSR assessment, persona statements, and actionable options to guide your decision."},
	},
}

var aboutContent = &AboutContent{
	Mission: []string{
		"Real-world sustainability decisions are never simple. They involve a delicate balance of environmental protection, social equity, and economic viability. A choice that reduces carbon emissions might impact local jobs, while a financially robust project could harm a sensitive ecosystem. Navigating these trade-offs requires diverse expertise and a structured way of thinking.",
		"The Sustainability Council was created to help surface these critical perspectives. By simulating a panel of experts, this tool encourages a holistic view, ensuring that key considerations from climate science to community impact are not overlooked. It structures the output into a clear Corporate Social Responsibility (CSR) framework (Environmental, Social, and Governance/Economic) to help you make more resilient and responsible decisions.",
	},
	Personas: []PersonaDescription{
		{Name: "Climate Scientist", Description: "Focuses on emissions pathways, physical climate risk, carbon budgets, and long-term climate goals."},
		{Name: "Carbon Footprint Analyst", Description: "Analyzes the approximate CO2e impact of the scenario, main emission drivers, and key reduction levers."},
		{Name: "Biodiversity Ecologist", Description: "Considers the impact on ecosystems, habitats, species, and the potential for nature-based solutions."},
		{Name: "Community Representative", Description: "Advocates for local livelihoods, equity, cultural heritage, health, and impacts on vulnerable groups."},
		{Name: "Urban Planner / Infrastructure Engineer", Description: "Evaluates technical feasibility, safety, integration with existing infrastructure, and project timelines."},
		{Name: "Business Strategy / CSR Lead", Description: "Assesses the business model, ESG/CSR positioning, long-term value, and brand or investor expectations."},
		{Name: "Public Finance Minister / Budget Officer", Description: "Examines the public budget impact, project affordability, fiscal risk, and competing government priorities."},
	},
	HowAI: "When you submit a scenario, the server sends it to the configured language model (Google Gemini by default) with a detailed system prompt. This prompt instructs the model to adopt seven distinct expert personas and a facilitator role. It also specifies a precise JSON schema for the response, which includes individual persona statements and a synthesized CSR assessment. Every reply is checked against that schema before it is rendered into the cards and panels you see in the results.",
}

// Home возвращает тексты главной страницы.
func Home() *HomeContent { return homeContent }

// About возвращает тексты страницы About.
func About() *AboutContent { return aboutContent }
