package web

import (
	"sustainability-council/internal/model"
	models "sustainability-council/shared/models"
)

// Имена страниц (файлы в templates/pages).
const (
	PageHome     = "home.html"
	PageCouncil  = "council.html"
	PageAbout    = "about.html"
	PageNotFound = "404.html"
)

// Имена частичных шаблонов.
const (
	// PartialCouncilSession - форма совета вместе с областью результата (ответ на htmx-запрос).
	PartialCouncilSession = "council_session"
	// PartialCouncilForm - только форма (ответ htmx на ошибку ввода).
	PartialCouncilForm = "council_form"
	// CouncilFormTarget - селектор формы для HX-Retarget.
	CouncilFormTarget = "#council-form"
)

// Flash - одноразовое сообщение из cookie.
type Flash struct {
	Type    string `json:"type"` // success, error, info
	Message string `json:"message"`
}

// PageData - общие данные layout.html.
type PageData struct {
	Title   string
	Active  string // активный пункт меню: home, council, about
	Session *models.Session
	Flash   *Flash
	// ShowLogin открывает модальное окно входа сразу при загрузке страницы
	ShowLogin  bool
	LoginError string
	LoginName  string

	Home    *HomeContent
	About   *AboutContent
	Council *CouncilForm
}

// LoggedIn используется в навбаре.
func (d PageData) LoggedIn() bool {
	return d.Session != nil
}

// ChatGreeting - первая реплика виджета чата.
func (d PageData) ChatGreeting() string {
	return model.ChatGreeting
}

// CouncilForm - состояние формы совета и области результата.
// Область результата содержит либо Result, либо Error, но не оба сразу.
type CouncilForm struct {
	Scenario        string
	ScenarioType    string
	ScenarioTypes   []string
	ValidationError string
	Result          *CouncilView
	Error           string
}

// NewCouncilForm возвращает пустую форму с типом сценария по умолчанию.
func NewCouncilForm() *CouncilForm {
	return &CouncilForm{
		ScenarioType:  model.DefaultScenarioType(),
		ScenarioTypes: model.ScenarioTypes,
	}
}

// WithResult показывает результат и сбрасывает ошибку.
func (f *CouncilForm) WithResult(resp *model.CouncilResponse) *CouncilForm {
	f.Result = NewCouncilView(resp)
	f.Error = ""
	return f
}

// WithError показывает панель ошибки и сбрасывает результат.
func (f *CouncilForm) WithError(message string) *CouncilForm {
	f.Result = nil
	f.Error = message
	return f
}
