package models

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
