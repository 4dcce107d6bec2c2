package http

type ErrorResponse struct {
	Error string `json:"error"`
}

type FieldErrorResponse struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Details []FieldErrorResponse `json:"details"`
}

type ConflictErrorResponse struct {
	Error  string   `json:"error"`
	Table  string   `json:"table"`
	Tables []string `json:"tables,omitempty"`
}
