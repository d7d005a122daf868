package dto

// ErrorResponse cuerpo de error HTTP. Details lleva los valores estructurados de un error de validación
// (actual, delta, resultado, producto, lote).
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ReasonRequest transición con motivo obligatorio (rechazo, cancelación).
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
