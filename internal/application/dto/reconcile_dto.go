package dto

// ReconcileRequest body para POST /api/reconcile. DryRun es true salvo que Apply sea true.
type ReconcileRequest struct {
	ProductID string `json:"product_id" validate:"omitempty,uuid"`
	Apply     bool   `json:"apply"`
}
