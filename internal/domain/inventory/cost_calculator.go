package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((CantActual * CostoActual) + (CantEntrada * CostoEntrada)) / (CantActual + CantEntrada)
// Se usa para valorizar un ítem de traslado despachado desde varias entradas de inventario.
func CostCalculator(cantActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := cantActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := cantActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}
