package purchase

import (
	"lottoAgent/internal/failure"
	"lottoAgent/internal/portal"
)

// VerifyCost сравнивает показанную страницей сумму с ожидаемой.
// Несовпадение - failure.CostMismatchError; кнопка покупки после этого не нажимается.
func VerifyCost(expected int, displayed string) error {
	amount := portal.ParseAmount(displayed)
	if amount != expected {
		return &failure.CostMismatchError{Expected: expected, Displayed: amount, Raw: displayed}
	}
	return nil
}
