package purchase

import (
	"fmt"

	"lottoAgent/internal/portal"
)

const (
	LayoutMobile  = "mobile"
	LayoutDesktop = "desktop"
)

// Product - стратегия покупки: адрес страницы, набор селекторов и правила подсчета игр.
// Верстки одного продукта отличаются только селекторами и необязательным PreSelect.
type Product struct {
	Name      string
	URL       string
	UnitPrice int
	Selectors portal.GameSelectors
	// FixedGames > 0: продукт покупается фиксированным пакетом одним автоматическим действием
	FixedGames int
}

func Lotto645(catalog *portal.Catalog) Product {
	return Product{
		Name:      "Lotto 6/45",
		URL:       portal.Lotto645URL,
		UnitPrice: UnitPrice,
		Selectors: catalog.Lotto645,
	}
}

// Pension720 - пять билетов "все группы, автоматический номер".
func Pension720(catalog *portal.Catalog, layout string) (Product, error) {
	p := Product{
		Name:       "Lotto 720",
		UnitPrice:  UnitPrice,
		FixedGames: 5,
	}

	switch layout {
	case LayoutMobile, "":
		p.URL = portal.Pension720MobileURL
		p.Selectors = catalog.Pension720Mobile
	case LayoutDesktop:
		p.URL = portal.Pension720URL
		p.Selectors = catalog.Pension720Desktop
	default:
		return Product{}, fmt.Errorf("неизвестная верстка %q", layout)
	}

	return p, nil
}

// Games - число игр, за которое страница должна выставить счет.
func (p Product) Games(sel Selection) int {
	if p.FixedGames > 0 {
		return p.FixedGames
	}
	return sel.TotalGames()
}

func (p Product) ExpectedCost(sel Selection) int {
	return p.Games(sel) * p.UnitPrice
}

func (p Product) Validate(sel Selection) error {
	if p.FixedGames > 0 {
		if len(sel.Manual) > 0 {
			return &UsageError{Reason: p.Name + ": ручной выбор номеров не поддерживается"}
		}
		return nil
	}
	if len(sel.Manual) > 0 && p.Selectors.Number == "" {
		return &UsageError{Reason: p.Name + ": ручной выбор номеров не поддерживается"}
	}
	return sel.Validate()
}

// FixedSelection - выбор для продуктов с фиксированным пакетом.
func (p Product) FixedSelection() Selection {
	return Auto(p.FixedGames)
}
