package purchase

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	MaxGames       = 5
	NumbersPerGame = 6
	MinNumber      = 1
	MaxNumber      = 45
	UnitPrice      = 1000
)

// Selection - игры одной покупки: число автоматических игр и наборы ручных номеров.
// Аргументы командной строки дают либо одно, либо другое; конфигурация может задать оба.
type Selection struct {
	Auto   int
	Manual [][]int
}

func Auto(count int) Selection {
	return Selection{Auto: count}
}

func Manual(sets ...[]int) Selection {
	return Selection{Manual: sets}
}

func (s Selection) TotalGames() int {
	return s.Auto + len(s.Manual)
}

// ExpectedCost - сумма, которую страница обязана показать перед оплатой.
func (s Selection) ExpectedCost(unitPrice int) int {
	return s.TotalGames() * unitPrice
}

func (s Selection) Validate() error {
	if s.Auto < 0 || s.Auto > MaxGames {
		return &UsageError{Reason: fmt.Sprintf("число автоматических игр должно быть от 0 до %d, получено %d", MaxGames, s.Auto)}
	}
	for _, set := range s.Manual {
		if err := ValidateNumbers(set); err != nil {
			return err
		}
	}

	total := s.TotalGames()
	if total == 0 {
		return &UsageError{Reason: "нет игр для покупки"}
	}
	if total > MaxGames {
		return &UsageError{Reason: fmt.Sprintf("за одну покупку не больше %d игр, запрошено %d", MaxGames, total)}
	}
	return nil
}

func (s Selection) String() string {
	var parts []string
	if s.Auto > 0 {
		parts = append(parts, fmt.Sprintf("auto×%d", s.Auto))
	}
	for _, set := range s.Manual {
		parts = append(parts, fmt.Sprint(set))
	}
	return strings.Join(parts, " ")
}

// ValidateNumbers проверяет ручной набор: ровно 6 различных чисел от 1 до 45.
func ValidateNumbers(set []int) error {
	if len(set) != NumbersPerGame {
		return &UsageError{Reason: fmt.Sprintf("нужно ровно %d чисел, получено %d", NumbersPerGame, len(set))}
	}

	seen := make(map[int]bool, len(set))
	for _, n := range set {
		if n < MinNumber || n > MaxNumber {
			return &UsageError{Reason: fmt.Sprintf("числа должны быть от %d до %d, получено %d", MinNumber, MaxNumber, n)}
		}
		if seen[n] {
			return &UsageError{Reason: fmt.Sprintf("число %d повторяется", n)}
		}
		seen[n] = true
	}
	return nil
}

// ParseArgs разбирает аргументы командной строки:
//
//	[]                 - значения из конфигурации (defaults)
//	[СУММА]            - 1000..5000 с шагом 1000, запятые допускаются; число автоигр = сумма/1000
//	[N1 ... N6]        - одна ручная игра, числа сортируются
//
// Любой другой ввод - *UsageError. Вызывается до запуска браузера.
func ParseArgs(args []string, defaults Selection) (Selection, error) {
	switch len(args) {
	case 0:
		sel := Selection{Auto: defaults.Auto}
		for _, set := range defaults.Manual {
			sel.Manual = append(sel.Manual, sorted(set))
		}
		return sel, sel.Validate()

	case 1:
		raw := strings.ReplaceAll(strings.TrimSpace(args[0]), ",", "")
		amount, err := strconv.Atoi(raw)
		if err != nil {
			return Selection{}, &UsageError{Reason: fmt.Sprintf("неверный формат суммы %q", args[0])}
		}
		if amount < UnitPrice || amount > MaxGames*UnitPrice || amount%UnitPrice != 0 {
			return Selection{}, &UsageError{Reason: fmt.Sprintf("недопустимая сумма %q: 1000, 2000, 3000, 4000 или 5000", args[0])}
		}
		return Auto(amount / UnitPrice), nil

	case NumbersPerGame:
		set := make([]int, 0, NumbersPerGame)
		for _, arg := range args {
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				return Selection{}, &UsageError{Reason: fmt.Sprintf("все аргументы должны быть числами, получено %q", arg)}
			}
			set = append(set, n)
		}
		if err := ValidateNumbers(set); err != nil {
			return Selection{}, err
		}
		return Manual(sorted(set)), nil

	default:
		return Selection{}, &UsageError{Reason: fmt.Sprintf("неверное число аргументов: %d", len(args))}
	}
}

func sorted(set []int) []int {
	out := slices.Clone(set)
	slices.Sort(out)
	return out
}

// UsageError - неверный ввод. Процесс печатает подсказку и завершается до сетевых действий.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}
