package portal

import (
	"strconv"
	"strings"
)

// ParseAmount извлекает сумму из текста вида "2,000원" или "예치금 12,500 원".
// Функция тотальна: пустой, нечисловой или не помещающийся в int текст дает 0.
func ParseAmount(text string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)

	if digits == "" {
		return 0
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
