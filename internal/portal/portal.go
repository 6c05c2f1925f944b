// Package portal содержит адреса, тексты-маркеры и каталог кандидатов селекторов
// портала лотереи. Селекторы - константы конкретного сайта: каждый список
// упорядочен от предпочтительного к запасному и может быть переопределен YAML-файлом.
package portal

import "strings"

const (
	BaseURL   = "https://www.dhlottery.co.kr"
	MainURL   = BaseURL + "/main.do"
	LoginURL  = BaseURL + "/login"
	MyPageURL = BaseURL + "/mypage/home"

	Lotto645URL         = "https://el.dhlottery.co.kr/game/TotalGame.jsp?LottoId=LO40"
	Pension720URL       = "https://el.dhlottery.co.kr/game/TotalGame.jsp?LottoId=LP72"
	Pension720MobileURL = "https://el.dhlottery.co.kr/game_mobile/pension720/game.jsp"

	// LoggedInText - текст кнопки выхода, виден только авторизованному пользователю.
	LoggedInText = "로그아웃"
	// InvalidCredentialsText - сообщение портала о неверном логине или пароле.
	InvalidCredentialsText = "아이디 또는 비밀번호가 일치하지 않습니다"
)

// IsLoginURL сообщает, находится ли адрес на странице входа.
func IsLoginURL(u string) bool {
	return strings.Contains(u, "/login") || strings.Contains(u, "method=login")
}

