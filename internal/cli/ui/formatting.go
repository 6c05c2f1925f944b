package ui

import (
	"fmt"
	"io"

	"lottoAgent/internal/failure"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var won = message.NewPrinter(language.Korean)

// Won форматирует сумму так, как ее показывает портал: 5,000원.
func Won(amount int) string {
	return won.Sprintf("%d원", amount)
}

// FailureHint возвращает подсказку оператору для вида ошибки.
func FailureHint(kind failure.Kind) string {
	switch kind {
	case failure.KindConfiguration:
		return "Задайте USER_ID и PASSWD в окружении или в .env"
	case failure.KindAuthentication:
		return "Портал отклонил логин или пароль, повторный вход не выполнялся"
	case failure.KindLogin:
		return "Вход не подтвердился, проверьте доступность портала"
	case failure.KindSessionLost:
		return "Портал дважды сбросил сессию, попробуйте позже"
	case failure.KindElementNotFound:
		return "Верстка портала могла измениться, обновите SELECTORS_FILE"
	case failure.KindCostMismatch:
		return "Покупка не выполнена: сумма на странице не совпала с ожидаемой"
	case failure.KindPurchaseLimit:
		return "Достигнут недельный лимит покупок"
	case failure.KindCancelled:
		return "Покупка отменена оператором"
	default:
		return ""
	}
}

func PrintSuccess(w io.Writer, text string) {
	fmt.Fprintln(w, ColorGreen+IconDone+" "+text+ColorReset)
}

func PrintStep(w io.Writer, text string) {
	fmt.Fprintln(w, ColorCyan+IconStep+" "+text+ColorReset)
}

// PrintFailure выводит ошибку и, если есть, подсказку по ее виду.
func PrintFailure(w io.Writer, err error) {
	fmt.Fprintf(w, ColorRed+IconFailed+" Ошибка:"+ColorReset+" %v\n", err)
	if hint := FailureHint(failure.KindOf(err)); hint != "" {
		fmt.Fprintln(w, ColorGray+IconHint+" "+hint+ColorReset)
	}
}
