package ui

import (
	"fmt"
	"io"
)

type UsageLine struct {
	Args        string
	Description string
}

// PrintUsage выводит варианты вызова команды.
func PrintUsage(w io.Writer, command string, lines []UsageLine) {
	width := 0
	for _, line := range lines {
		width = max(width, len([]rune(line.Args)))
	}

	fmt.Fprintln(w, ColorYellow+IconUsage+" Использование:"+ColorReset)
	for _, line := range lines {
		pad := width - len([]rune(line.Args))
		fmt.Fprintf(w, "  "+ColorGreen+"%s"+ColorReset+" %s%*s - %s\n", command, line.Args, pad, "", line.Description)
	}
	fmt.Fprintln(w)
}
