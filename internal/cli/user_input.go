package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"lottoAgent/internal/cli/ui"
	"lottoAgent/internal/purchase"
)

// stdinApprover спрашивает оператора перед нажатием кнопки покупки.
type stdinApprover struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewStdinApprover(in io.Reader, out io.Writer) purchase.Approver {
	return &stdinApprover{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (p *stdinApprover) Approve(ctx context.Context, summary purchase.Summary) (bool, error) {
	fmt.Fprintf(p.out, "\n"+ui.ColorYellow+ui.IconTicket+" %s: %d игр(ы) %s на сумму %s"+ui.ColorReset+"\n",
		summary.Product, summary.Games, summary.Selection, ui.Won(summary.Cost))
	fmt.Fprint(p.out, "Купить? [y/N]: ")

	answerChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		answer, err := p.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
			errChan <- err
			return
		}
		answerChan <- strings.TrimSpace(answer)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		// Закрытый stdin - отказ, а не сбой запуска
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	case answer := <-answerChan:
		return approved(answer), nil
	}
}

func approved(answer string) bool {
	switch strings.ToLower(answer) {
	case "y", "yes", "д", "да", "네", "예":
		return true
	default:
		return false
	}
}
