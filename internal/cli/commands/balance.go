package commands

import (
	"context"
	"fmt"
	"io"

	"lottoAgent/internal/balance"
	"lottoAgent/internal/cli"
	"lottoAgent/internal/cli/ui"
	"lottoAgent/internal/config"
	"lottoAgent/internal/purchase"
)

func Balance() cli.Command {
	return cli.Command{
		Script: "Balance",
		Usage: func(w io.Writer) {
			ui.PrintUsage(w, "balance", []ui.UsageLine{
				{Args: "", Description: "депозит и сумма, доступная для покупки"},
			})
		},
		Prepare: func(args []string, _ *config.Cfg) (cli.Handler, error) {
			if len(args) != 0 {
				return nil, &purchase.UsageError{Reason: "balance не принимает аргументов"}
			}
			return showBalance, nil
		},
	}
}

func showBalance(ctx context.Context, env *cli.Env) (any, error) {
	timeouts := balance.DefaultTimeouts()
	if env.Cfg.Timeouts.Balance > 0 {
		timeouts.Wait = env.Cfg.Timeouts.Balance
	}

	b, err := balance.NewInspector(env.Session, env.Catalog.Account, env.Log,
		balance.WithRecorder(env.Reporter),
		balance.WithTimeouts(timeouts),
	).Get(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(env.Console, ui.ColorBold+ui.IconBalance+" Баланс"+ui.ColorReset)
	fmt.Fprintf(env.Console, "  %-22s%s\n", "Депозит:", ui.Won(b.Deposit))
	fmt.Fprintf(env.Console, "  %-22s%s\n", "Доступно для покупки:", ui.Won(b.Available))
	return b, nil
}
