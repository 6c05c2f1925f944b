package commands

import (
	"context"
	"fmt"
	"io"

	"lottoAgent/internal/cli"
	"lottoAgent/internal/cli/ui"
	"lottoAgent/internal/config"
	"lottoAgent/internal/purchase"
)

func Lotto645() cli.Command {
	return cli.Command{
		Script: "Lotto 6/45",
		Usage: func(w io.Writer) {
			ui.PrintUsage(w, "lotto645", []ui.UsageLine{
				{Args: "", Description: "игры из AUTO_GAMES и MANUAL_NUMBERS"},
				{Args: "СУММА", Description: "автоигры на сумму 1000..5000 с шагом 1000"},
				{Args: "N1 N2 N3 N4 N5 N6", Description: "одна ручная игра, числа от 1 до 45 без повторов"},
			})
		},
		Prepare: func(args []string, cfg *config.Cfg) (cli.Handler, error) {
			manual, err := cfg.Purchase.ManualNumbers()
			if err != nil {
				return nil, err
			}

			sel, err := purchase.ParseArgs(args, purchase.Selection{Auto: cfg.Purchase.AutoGames, Manual: manual})
			if err != nil {
				return nil, err
			}

			return func(ctx context.Context, env *cli.Env) (any, error) {
				return buy(ctx, env, purchase.Lotto645(env.Catalog), sel)
			}, nil
		},
	}
}

func Pension720() cli.Command {
	return cli.Command{
		Script: "Lotto 720",
		Usage: func(w io.Writer) {
			ui.PrintUsage(w, "pension720", []ui.UsageLine{
				{Args: "", Description: "5 билетов: все группы, автоматический номер (PENSION_LAYOUT: mobile или desktop)"},
			})
		},
		Prepare: func(args []string, cfg *config.Cfg) (cli.Handler, error) {
			if len(args) != 0 {
				return nil, &purchase.UsageError{Reason: "pension720 не принимает аргументов"}
			}

			return func(ctx context.Context, env *cli.Env) (any, error) {
				product, err := purchase.Pension720(env.Catalog, env.Cfg.Portal.PensionLayout)
				if err != nil {
					return nil, err
				}
				return buy(ctx, env, product, product.FixedSelection())
			}, nil
		},
	}
}

func buy(ctx context.Context, env *cli.Env, product purchase.Product, sel purchase.Selection) (*purchase.Result, error) {
	opts := []purchase.Option{
		purchase.WithRecorder(env.Reporter),
		purchase.WithTimeouts(cli.PurchaseTimeouts(env.Cfg)),
	}
	if env.Approver != nil {
		opts = append(opts, purchase.WithApprover(env.Approver))
	}

	ui.PrintStep(env.Console, fmt.Sprintf("%s: %s", product.Name, sel))

	result, err := purchase.NewWorkflow(env.Session, product, env.Log, opts...).Run(ctx, sel)
	if err != nil {
		return nil, err
	}

	ui.PrintSuccess(env.Console, fmt.Sprintf("%s: куплено игр %d на %s", result.Product, result.ProcessedCount, ui.Won(result.Cost)))
	return result, nil
}
