// Баланс счета на dhlottery.co.kr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lottoAgent/internal/cli"
	"lottoAgent/internal/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, commands.Balance(), os.Args[1:])
	stop()
	os.Exit(code)
}
