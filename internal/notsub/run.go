package notsub

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"comanda-api/internal/mylogger"
	"comanda-api/internal/notsub/subscriber"
	"comanda-api/internal/xpkg/config"
)

// Execute starts the notification subscriber mode: a broker consumer that
// mirrors the floor event stream to the console.
func Execute(ctx context.Context, mylog mylogger.Logger, args []string) error {
	newCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet("subscriber", flag.ContinueOnError)
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	if err := fs.Parse(args); err != nil {
		return errors.New("cannot parse arguments")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		mylog.Action("config_load_failed").Error("Failed to load config", err)
		return err
	}

	sub := subscriber.New(cfg, mylog)
	return sub.Start(newCtx)
}
