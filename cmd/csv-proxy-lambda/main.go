package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/fx"

	"csv-proxy-go/internal/client"
	"csv-proxy-go/internal/config"
	"csv-proxy-go/internal/handler"
	"csv-proxy-go/internal/lambdafn"
	"csv-proxy-go/internal/logging"
	"csv-proxy-go/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("csv-proxy-lambda"),
		kong.Description("AWS Lambda entry point for the CSV proxy."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			config.Load,
			logging.New,
			newSourceClient,
			service.NewCSVServiceFromConfig,
			handler.NewCSVHandler,
			lambdafn.New,
		),
		fx.Invoke(startLambda),
	).Run()
}

// newSourceClient builds the upstream client without metrics; nothing
// scrapes a Lambda process.
func newSourceClient(cfg *config.Config, logger *slog.Logger) *client.SourceClient {
	return client.NewSourceClient(cfg, logger, nil)
}

func startLambda(lc fx.Lifecycle, fn *lambdafn.Function, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if cfg.Source.URL == "" {
				logger.Warn("no source URL configured; invocations will fail until " + config.SourceURLEnv + " is set")
			}
			logger.Info("starting lambda handler", "version", version)
			go lambda.Start(fn.Handle)
			return nil
		},
	})
}
