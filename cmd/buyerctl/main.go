// cmd/buyerctl/main.go
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/buyer-dashboard/backend-go/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("buyerctl failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "buyerctl",
		Usage: "Offline tools for the buyer dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetOutput(os.Stderr, "console")
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			reportCommand(),
			hashPasswordCommand(),
			checkSecretsCommand(),
		},
	}
}
