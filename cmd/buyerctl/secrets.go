package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/auth"
)

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Print a bcrypt hash for the secrets file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Password or trial key to hash",
				Required: true,
				EnvVars:  []string{"BUYERCTL_PASSWORD"},
			},
			&cli.IntFlag{
				Name:  "cost",
				Usage: "bcrypt cost",
				Value: bcrypt.DefaultCost,
			},
		},
		Action: func(c *cli.Context) error {
			hash, err := auth.HashPassword(c.String("password"), c.Int("cost"))
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			_, err = fmt.Fprintln(c.App.Writer, hash)
			return err
		},
	}
}

func checkSecretsCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-secrets",
		Usage: "Report which roles can log in with the configured credentials",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "secrets",
				Usage:   "Path to the TOML secrets file",
				Value:   "./secrets.toml",
				EnvVars: []string{"AUTH_SECRETS_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			secrets, err := auth.LoadSecretsFile(c.String("secrets"))
			if err != nil {
				return err
			}
			available := auth.Availability(auth.Layered{secrets, auth.NewEnvStore()})

			roles := make([]string, 0, len(available))
			for role := range available {
				roles = append(roles, string(role))
			}
			sort.Strings(roles)

			missing := 0
			for _, role := range roles {
				status := "available"
				if !available[auth.Role(role)] {
					status = "unavailable (logins fail closed)"
					missing++
				}
				fmt.Fprintf(c.App.Writer, "%-6s %s\n", role, status)
			}
			if missing == len(roles) {
				return cli.Exit("no credentials configured for any role", 1)
			}
			return nil
		},
	}
}
