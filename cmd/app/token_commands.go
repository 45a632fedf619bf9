package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/usertokens/cmd/app/commands"
	"github.com/allisson/usertokens/internal/app"
	"github.com/allisson/usertokens/internal/config"
)

func getTokenCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "clean-expired-tokens",
			Usage: "Delete user tokens that expired more than the specified days ago",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete tokens that expired more than this many days ago",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many tokens would be deleted without deleting",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				cleanupUseCase, err := container.CleanupUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanExpiredTokens(
					ctx,
					cleanupUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "invalidate-token",
			Usage: "Invalidate a user token so it can no longer be used",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kind",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Token kind: 'mail_registration' or 'forgot_password'",
				},
				&cli.StringFlag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Token value as sent to the user",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				kind, err := commands.ParseTokenKind(cmd.String("kind"))
				if err != nil {
					return err
				}

				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				invalidator, err := container.TokenInvalidator(kind)
				if err != nil {
					return err
				}

				return commands.RunInvalidateToken(
					ctx,
					invalidator,
					container.Logger(),
					commands.DefaultIO().Writer,
					kind,
					cmd.String("token"),
					cmd.String("format"),
				)
			},
		},
	}
}
