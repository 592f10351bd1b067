package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"kpitracker/internal/app/server"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/domain/performance"
	"kpitracker/internal/platform/config"
	"kpitracker/internal/platform/db"
	"kpitracker/internal/platform/logger"
)

func main() {
	base := zap.Must(logger.New(os.Getenv("APP_ENV"), "info"))
	restore := logger.Install(base)

	root := &cli.Command{
		Name:  "kpitracker",
		Usage: "Role-based KPI tracking service and admin tools",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			bootstrapCommand(),
			scoreCommand(),
			evaluateCommand(),
			devTokenCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(ctx, "")
		},
	}

	err := root.Run(context.Background(), os.Args)
	restore()
	if err != nil {
		base.Fatal("kpitracker failed", zap.Error(err))
	}
}

func databaseFlag() cli.Flag {
	return &cli.StringFlag{Name: "database-url", Usage: "overrides DATABASE_URL"}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{databaseFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServe(ctx, c.String("database-url"))
		},
	}
}

func runServe(ctx context.Context, databaseURL string) error {
	cfg, err := loadConfig(databaseURL)
	if err != nil {
		return err
	}
	l, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Install(l)()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(ctx)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations",
		Flags: []cli.Flag{databaseFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c.String("database-url"))
			if err != nil {
				return err
			}
			handle, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer handle.Close()
			if err := db.Migrate(ctx, handle); err != nil {
				return err
			}
			fmt.Printf("migrations applied (%s)\n", handle.Dialect)
			return nil
		},
	}
}

func bootstrapCommand() *cli.Command {
	return &cli.Command{
		Name:  "bootstrap",
		Usage: "Create the Admin role and optionally an admin user",
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{Name: "email", Usage: "admin user email; omit to create only the role"},
			&cli.StringFlag{Name: "name", Value: "Administrator", Usage: "admin user full name"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_, svc, closeServices, err := openServices(ctx, c.String("database-url"))
			if err != nil {
				return err
			}
			defer closeServices()

			result, err := svc.Org.Bootstrap(ctx, c.String("name"), c.String("email"))
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Print a user's score card for a month",
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{Name: "user", Required: true, Usage: "user id"},
			&cli.StringFlag{Name: "period", Usage: "YYYY-MM, defaults to the current month"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			period, err := periodFlag(c.String("period"))
			if err != nil {
				return err
			}
			_, svc, closeServices, err := openServices(ctx, c.String("database-url"))
			if err != nil {
				return err
			}
			defer closeServices()

			card, err := svc.Performance.ScoreCard(ctx, c.String("user"), period)
			if err != nil {
				return err
			}
			return printJSON(card)
		},
	}
}

func evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Evaluate users and record recommendations",
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringSliceFlag{Name: "user", Usage: "user id, repeatable"},
			&cli.StringFlag{Name: "manager", Usage: "evaluate the manager's direct reports"},
			&cli.StringFlag{Name: "period", Usage: "YYYY-MM, defaults to the current month"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			period, err := periodFlag(c.String("period"))
			if err != nil {
				return err
			}
			_, svc, closeServices, err := openServices(ctx, c.String("database-url"))
			if err != nil {
				return err
			}
			defer closeServices()

			userIDs := c.StringSlice("user")
			if managerID := strings.TrimSpace(c.String("manager")); managerID != "" {
				reports, err := svc.Org.ListReports(ctx, managerID)
				if err != nil {
					return err
				}
				for _, report := range reports {
					userIDs = append(userIDs, report.ID)
				}
			}
			if len(userIDs) == 0 {
				return fmt.Errorf("pass --user or --manager")
			}

			outcomes, err := svc.Automation.EvaluateMany(ctx, userIDs, period)
			if printErr := printJSON(outcomes); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func devTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "dev-token",
		Usage: "Sign a development bearer token for an existing user",
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{Name: "user", Required: true, Usage: "user id"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, defaults to TOKEN_TTL"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, svc, closeServices, err := openServices(ctx, c.String("database-url"))
			if err != nil {
				return err
			}
			defer closeServices()
			if cfg.IsProduction() {
				return fmt.Errorf("dev-token is disabled in production")
			}
			if strings.TrimSpace(cfg.JWTSecret) == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}

			actor, err := svc.Org.ActorFor(ctx, c.String("user"))
			if err != nil {
				return err
			}
			ttl := cfg.TokenTTL
			if c.Duration("ttl") > 0 {
				ttl = c.Duration("ttl")
			}
			token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: actor.UserID, RoleID: actor.RoleID, RoleName: actor.RoleName}, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

func loadConfig(databaseURL string) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	return cfg, nil
}

// openServices opens and migrates the database for one-shot commands. The
// returned func closes the database and restores the previous logger.
func openServices(ctx context.Context, databaseURL string) (config.Config, server.Services, func(), error) {
	cfg, err := loadConfig(databaseURL)
	if err != nil {
		return config.Config{}, server.Services{}, nil, err
	}
	l, err := logger.New(cfg.Environment, "warn")
	if err != nil {
		return config.Config{}, server.Services{}, nil, err
	}
	restoreLogger := logger.Install(l)

	handle, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		restoreLogger()
		return config.Config{}, server.Services{}, nil, err
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, handle); err != nil {
			handle.Close()
			restoreLogger()
			return config.Config{}, server.Services{}, nil, err
		}
	}
	closeFn := func() {
		handle.Close()
		restoreLogger()
	}
	return cfg, server.NewServices(handle), closeFn, nil
}

func periodFlag(raw string) (performance.Period, error) {
	if strings.TrimSpace(raw) == "" {
		return performance.PeriodOf(time.Now()), nil
	}
	return performance.ParsePeriod(raw)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
