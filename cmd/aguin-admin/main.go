// Command aguin-admin runs operator tasks against the configured store.
//
//	aguin-admin migrate
//	aguin-admin create-user -username ana -password ... [-role admin|viewer]
//	aguin-admin dashboard [-date 2025-03-01] [-from-json rows.json -counts '{"clients":3}']
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"aguin/internal/auth"
	"aguin/internal/cli"
	"aguin/internal/config"
	"aguin/internal/core"
	"aguin/internal/dashboard"
	"aguin/internal/log"
	"aguin/internal/services"
	"aguin/internal/storage"
)

var errUsage = errors.New("usage: aguin-admin <migrate|create-user|dashboard> [flags]")

func main() {
	cli.LoadEnvFile()
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "migrate":
		return migrate(ctx)
	case "create-user":
		return createUser(ctx, args[1:], stdout)
	case "dashboard":
		return printDashboard(ctx, args[1:], stdout)
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func migrate(ctx context.Context) error {
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentStorage)

	var err error
	switch cfg.DataBackend {
	case "sqlite":
		err = storage.RunMigrations(storage.DialectSQLite, storage.SQLiteDSN(cfg.SQLiteDBPath))
	case "postgres":
		err = storage.RunMigrations(storage.DialectPostgres, cfg.DatabaseURL)
	default:
		return fmt.Errorf("backend %q has no migrations", cfg.DataBackend)
	}
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Migrations applied", log.FieldBackend, cfg.DataBackend, log.FieldOperation, log.OpMigrate)
	return nil
}

func createUser(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "password (min 8 characters)")
	role := fs.String("role", string(core.RoleAdmin), "admin or viewer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("-username and -password are required")
	}

	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentAuth)
	st, closeStore := cli.OpenStore(ctx, cfg, logger)
	defer closeStore()

	u, err := auth.CreateUser(ctx, st, *username, *password, core.Role(*role))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created user %q (id=%d, role=%s)\n", u.Username, u.ID, u.Role)
	return nil
}

func printDashboard(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	date := fs.String("date", "", "reference date YYYY-MM-DD (default today)")
	fromJSON := fs.String("from-json", "", "summarize an exported rows file instead of the store")
	countsJSON := fs.String("counts", "{}", "counters for -from-json, e.g. '{\"clients\":3,\"payments\":1}'")
	tz := fs.String("tz", "", "studio time zone (default STUDIO_TIMEZONE)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var summary dashboard.Summary
	if *fromJSON != "" {
		ref, err := referenceDate(*date, *tz)
		if err != nil {
			return err
		}
		rows, err := readRows(*fromJSON)
		if err != nil {
			return err
		}
		var counts dashboard.Counts
		if err := json.Unmarshal([]byte(*countsJSON), &counts); err != nil {
			return fmt.Errorf("parse -counts: %w", err)
		}
		summary = dashboard.Summarize(rows, counts, ref)
	} else {
		cfg := cli.LoadAndValidateConfig()
		logger := cli.SetupLogger(cfg, log.ComponentDashboard)
		if *tz == "" {
			*tz = cfg.StudioTimezone
		}
		ref, err := referenceDate(*date, *tz)
		if err != nil {
			return err
		}
		st, closeStore := cli.OpenStore(ctx, cfg, logger)
		defer closeStore()

		summary, err = services.NewDashboardService(st, logger).Summary(ctx, ref)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func readRows(path string) ([]dashboard.Reservation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	var rows []dashboard.Reservation
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse rows %s: %w", path, err)
	}
	return rows, nil
}

// referenceDate resolves "today" in the studio's zone; an explicit date is
// taken at local midnight.
func referenceDate(date, tz string) (time.Time, error) {
	loc := time.UTC
	if tz == "" {
		tz = config.Load().StudioTimezone
	}
	if l, err := time.LoadLocation(tz); err == nil {
		loc = l
	} else {
		return time.Time{}, fmt.Errorf("unknown time zone %q", tz)
	}
	if date == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -date %q: want YYYY-MM-DD", date)
	}
	return t, nil
}
