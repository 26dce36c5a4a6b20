// Command restoctl runs operational tasks against the resto database:
// onboarding tenants, resetting passwords and issuing API keys.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guruweb/resto/internal/apikeys"
	"github.com/guruweb/resto/internal/app"
	"github.com/guruweb/resto/internal/auth"
	"github.com/guruweb/resto/internal/businesses"
	"github.com/guruweb/resto/internal/platform/db"
)

const usage = `usage: restoctl <command> [flags]

commands:
  create-tenant   -name <business> -email <admin email> -password <password>
  reset-password  -email <user email> -password <new password>
  create-api-key  -business <business id> [-name <label>]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "restoctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	cmd, ok := commands[command]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	exec := cmd(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()
	return exec(ctx, pool, out)
}

type action func(ctx context.Context, pool *pgxpool.Pool, out io.Writer) error

var commands = map[string]func(fs *flag.FlagSet) action{
	"create-tenant":  createTenant,
	"reset-password": resetPassword,
	"create-api-key": createAPIKey,
}

func createTenant(fs *flag.FlagSet) action {
	name := fs.String("name", "", "business name")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	return func(ctx context.Context, pool *pgxpool.Pool, out io.Writer) error {
		if *name == "" || *email == "" || *password == "" {
			return fmt.Errorf("create-tenant: -name, -email and -password are required")
		}
		users := auth.NewService(auth.NewRepository(pool))
		svc := businesses.NewService(businesses.NewRepository(pool), db.NewTxManager(pool), users)
		business, admin, err := svc.CreateTenant(ctx, *name, *email, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "business %s (%s) created\nadmin %s <%s>\n", business.ID, business.Slug, admin.ID, admin.Email)
		return nil
	}
}

func resetPassword(fs *flag.FlagSet) action {
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "new password")
	return func(ctx context.Context, pool *pgxpool.Pool, out io.Writer) error {
		if *email == "" || *password == "" {
			return fmt.Errorf("reset-password: -email and -password are required")
		}
		if err := auth.NewService(auth.NewRepository(pool)).ResetPassword(ctx, *email, *password); err != nil {
			return err
		}
		fmt.Fprintf(out, "password updated for %s\n", *email)
		return nil
	}
}

func createAPIKey(fs *flag.FlagSet) action {
	businessID := fs.String("business", "", "business id")
	name := fs.String("name", "default", "key label")
	return func(ctx context.Context, pool *pgxpool.Pool, out io.Writer) error {
		if *businessID == "" {
			return fmt.Errorf("create-api-key: -business is required")
		}
		key, err := apikeys.NewService(apikeys.NewRepository(pool)).Create(ctx, *businessID, *name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", key.Key)
		return nil
	}
}
