// Command console-admin is the operational CLI for the admin console:
// migrations plus operator account management.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/nanolancers/admin-console/config"
	"github.com/nanolancers/admin-console/internal/bootstrap"
	"github.com/nanolancers/admin-console/internal/data"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const commandTimeout = 5 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrate,
		},
		"add-user": {
			name:        "add-user",
			description: "Create an operator account",
			run:         runAddUser,
		},
		"list-users": {
			name:        "list-users",
			description: "List operator accounts",
			run:         runListUsers,
		},
		"set-active": {
			name:        "set-active",
			description: "Activate or deactivate an operator account",
			run:         runSetActive,
		},
		"assign-role": {
			name:        "assign-role",
			description: "Assign a role to an operator account",
			run:         runAssignRole,
		},
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: console-admin <command> [flags]")
	fmt.Fprintln(os.Stderr)

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, cmds[name].description)
	}
	_ = w.Flush()
}

func connect(ctx *commandContext) (*sql.DB, error) {
	return bootstrap.ConnectDB(ctx.Config.Postgres, ctx.Logger)
}

func withDB(ctx *commandContext, fn func(runCtx context.Context, db *sql.DB) error) error {
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			ctx.Logger.Error("close database failed", "error", cerr)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx.Ctx, commandTimeout)
	defer cancel()
	return fn(runCtx, db)
}

func runMigrate(ctx *commandContext, _ []string) error {
	return withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		return bootstrap.RunMigrations(runCtx, db, ctx.Logger)
	})
}

func runAddUser(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := fs.String("email", "", "operator email (required)")
	password := fs.String("password", "", "initial password (required)")
	fullName := fs.String("name", "", "full name")
	roleID := fs.String("role", "", "role id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		repo := data.NewAdminUserRepo(db)
		user, err := repo.Create(runCtx, data.CreateAdminUserRequest{
			Email:    *email,
			FullName: *fullName,
			Password: *password,
			RoleID:   *roleID,
		})
		if err != nil {
			return err
		}
		ctx.Logger.InfoContext(runCtx, "operator created", "id", user.ID, "email", user.Email)
		return nil
	})
}

func runListUsers(ctx *commandContext, _ []string) error {
	return withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		repo := data.NewAdminUserRepo(db)
		users, err := repo.List(runCtx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tACTIVE\tROLE")
		for _, u := range users {
			role := ""
			if u.Role != nil {
				role = u.Role.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", u.ID, u.Email, u.FullName, u.Active, role)
		}
		return w.Flush()
	})
}

func runSetActive(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("set-active", flag.ExitOnError)
	id := fs.String("id", "", "operator id (required)")
	active := fs.Bool("active", true, "desired active state")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	return withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		return data.NewAdminUserRepo(db).SetActive(runCtx, *id, *active)
	})
}

func runAssignRole(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("assign-role", flag.ExitOnError)
	id := fs.String("id", "", "operator id (required)")
	roleID := fs.String("role", "", "role id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *roleID == "" {
		return fmt.Errorf("-id and -role are required")
	}

	return withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		return data.NewAdminUserRepo(db).AssignRole(runCtx, *id, *roleID)
	})
}
