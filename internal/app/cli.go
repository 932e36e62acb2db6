package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"github.com/y0lz/backend-json/internal/docstore"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/notify"
	"github.com/y0lz/backend-json/internal/service/lifecycle"
	"github.com/y0lz/backend-json/internal/service/migration"
	"github.com/y0lz/backend-json/internal/service/reset"
	"github.com/y0lz/backend-json/internal/storage"
	"github.com/y0lz/backend-json/internal/transport/kafka"
)

// ErrUsage is returned for an unknown command or wrong arguments.
var ErrUsage = errors.New("usage: dispatchctl [flags] info | sync <local-to-remote|remote-to-local> | reset-shifts | sync-shifts | backup")

type cliDeps struct {
	dig.In

	Ctx        context.Context
	Logger     logx.Logger
	Pool       *pgxpool.Pool
	Facade     *storage.Facade
	Local      *docstore.Store
	Migration  *migration.Engine
	Reset      *reset.Service
	Lifecycle  *lifecycle.Manager
	Dispatcher *notify.Dispatcher
	Producer   *kafka.Producer
}

// CLI runs one operator command against the configured storage.
type CLI struct {
	out io.Writer
	now func() time.Time
}

// NewCLI returns a CLI that prints results to out as JSON.
func NewCLI(out io.Writer) *CLI {
	return &CLI{out: out, now: time.Now}
}

// Run executes args[0] with the remaining args.
func (c *CLI) Run(container *dig.Container, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	return container.Invoke(func(d cliDeps) error {
		defer closeResources(d.Logger, d.Dispatcher, d.Producer, d.Pool)

		res, err := c.exec(d, args[0], args[1:])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	})
}

func (c *CLI) exec(d cliDeps, cmd string, args []string) (any, error) {
	ctx := d.Ctx
	switch cmd {
	case "info":
		return d.Facade.Info(ctx), nil

	case "sync":
		if len(args) != 1 {
			return nil, ErrUsage
		}
		dir := domain.SyncDirection(args[0])
		if !dir.Valid() {
			return nil, fmt.Errorf("direction %q: %w", dir, ErrUsage)
		}
		if err := migrateWithRetry(ctx, d.Logger, d.Pool, 3, time.Second); err != nil {
			return nil, err
		}
		return d.Migration.SyncAllPeople(ctx, dir)

	case "reset-shifts":
		n, err := d.Reset.Run(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"removed": n}, nil

	case "sync-shifts":
		n, err := d.Lifecycle.SyncShiftsWithPeople(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"updated": n}, nil

	case "backup":
		path, err := d.Local.Backup(ctx, c.now())
		if err != nil {
			return nil, err
		}
		return map[string]string{"path": path}, nil

	default:
		return nil, fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}
