package commands

import (
	"context"
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/apply-archive/internal/clients/applications"
	"github.com/maxaizer/apply-archive/internal/config"
	"github.com/maxaizer/apply-archive/internal/events"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/maxaizer/apply-archive/internal/repositories"
	"github.com/maxaizer/apply-archive/internal/services"
	"github.com/urfave/cli/v3"
	"io"
)

// AppContext holds everything a tracker command needs.
type AppContext struct {
	Config  *config.Config
	Db      *repositories.DbContext
	Local   *repositories.LocalRecords
	Storage *services.Storage
	Bus     EventBus.Bus
}

func NewAppContext(ctx context.Context, notices io.Writer) (*AppContext, error) {
	cfg := config.Get()
	logger.SetupWithConsole(cfg.Logger, io.Discard)

	dbContext, err := repositories.NewDbContext(cfg.Storage.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if err = dbContext.Migrate(); err != nil {
		_ = dbContext.Close()
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	local := repositories.NewLocalRecords(repositories.NewDataRepository(dbContext.DB))
	logger.AddHistoryHook(local, cfg.Logger.HistorySize, logger.Level(cfg.Logger.LogLevel))

	var remote services.RemoteBackend
	if cfg.Storage.RemoteEnabled() {
		client := applications.NewClient(cfg.Storage.APIURL, cfg.Storage.Timeout)
		client.SetRateLimit(cfg.Storage.MaxRequestsPerSecond)
		remote = client
	}

	bus := EventBus.New()
	if err = bus.Subscribe(events.NoticeTopic, printNotice(notices)); err != nil {
		_ = dbContext.Close()
		return nil, err
	}

	return &AppContext{
		Config:  cfg,
		Db:      dbContext,
		Local:   local,
		Storage: services.NewStorage(ctx, bus, local, remote),
		Bus:     bus,
	}, nil
}

func (ac *AppContext) Close() {
	logger.DetachHistory()
	_ = ac.Db.Close()
	logger.Cleanup()
}

func printNotice(out io.Writer) func(events.Notice) {
	return func(notice events.Notice) {
		_, _ = fmt.Fprintf(out, "[%s] %s\n", notice.Level, notice.Message)
	}
}

// withApp opens the application context around a command action.
func withApp(action func(ctx context.Context, cmd *cli.Command, app *AppContext) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := NewAppContext(ctx, cmd.Root().ErrWriter)
		if err != nil {
			return err
		}
		defer app.Close()
		return action(ctx, cmd, app)
	}
}
