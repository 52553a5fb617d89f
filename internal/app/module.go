// Package app composes the client daemon: config, logging, the bus,
// the read-cursor store, the websocket transport, and the sync engine,
// wired together with fx.
package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/WinstonKong/bubble-chat/internal/bus"
	"github.com/WinstonKong/bubble-chat/internal/config"
	"github.com/WinstonKong/bubble-chat/internal/logging"
	"github.com/WinstonKong/bubble-chat/internal/readstore"
	"github.com/WinstonKong/bubble-chat/internal/session"
	"github.com/WinstonKong/bubble-chat/internal/status"
	intsync "github.com/WinstonKong/bubble-chat/internal/sync"
	"github.com/WinstonKong/bubble-chat/internal/transport"
)

// How long read-cursor movement is allowed to settle before a
// channelUnread broadcast goes out.
const broadcastDelay = 500 * time.Millisecond

// Params holds the resolved startup configuration passed to the fx module.
type Params struct {
	UserID string
	Config *config.Config
}

// Module returns the fx module for the client daemon.
func Module(p Params) fx.Option {
	return fx.Module("app",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideDB,
			provideReadStore,
			provideAdapter,
			provideEngine,
			provideBroadcaster,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.UserID), p.UserID)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*session.Lock, error) {
	if err := session.EnsureDir(p.UserID); err != nil {
		return nil, err
	}
	logger.Info("acquiring user lock", zap.String("user", p.UserID))
	l, err := session.AcquireLock(session.Dir(p.UserID))
	if err != nil {
		return nil, err
	}
	logger.Info("user lock acquired")
	return l, nil
}

func provideDB(p Params, _ *session.Lock, logger *zap.Logger) (*readstore.DB, error) {
	dbPath := session.DBPath(p.UserID)
	db, err := readstore.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("read store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideReadStore(db *readstore.DB, logger *zap.Logger) *readstore.Store {
	return readstore.NewStore(db, logger)
}

func provideAdapter(p Params, b *bus.Bus, m *status.Machine, logger *zap.Logger) *transport.Adapter {
	return transport.New(transport.Config{
		URL:               p.Config.ServerURL,
		UserID:            p.UserID,
		ReconnectAttempts: p.Config.ReconnectAttempts,
	}, b, m, logger)
}

func provideEngine(p Params, store *readstore.Store, adapter *transport.Adapter, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(p.UserID, store, adapter, b, logger)
}

func provideBroadcaster(b *bus.Bus, adapter *transport.Adapter, logger *zap.Logger) *Broadcaster {
	return NewBroadcaster(b, adapter, broadcastDelay, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *session.Lock, db *readstore.DB, adapter *transport.Adapter, engine *intsync.Engine, broadcaster *Broadcaster, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			engine.Start(context.Background())
			broadcaster.Start(context.Background())

			// Connect in the background: a server that is down at
			// startup should not keep the daemon from coming up.
			go func() {
				readInfo := engine.Snapshot().ReadCursors
				if err := adapter.Connect(context.Background(), readInfo); err != nil {
					logger.Error("initial connect failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			broadcaster.Stop()
			engine.Stop()
			adapter.Close()
			if err := db.Close(); err != nil {
				logger.Warn("error closing read store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
