package container

import (
	"context"
	"fmt"

	"depot/internal/core/config"
	"depot/internal/inventory/boxes"
	"depot/internal/inventory/changelog"
	"depot/internal/inventory/storage"
	"depot/internal/inventory/waste"
	"depot/internal/live"
	"depot/internal/rate_limiter"
	"depot/internal/realtime"
	"depot/pkg/auditlog"

	"go.uber.org/zap"
)

type Container struct {
	Config           *config.Config
	Logger           *zap.Logger
	Store            realtime.Store
	Sync             *realtime.Sync
	AuditLog         *auditlog.Auditlog
	RateLimiter      *rate_limiter.RateLimiter
	StorageHandler   *storage.StorageHandler
	BoxHandler       *boxes.BoxHandler
	WasteHandler     *waste.WasteHandler
	ChangelogHandler *changelog.ChangelogHandler
	LiveHandler      *live.LiveHandler
}

// NewAppContainer starts the live sync on store and wires every view to it.
func NewAppContainer(ctx context.Context, cfg *config.Config, store realtime.Store, logger *zap.Logger) (*Container, error) {
	formatter, err := changelog.NewFormatter(cfg.LogTimezone, cfg.LogTimeLayout)
	if err != nil {
		return nil, err
	}

	sync, err := realtime.StartSync(ctx, store, logger)
	if err != nil {
		return nil, fmt.Errorf("start sync: %w", err)
	}

	auditLog := auditlog.NewAuditLog(store, logger)
	storageService := storage.NewService(sync, auditLog)
	boxService := boxes.NewService(sync, auditLog)
	wasteService := waste.NewService(sync)
	changelogService := changelog.NewService(sync, auditLog, formatter)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Store:            store,
		Sync:             sync,
		AuditLog:         auditLog,
		RateLimiter:      rate_limiter.NewRateLimiter(cfg.WriteLimit, cfg.WriteWindow),
		StorageHandler:   storage.NewStorageHandler(storageService),
		BoxHandler:       boxes.NewBoxHandler(boxService),
		WasteHandler:     waste.NewWasteHandler(wasteService),
		ChangelogHandler: changelog.NewChangelogHandler(changelogService),
		LiveHandler:      live.NewLiveHandler(store, logger),
	}, nil
}

func (c *Container) Close() error {
	c.Sync.Stop()
	c.RateLimiter.Stop()
	return c.Store.Close()
}
