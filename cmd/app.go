package cmd

import (
	"context"
	"errors"
	"time"

	"TemplePlayer/cache"
	"TemplePlayer/config"
	"TemplePlayer/core/device"
	"TemplePlayer/core/history"
	"TemplePlayer/core/player"
	"TemplePlayer/core/provider"
	"TemplePlayer/db"
	"TemplePlayer/logger"
	"TemplePlayer/model"
	"TemplePlayer/repository"
	"TemplePlayer/storage"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const searchCachePrefix = "templeplayer:"

// sources is the registry plus the connections its providers depend on.
type sources struct {
	registry *provider.Registry
	redis    *redis.Client
}

// openSources registers and initializes every configured provider. A backend
// that cannot be reached is logged and left out; local files always work.
func openSources(ctx context.Context, c *config.Config) *sources {
	s := &sources{registry: provider.NewRegistry()}
	reg := s.registry

	reg.SubscribeProviderError(func(ev provider.ProviderErrorEvent) {
		logger.Warn("[App] provider error",
			logger.String("provider", ev.ProviderID),
			logger.String("kind", string(ev.Kind())),
			logger.ErrorField(ev.Err))
	})

	reg.RegisterProvider(provider.NewLocalProvider())
	if c.TidalEnabled {
		reg.RegisterProvider(provider.NewTidalProvider())
	}

	if c.NeteaseEnabled {
		ncfg := provider.NeteaseConfig{
			BaseURL:  c.NeteaseAPIURL,
			Timeout:  c.NeteaseTimeout(),
			PageSize: c.NeteasePageSize,
			CacheTTL: c.SearchCacheTTL(),
		}
		if c.RedisEnabled {
			client, err := cache.ConnectRedis(ctx, c)
			if err != nil {
				logger.Warn("[App] search cache disabled", logger.ErrorField(err))
			} else {
				s.redis = client
				ncfg.Cache = cache.NewSearchCache(client, searchCachePrefix)
			}
		}
		reg.RegisterProvider(provider.NewNeteaseProvider(ncfg))
	}

	if c.MinioEnabled {
		client, err := storage.NewMinioClient(c)
		if err != nil {
			logger.Warn("[App] minio provider disabled", logger.ErrorField(err))
		} else {
			reg.RegisterProvider(provider.NewMinioProvider(client, provider.MinioConfig{
				Bucket:        c.MinioBucket,
				Prefix:        c.MinioPrefix,
				PresignExpiry: c.MinioPresignExpiry(),
			}))
		}
	}

	reg.Initialize(ctx)
	return s
}

func (s *sources) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.registry.Shutdown(ctx); err != nil {
		logger.Warn("[App] provider shutdown", logger.ErrorField(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Warn("[App] close redis", logger.ErrorField(err))
		}
	}
}

// app is a fully wired player.
type app struct {
	*sources
	device     *device.Device
	controller *player.Controller
	recorder   *history.Recorder
	db         *gorm.DB
}

func openApp(ctx context.Context, c *config.Config) (*app, error) {
	dev, err := device.NewSpeaker(device.Config{SampleRate: c.SampleRate})
	if err != nil {
		return nil, err
	}

	a := &app{sources: openSources(ctx, c), device: dev}
	a.controller = player.New(a.registry, dev, player.WithVolume(c.InitialVolume))
	a.controller.SubscribeError(func(ev player.ErrorEvent) {
		logger.Error("[App] playback error",
			logger.String("type", string(ev.Type)),
			logger.String("kind", string(provider.KindOf(ev.Err))),
			logger.ErrorField(ev.Err))
	})

	if c.HistoryEnabled {
		if err := a.openHistory(c); err != nil {
			logger.Warn("[App] play history disabled", logger.ErrorField(err))
		}
	}
	return a, nil
}

func (a *app) openHistory(c *config.Config) error {
	gdb, err := db.ConnectGormDB(c)
	if err != nil {
		return err
	}
	if err := db.AutoMigrateModels(gdb, &model.PlayRecord{}); err != nil {
		return errors.Join(err, db.CloseGormDB(gdb))
	}
	a.db = gdb
	a.recorder = history.NewRecorder(repository.NewHistoryRepository(gdb))
	a.recorder.Start(a.controller)
	return nil
}

func (a *app) close() {
	// Destroy closes the device as well
	a.controller.Destroy()
	if a.recorder != nil {
		a.recorder.Stop()
	}
	if err := db.CloseGormDB(a.db); err != nil {
		logger.Warn("[App] close database", logger.ErrorField(err))
	}
	a.sources.close()
}
