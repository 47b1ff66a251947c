package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CascadeWatch/internal/handler/ws"
	mid "CascadeWatch/internal/middleware"
	"CascadeWatch/internal/usecase"
	"CascadeWatch/pkg/cache"
	pkgch "CascadeWatch/pkg/clickhouse"
	"CascadeWatch/pkg/config"
	xhttp "CascadeWatch/pkg/http"
	pkgkafka "CascadeWatch/pkg/kafka"
	applogger "CascadeWatch/pkg/logger"
	"CascadeWatch/pkg/metrics"
	"CascadeWatch/pkg/queue"
)

// Components are the long-lived parts the App starts and stops. Optional
// infrastructure is nil when disabled in config.
type Components struct {
	Registry     *usecase.Registry
	Control      *usecase.ControlUseCase
	Processor    *usecase.TickProcessor
	Pipeline     *mid.TickPipeline
	Broadcaster  *usecase.StatusBroadcaster
	Hub          *ws.Hub
	Recorder     *metrics.Recorder
	HTTPServer   *xhttp.Server
	Consumer     *pkgkafka.Consumer
	TicksHandler *usecase.KafkaTicksHandler
	Collector    *usecase.TickCollector
	PersistQueue *queue.RedisQueue
	Redis        *cache.RedisCache
	ClickHouse   *pkgch.Client
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	log *applogger.Logger
	c   Components

	cancel context.CancelFunc
}

// New creates the App and connects the watch-list hooks: a newly watched
// symbol is subscribed on the websocket feed, an unwatched one releases its
// throttle bucket and metric series.
func New(cfg *config.Config, log *applogger.Logger, c Components) *App {
	a := &App{cfg: cfg, log: log, c: c}

	if c.Control != nil {
		if c.Collector != nil {
			c.Control.OnWatch(func(ctx context.Context, symbol string) {
				if err := c.Collector.Subscribe(ctx, symbol); err != nil {
					log.Warn("feed subscribe failed", applogger.String("symbol", symbol), applogger.Error(err))
				}
			})
		}
		c.Control.OnUnwatch(func(symbol string) {
			if c.Pipeline != nil {
				c.Pipeline.Forget(symbol)
			}
			if c.Recorder != nil {
				c.Recorder.Forget(symbol)
			}
		})
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	defer cancel()

	if err := a.start(ctx); err != nil {
		a.shutdown()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	a.shutdown()
	return nil
}

func (a *App) start(ctx context.Context) error {
	rctx, rcancel := context.WithTimeout(ctx, 5*time.Second)
	if err := a.c.Control.Restore(rctx); err != nil {
		a.log.Warn("auto flags not restored, using config defaults", applogger.Error(err))
	}
	rcancel()

	a.c.Broadcaster.Start(ctx)

	if a.c.PersistQueue != nil {
		if err := a.c.PersistQueue.Start(); err != nil {
			return fmt.Errorf("start persist queue: %w", err)
		}
	}

	switch a.cfg.Source {
	case config.SourceKafka:
		if a.c.Consumer == nil || a.c.TicksHandler == nil {
			return fmt.Errorf("kafka source selected but consumer is not configured")
		}
		a.c.Consumer.RegisterHandler(a.c.TicksHandler)
		a.c.Consumer.WithConsumerHook(pkgkafka.NewHookChain(
			pkgkafka.TraceHook(),
			pkgkafka.SlowHandleHook(a.log, 250*time.Millisecond),
		))
		if err := a.c.Consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	case config.SourceWebSocket:
		if a.c.Collector == nil {
			return fmt.Errorf("websocket source selected but feed is not configured")
		}
		if err := a.c.Collector.Start(ctx); err != nil {
			return fmt.Errorf("start tick feed: %w", err)
		}
	}

	if err := a.c.HTTPServer.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	a.log.Info("cascadewatch started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("source", a.cfg.Source),
		applogger.Strings("symbols", a.c.Registry.Symbols()),
		applogger.Bool("auto_default", a.c.Registry.AutoEnabledDefault()),
		applogger.Int("port", a.cfg.Server.Port),
	)
	return nil
}

// shutdown stops intake first, then drains the processing side, then closes
// infrastructure clients.
func (a *App) shutdown() {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.log.Info("shutting down...")

	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.c.Collector != nil {
		if err := a.c.Collector.Shutdown(ctx); err != nil {
			a.log.Warn("tick feed stop error", applogger.Error(err))
		}
	}

	if err := a.c.HTTPServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.c.Broadcaster.Stop()
	if a.c.Hub != nil {
		a.c.Hub.Close()
	}
	if a.cancel != nil {
		a.cancel()
	}

	if a.c.PersistQueue != nil {
		if pending, retry, dead, err := a.c.PersistQueue.Depth(ctx); err == nil {
			a.log.Info("persist queue depth",
				applogger.Int64("pending", pending),
				applogger.Int64("retry", retry),
				applogger.Int64("dead", dead))
		}
		if err := a.c.PersistQueue.Stop(ctx); err != nil {
			a.log.Warn("persist queue stop error", applogger.Error(err))
		}
	}
	a.c.Processor.Close()

	if a.c.ClickHouse != nil {
		if err := a.c.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.RemoveCollector()
	if a.c.Redis != nil {
		if err := a.c.Redis.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
