package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stockroom/internal/adapter/handler"
	"stockroom/internal/adapter/storage"
	"stockroom/internal/core/index"
	"stockroom/internal/core/service"
	"stockroom/internal/port"
)

var (
	httpAddr   string
	storeKind  string
	sqlitePath string
	mysqlDSN   string
	redisAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the inventory HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", envOr("STOCKROOM_HTTP_ADDR", ":8080"), "HTTP listen address")
	serveCmd.Flags().StringVar(&storeKind, "store", envOr("STOCKROOM_STORE", "sqlite"), "record store backend: sqlite, mysql or memory")
	serveCmd.Flags().StringVar(&sqlitePath, "sqlite-path", envOr("STOCKROOM_SQLITE_PATH", "inventory.db"), "path to the sqlite database file")
	serveCmd.Flags().StringVar(&mysqlDSN, "mysql-dsn", envOr("STOCKROOM_MYSQL_DSN", "root:root@tcp(localhost:3306)/stockroom?parseTime=true"), "MySQL DSN")
	serveCmd.Flags().StringVar(&redisAddr, "redis-addr", os.Getenv("STOCKROOM_REDIS_ADDR"), "redis address for the stock mirror (empty disables it)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	logger := newLogger()

	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var cache port.StockCache
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		cache = storage.NewRedisCache(rdb)
		logger.Info("connected to redis", "addr", redisAddr)
	}

	idx := index.NewManager(store, logger)
	inventory := service.NewInventory(store, idx, cache, logger)
	if err := inventory.Initialize(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	handler.NewHTTPHandler(inventory, logger).Register(mux)

	srv := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, logger *slog.Logger) (port.RecordStore, error) {
	switch storeKind {
	case "memory":
		logger.Info("using in-memory store")
		return storage.NewMemoryStore(), nil

	case "sqlite":
		store, err := storage.OpenSQLite(sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("opened sqlite store", "path", sqlitePath)
		return store, nil

	case "mysql":
		db, err := sql.Open("mysql", mysqlDSN)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}

		store := storage.NewMySQLStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to mysql")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", storeKind)
	}
}
