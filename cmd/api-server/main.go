// api-server 目录服务 API 入口
//
// 启动流程：加载配置 -> 按配置选择存储后端 -> 注册路由 -> 优雅停机。
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-admin/internal/apiserver/server"
	"catalog-admin/internal/config"
	"catalog-admin/internal/shared/storage"
	"catalog-admin/internal/shared/storage/driver/postgres"
	"catalog-admin/internal/shared/storage/driver/sqlite"
	"catalog-admin/internal/shared/storage/mongostore"
	"catalog-admin/internal/shared/storage/repository"
)

func main() {
	cfg := config.Load()
	log.Printf("[Main] 配置加载完成: %s", cfg)

	store, err := openStore(&cfg)
	if err != nil {
		log.Fatalf("[Main] 初始化存储失败: %v", err)
	}
	defer store.Close()

	h := server.NewHandler(store, &cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Main] API 服务启动，监听 :%s (driver=%s)", cfg.APIPort, cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Main] 服务异常退出: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Main] 收到退出信号，开始优雅停机...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Main] 停机超时，强制退出: %v", err)
	}
	log.Println("[Main] 服务已退出")
}

// openStore 按配置选择并初始化存储后端
func openStore(cfg *config.Config) (storage.PersistentStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.Storage.DSN, cfg.Storage.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("连接 PostgreSQL 失败: %w", err)
		}
		dialect := postgres.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("PostgreSQL 建表失败: %w", err)
		}
		return repository.NewStore(db, dialect), nil

	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("打开 SQLite 失败: %w", err)
		}
		dialect := sqlite.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("SQLite 建表失败: %w", err)
		}
		return repository.NewStore(db, dialect), nil

	case "mongo":
		store, err := mongostore.NewStore(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.MaxPool)
		if err != nil {
			return nil, fmt.Errorf("连接 MongoDB 失败: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.Storage.Driver)
	}
}
