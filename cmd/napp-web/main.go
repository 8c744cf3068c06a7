package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/napphq/napp/internal/backup"
	"github.com/napphq/napp/internal/config"
	"github.com/napphq/napp/internal/notify"
	"github.com/napphq/napp/internal/server"
	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/internal/storage/postgres"
	"github.com/napphq/napp/internal/storage/sqlite"
	"github.com/napphq/napp/pkg/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.SeedCategories(ctx, types.DefaultCategories()); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	if cfg.Backup.Enabled && cfg.Storage.StorageEngine == "sqlite" {
		backupSvc, err := backup.NewService(backup.Config{
			DBPath:   cfg.Storage.DataPath + "/napp.db",
			Dir:      cfg.Backup.Path,
			Interval: cfg.Backup.Interval,
			Verify:   cfg.Backup.Verify,
		})
		if err != nil {
			log.Fatalf("Failed to initialize backup service: %v", err)
		}
		go func() {
			if err := backupSvc.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("Backup service stopped: %v", err)
			}
		}()
	}

	addr, hub := server.Start(ctx, cfg, store)
	log.Printf("Napp API running at http://%s", addr)

	// Relay correlation events written by napp-loader to websocket clients.
	watcher := notify.NewEventWatcher(cfg.Storage.DataPath, func(notifType string, eventID int64) {
		ev, err := store.GetEvent(ctx, eventID)
		if err != nil {
			log.Printf("notify: failed to load event %d: %v", eventID, err)
			return
		}
		switch notifType {
		case notify.TypeEventCreated:
			hub.EventCreated(*ev)
		case notify.TypeEventUpdated:
			hub.EventUpdated(*ev)
		}
	})
	if err := watcher.Start(); err != nil {
		log.Printf("notify: watcher failed to start: %v", err)
	} else {
		defer watcher.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore builds the configured storage backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		return postgres.New(cfg.Storage.PostgresDSN)
	}
	return sqlite.New(cfg.Storage.DataPath + "/napp.db")
}
