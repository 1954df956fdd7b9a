package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/kvrepo/notifycore/internal/config"
	"github.com/kvrepo/notifycore/internal/server"
	"github.com/kvrepo/notifycore/internal/store"
	"github.com/kvrepo/notifycore/internal/tls"
	"github.com/kvrepo/notifycore/pkg/watch"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatalf("Error parsing configuration: %v", err)
	}

	if cfg.TLS.Enabled && cfg.TLS.GenerateCert {
		if err := tls.EnsureCertificate(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			log.Fatalf("Failed to set up TLS certificate: %v", err)
		}
	}

	capacity := cfg.WatchCapacity
	if capacity <= 0 {
		capacity = watch.DefaultCapacity
	}
	registry := watch.NewRegistry(capacity)
	commitStore := store.New(registry, map[string]any{})
	defer commitStore.Close(nil)

	mirror, err := store.NewMirror(cfg.MirrorDir, commitStore)
	if err != nil {
		log.Fatalf("Failed to create snapshot mirror: %v", err)
	}
	if err := mirror.Start(); err != nil {
		log.Fatalf("Failed to start snapshot mirror: %v", err)
	}
	defer mirror.Close()

	httpServer := server.New(cfg, commitStore)
	router := httpServer.Routes()

	addr := fmt.Sprintf(":%d", cfg.Port)
	if cfg.TLS.Enabled {
		log.Printf("notifycore server running at https://localhost%s", addr)
		log.Printf("Mirroring commits from directory: %s", cfg.MirrorDir)
		log.Printf("Using TLS certificate: %s", cfg.TLS.CertFile)
		log.Printf("Using TLS key: %s", cfg.TLS.KeyFile)
		log.Fatal(http.ListenAndServeTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile, router))
	} else {
		log.Printf("notifycore server running at http://localhost%s", addr)
		log.Printf("Mirroring commits from directory: %s", cfg.MirrorDir)
		log.Fatal(http.ListenAndServe(addr, router))
	}
}
