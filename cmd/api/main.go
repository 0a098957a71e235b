package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	apiCashflow "proforma_engine/pkg/api/cashflow"
	apiSchedule "proforma_engine/pkg/api/schedule"
	"proforma_engine/pkg/core/store"
)

// ServerConfig is loaded from config/server.yaml. Listen address falls back
// to :8080 when the file is absent.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

func loadConfig() ServerConfig {
	cfg := ServerConfig{Listen: ":8080"}
	data, err := os.ReadFile("config/server.yaml")
	if err != nil {
		fmt.Println("[CONFIG] No config/server.yaml, using defaults")
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Printf("[WARNING] Failed to parse server config: %v\n", err)
	}
	return cfg
}

func main() {
	// Load environment variables
	godotenv.Load()
	cfg := loadConfig()

	ctx := context.Background()
	db, err := store.Connect(ctx)
	if err != nil {
		fmt.Printf("[FATAL] Database init failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := store.NewProjectRepo(db)

	// Cash flow endpoints
	cashflowHandler := apiCashflow.NewHandler(repo)
	http.HandleFunc("/api/cashflow/generate", cashflowHandler.HandleGenerate)

	// Schedule endpoints
	scheduleHandler := apiSchedule.NewHandler(repo)
	http.HandleFunc("/api/schedule/critical-path", scheduleHandler.HandleCriticalPath)

	fmt.Printf("API server starting on %s...\n", cfg.Listen)
	fmt.Println("  - POST /api/cashflow/generate")
	fmt.Println("  - POST /api/schedule/critical-path")

	if err := http.ListenAndServe(cfg.Listen, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
