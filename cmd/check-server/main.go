package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kdimtricp/piiscan/internal/client"
	"github.com/kdimtricp/piiscan/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("PIISCAN_CONFIG"), "Path to piiscan.yaml")
		serverURL  = flag.String("server", "", "Analysis service URL (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	fmt.Println("🔍 Checking Analysis Service")
	fmt.Println("============================")
	fmt.Printf("Service URL: %s\n", cfg.ServerURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.New(cfg.ServerURL)

	start := time.Now()
	if err := c.Health(ctx); err != nil {
		fmt.Printf("❌ Service unreachable: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Service healthy (%.0fms)\n", float64(time.Since(start).Milliseconds()))

	jobs, total, err := c.ListJobs(ctx, 5, 0)
	if err != nil {
		fmt.Printf("⚠️  Could not list jobs: %v\n", err)
		return
	}

	fmt.Printf("📊 Known jobs: %d\n", total)
	for _, j := range jobs {
		fmt.Printf("   • %s: %s\n", j.JobID, j.Status)
	}
}
