package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kdimtricp/piiscan/internal/client"
	"github.com/kdimtricp/piiscan/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("PIISCAN_CONFIG"), "Path to piiscan.yaml")
		serverURL  = flag.String("server", "", "Analysis service URL (overrides config)")
		limit      = flag.Int("limit", 50, "Maximum number of jobs to list")
		offset     = flag.Int("offset", 0, "Listing offset")
		deleteID   = flag.String("delete", "", "Delete the job with this id instead of listing")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	c := client.New(cfg.ServerURL)
	ctx := context.Background()

	if *deleteID != "" {
		if err := c.DeleteJob(ctx, *deleteID); err != nil {
			log.Fatal("Failed to delete job: ", err)
		}
		fmt.Printf("🗑️  Deleted job %s\n", *deleteID)
		return
	}

	jobs, total, err := c.ListJobs(ctx, *limit, *offset)
	if err != nil {
		log.Fatal("Failed to list jobs: ", err)
	}

	if total == 0 {
		fmt.Println("No analysis jobs found")
		return
	}

	fmt.Printf("📊 Analysis jobs (%d total):\n", total)
	for _, j := range jobs {
		line := fmt.Sprintf("   • %s  %s", j.JobID, j.Status)
		if j.CreatedAt != "" {
			line += "  created " + j.CreatedAt
		}
		fmt.Println(line)
	}
}
