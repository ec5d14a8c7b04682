package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kdimtricp/piiscan/internal/analysis"
	"github.com/kdimtricp/piiscan/internal/client"
	"github.com/kdimtricp/piiscan/internal/config"
	"github.com/kdimtricp/piiscan/internal/media"
	"github.com/kdimtricp/piiscan/internal/playback"
	"github.com/kdimtricp/piiscan/internal/poller"
)

func main() {
	var (
		fileRef    = flag.String("file", "", "Media file path or URL to analyze")
		text       = flag.String("text", "", "Analyze a text snippet instead of a media file")
		configPath = flag.String("config", os.Getenv("PIISCAN_CONFIG"), "Path to piiscan.yaml")
		serverURL  = flag.String("server", "", "Analysis service URL (overrides config)")
		jump       = flag.String("jump", "", `Jump playback to a result range, e.g. "0:05 -> 0:10"`)
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	c := client.NewWithTimeout(cfg.ServerURL, cfg.RequestTimeoutDuration())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *text != "" {
		runTextAnalysis(ctx, c, *text)
		return
	}

	if *fileRef == "" {
		log.Fatal("Please provide a media file with -file (or a snippet with -text)")
	}

	result := runVideoAnalysis(ctx, c, cfg, *fileRef)
	renderResult(result)

	if *jump != "" {
		nav := playback.NewNavigator(playback.LogSurface{})
		if err := nav.JumpTo(*jump); err != nil {
			// A bad range only spoils this one interaction.
			fmt.Printf("⚠️  Cannot jump to %q: %v\n", *jump, err)
		}
	}
}

func runVideoAnalysis(ctx context.Context, c *client.Client, cfg *config.Config, fileRef string) *analysis.Result {
	normalizer, err := media.NewNormalizer(cfg.CacheDir)
	if err != nil {
		log.Fatal("Failed to initialize media cache:", err)
	}

	resource, err := normalizer.Normalize(fileRef)
	if err != nil {
		log.Fatal("Failed to prepare media: ", err)
	}
	defer func() {
		if err := normalizer.Release(resource); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	fmt.Printf("📤 Uploading %s (%s)...\n", resource.Filename(), resource.ContentType)

	jobID, err := c.UploadVideo(ctx, resource)
	if err != nil {
		log.Fatal("Upload failed: ", err)
	}
	fmt.Printf("✅ Job created: %s\n", jobID)

	p := poller.New(c, jobID, poller.Options{
		Interval:    cfg.PollIntervalDuration(),
		MaxFailures: cfg.PollMaxFailures,
	})
	if err := p.Start(ctx); err != nil {
		log.Fatal("Failed to start polling:", err)
	}

	var final *analysis.Result
	for u := range p.Updates() {
		switch u.Kind {
		case poller.UpdateStatus:
			fmt.Printf("   status: %s\n", u.Result.Job.Status)
			final = u.Result
		case poller.UpdateTransient:
			fmt.Printf("   ⚠️  %v (will retry)\n", u.Err)
		case poller.UpdateFatal:
			log.Fatal("Polling failed: ", u.Err)
		}
	}

	if final == nil || !final.Job.Status.Terminal() {
		log.Fatal("Polling stopped before the job finished")
	}
	if final.Job.Status == analysis.StatusFailed {
		log.Fatal("Analysis failed: ", final.Job.Error)
	}
	return final
}

func runTextAnalysis(ctx context.Context, c *client.Client, text string) {
	res, err := c.AnalyzeText(ctx, text)
	if err != nil {
		log.Fatal("Text analysis failed: ", err)
	}

	fmt.Printf("🔍 Findings: %d\n", res.Summary.TotalFindings)
	for _, f := range res.Findings {
		fmt.Printf("   • %s: %q (confidence: %.2f)\n", f.Category, f.Text, f.Confidence)
	}
	if !res.Summary.HasConcerns {
		fmt.Println("✅ No privacy concerns detected")
	}
}

func renderResult(result *analysis.Result) {
	fmt.Println()
	fmt.Println("📋 Analysis Results")
	fmt.Println("===================")

	s := result.Summary
	fmt.Printf("Total findings: %d\n", s.TotalFindings)
	fmt.Printf("Segments with findings: %d\n", s.SegmentsWithFindings)
	if s.HasConcerns {
		fmt.Println("⚠️  Privacy concerns detected")
	} else {
		fmt.Println("✅ No privacy concerns")
	}

	if len(s.CountsByCategory) > 0 {
		fmt.Println("\nBy category:")
		for category, count := range s.CountsByCategory {
			fmt.Printf("   • %s: %d\n", category, count)
		}
	}

	segments := result.Segments()
	if len(segments) == 0 {
		return
	}

	fmt.Println("\nSegments:")
	for _, seg := range segments {
		fmt.Printf("   [%s] %s\n", seg.TimeRange, excerpt(seg.Text, 80))
		for _, f := range seg.Findings {
			fmt.Printf("      • %s: %q (confidence: %.2f)\n", f.Category, f.Text, f.Confidence)
		}
	}
}

func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
