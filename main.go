package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"pr-timeline/bitbucket"
	"pr-timeline/config"
	"pr-timeline/identity"
	"pr-timeline/logging"
	"pr-timeline/report"
	"pr-timeline/timeline"
)

// User-facing messages are a fixed template set; anything more
// detailed goes to the diagnostic log only.
const (
	msgNotConfigured = "❌ Not configured. Set BITBUCKET_ORGANIZATION and BITBUCKET_PROJECT (letters, digits, - and _ only), e.g. in a .env file."
	msgIdentity      = "❌ Could not determine the current user. Confirm you are logged in to the site and try again."
	msgNoResults     = "No merged pull requests found for %s %d."
	msgGeneric       = "❌ Report generation failed. See the log for details."
	msgTruncated     = "⚠️  Stopped after %d pages (safety limit); the report covers what was collected."
	msgPartial       = "⚠️  A result page could not be read; the report covers what was collected."
)

func main() {
	now := time.Now()

	var (
		monthFlag = flag.Int("month", int(now.Month()), "Target month (1-12)")
		yearFlag  = flag.Int("year", now.Year(), "Target year")
		copyFlag  = flag.Bool("copy", false, "Copy the report to the clipboard")
		outFlag   = flag.String("o", "", "Write the report to a file")
	)
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		if errors.Is(err, config.ErrNotConfigured) {
			fmt.Println(msgNotConfigured)
			os.Exit(1)
		}
		stdlog.Fatalf("cannot initialize config: %v", err)
	}

	log, err := logging.New(cfg.Logging.Level)
	if err != nil {
		stdlog.Fatalf("cannot initialize logger: %v", err)
	}
	defer log.Sync()

	if *monthFlag < 1 || *monthFlag > 12 {
		fmt.Println(msgGeneric)
		log.Errorw("invalid month flag", "month", *monthFlag)
		os.Exit(1)
	}
	year, month := *yearFlag, time.Month(*monthFlag)

	ctx := context.Background()
	client := bitbucket.NewClient(cfg, log)

	fmt.Printf("Merged-PR timeline for %s/%s, %s %d\n\n",
		cfg.Bitbucket.Organization, cfg.Bitbucket.Project, month, year)

	// Identity is resolved from the landing page before any result
	// page is touched; both identity and configuration fail fast.
	landing, err := client.FetchDocument(ctx, cfg.Bitbucket.BaseURL)
	if err != nil {
		fmt.Println(msgGeneric)
		log.Errorw("landing page fetch failed", "error", err)
		os.Exit(1)
	}
	userID, err := identity.ResolveCurrentUserID(landing)
	if err != nil {
		fmt.Println(msgIdentity)
		log.Infow("identity resolution failed", "error", err)
		os.Exit(1)
	}
	log.Debugw("resolved current user", "id", userID)

	result, err := client.CollectMergedPRs(ctx, userID, year, month, func(page, collected int) {
		fmt.Printf("🔄 page %d: %d PRs so far\n", page, collected)
	})
	if err != nil {
		fmt.Println(msgGeneric)
		log.Errorw("collection failed", "error", err)
		os.Exit(1)
	}
	if result.Truncated {
		fmt.Printf(msgTruncated+"\n", result.Pages)
	}
	if result.Partial {
		fmt.Println(msgPartial)
	}

	entries := timeline.Synthesize(result.PullRequests)
	if len(entries) == 0 {
		fmt.Printf(msgNoResults+"\n", month, year)
		return
	}

	text := report.Format(entries)
	fmt.Printf("\n✅ %d PRs, %d timeline entries\n\n%s\n", len(result.PullRequests), len(entries), text)

	if *outFlag != "" {
		if err := report.ExportToFile(text, *outFlag); err != nil {
			fmt.Println(msgGeneric)
			log.Errorw("file export failed", "file", *outFlag, "error", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Report written to: %s\n", *outFlag)
	}

	if *copyFlag {
		if err := report.CopyToClipboard(text); err != nil {
			// Clipboard failure does not invalidate the printed report.
			fmt.Println(msgGeneric)
			log.Warnw("clipboard copy failed", "error", err)
			return
		}
		fmt.Println("✅ Report copied to clipboard")
	}
}
