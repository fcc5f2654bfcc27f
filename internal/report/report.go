// Package report renders optimizer and verifier results for a terminal.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"siteops/internal/domain"
)

const (
	pass = "✅"
	fail = "❌"
	warn = "⚠️ "
)

var numbers = message.NewPrinter(language.English)

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

func WriteOptimizeRun(w io.Writer, run *domain.OptimizeRun) {
	for _, r := range run.Results {
		if r.Skipped {
			fmt.Fprintf(w, "File not found: %s\n", r.Original.Path)
			continue
		}

		fmt.Fprintf(w, "\nOptimizing: %s\n", filepath.Base(r.Original.Path))
		fmt.Fprintf(w, "Original size: %.2f MB\n", megabytes(r.Original.Size))
		fmt.Fprintf(w, "Original dimensions: (%d, %d)\n", r.Original.Width, r.Original.Height)
		if r.Resized {
			fmt.Fprintf(w, "Resized to: (%d, %d)\n", r.Optimized.Width, r.Optimized.Height)
		}
		if r.BackupKey != "" {
			fmt.Fprintf(w, "Original backed up to: %s\n", r.BackupKey)
		}
		fmt.Fprintf(w, "Optimized size: %.2f MB\n", megabytes(r.Optimized.Size))
		fmt.Fprintf(w, "Reduction: %.1f%%\n", r.ReductionPercent())
		fmt.Fprintln(w, "Replaced original with optimized version")
	}

	fmt.Fprintln(w, "\n✓ Image optimization complete!")
}

func WriteVerification(w io.Writer, r *domain.VerificationReport, guide string) {
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Deployment Verification")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "1. Testing site accessibility...")
	if r.StatusCode == 0 {
		writeError(w, r)
		return
	}
	fmt.Fprintf(w, "   %s Site is accessible (HTTP %d)\n\n", pass, r.StatusCode)

	fmt.Fprintln(w, "2. Checking HTML content...")
	mark(w, r.RootFound, "React root element found", "React root element NOT found")
	if r.JSBundle == "" {
		fmt.Fprintf(w, "   %s JavaScript bundle NOT found\n", fail)
		return
	}
	fmt.Fprintf(w, "   %s JavaScript bundle found: %s\n", pass, r.JSBundle)
	if r.CSSBundle != "" {
		fmt.Fprintf(w, "   %s CSS bundle found: %s\n", pass, r.CSSBundle)
	} else {
		fmt.Fprintf(w, "   %s CSS bundle NOT found\n", fail)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "3. Downloading and analyzing JavaScript bundle...")
	if r.Error != "" {
		writeError(w, r)
		return
	}
	fmt.Fprintf(w, "   Bundle size: %s bytes (%.2f MB)\n\n",
		numbers.Sprintf("%d", r.BundleSize), megabytes(int64(r.BundleSize)))

	fmt.Fprintln(w, "4. Checking for deployed components...")
	for _, c := range r.Checks {
		mark(w, c.Found, c.Feature.Description+" found", c.Feature.Description+" NOT found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "5. Summary")
	fmt.Fprintf(w, "   Components/Features detected: %d/%d\n", r.Found, len(r.Checks))
	if r.Passed {
		fmt.Fprintf(w, "   %s Deployment appears valid\n", pass)
	} else {
		fmt.Fprintf(w, "   %s Some components may be missing\n", warn)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Manual Testing Required:")
	fmt.Fprintf(w, "1. Login to: %s\n", r.URL)
	fmt.Fprintln(w, "2. Navigate to: Admin Dashboard → Accessibility Audit")
	fmt.Fprintln(w, "3. Verify enhanced page with filters and bulk operations")
	if guide != "" {
		fmt.Fprintf(w, "4. Follow: %s\n", guide)
	}
	fmt.Fprintln(w, rule)
}

func mark(w io.Writer, ok bool, yes, no string) {
	if ok {
		fmt.Fprintf(w, "   %s %s\n", pass, yes)
		return
	}
	fmt.Fprintf(w, "   %s %s\n", fail, no)
}

func writeError(w io.Writer, r *domain.VerificationReport) {
	fmt.Fprintf(w, "%s Error: %s\n", fail, r.Error)
}
