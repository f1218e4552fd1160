package outwriter

import (
	"fmt"
	"os"

	"github.com/huangsam/tiercache/internal/contract"
	"golang.org/x/term"
)

// getMaxTableKeyWidth calculates the maximum width for record keys in table output
// based on terminal width.
func getMaxTableKeyWidth() int {
	termWidth := 80 // Conservative default for narrow terminals and CI
	if detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && detectedWidth > 0 {
		termWidth = detectedWidth
	}

	// Collection + Tier + Updated + Size with borders/padding
	baseWidth := 70

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}

// formatBytes renders a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatLabel colors a tier label when colors are enabled.
func formatLabel(label string, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(label)
	}
	return label
}
