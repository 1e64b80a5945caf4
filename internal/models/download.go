package models

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// RunInteractiveDownload prompts for a model variant and downloads it,
// showing progress on stdout. On macOS the matching encoder bundle is
// fetched as well so inference can use the Neural Engine.
func RunInteractiveDownload(ctx context.Context, mgr *Manager) error {
	fmt.Println("=== Model Download ===")
	fmt.Println()
	fmt.Println("Available models:")
	for _, m := range Catalog {
		marker := " "
		if m.Name == Default().Name {
			marker = "*"
		}
		fmt.Printf("  %s %-22s %8s\n", marker, m.Name, m.SizeHuman())
	}
	fmt.Println()
	fmt.Printf("Model to download [%s]: ", Default().Name)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading choice: %w", err)
	}

	name := strings.TrimSpace(line)
	model := Default()
	if name != "" {
		var ok bool
		model, ok = FromName(name)
		if !ok {
			return fmt.Errorf("unknown model %q (see the list above)", name)
		}
	}

	fmt.Println()
	path, err := mgr.Ensure(ctx, model, printProgress(model.Filename))
	if err != nil {
		return fmt.Errorf("downloading %s: %w", model.Name, err)
	}
	fmt.Printf("\nModel ready: %s\n", path)

	if runtime.GOOS == "darwin" {
		fmt.Println()
		encPath, err := mgr.EnsureEncoder(ctx, model, printProgress(model.EncoderZipName()))
		if err != nil {
			return fmt.Errorf("downloading encoder bundle: %w", err)
		}
		fmt.Printf("\nEncoder bundle ready: %s\n", encPath)
	}

	return nil
}

// printProgress returns a ProgressFunc that renders a single updating
// progress line on stdout.
func printProgress(label string) ProgressFunc {
	return func(downloaded, total int64) {
		mb := float64(downloaded) / (1024 * 1024)
		if total > 0 {
			pct := float64(downloaded) / float64(total) * 100
			fmt.Printf("\r  %s: %.1f MB / %.1f MB (%.0f%%)",
				label, mb, float64(total)/(1024*1024), pct)
		} else {
			fmt.Printf("\r  %s: %.1f MB downloaded", label, mb)
		}
	}
}
