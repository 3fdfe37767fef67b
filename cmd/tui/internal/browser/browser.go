// Package browser opens URLs in the user's default browser.
package browser

import (
	"context"
	"fmt"
	"io"

	opener "github.com/pkg/browser"
)

func init() {
	// The opener's output would otherwise land on top of the TUI.
	opener.Stdout = io.Discard
	opener.Stderr = io.Discard
}

// Open hands url to the platform opener. It matches auth.OpenerFunc.
func Open(_ context.Context, url string) error {
	if err := opener.OpenURL(url); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}

	return nil
}
