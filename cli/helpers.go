package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ladzaretti/bunker/clipboard"
	"github.com/ladzaretti/bunker/vault"
)

func secondsToDuration(s uint64) time.Duration {
	return time.Duration(s) * time.Second
}

// readAllTrim reads every byte from r and trims all trailing CR and LF
// characters, the shape piped non-interactive secret input takes.
func readAllTrim(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return []byte(strings.TrimRight(string(data), "\r\n")), nil
}

// copyEntryValue copies an entry's plaintext to the clipboard, honoring the
// configured clipboard-clear timeout.
func copyEntryValue(ctx context.Context, o *DefaultBunkerOptions, entry vault.Entry) error {
	timeout := defaultClipboardTimeout
	if o.config != nil && o.config.ClipboardTimeout > 0 {
		timeout = secondsToDuration(o.config.ClipboardTimeout)
	}

	if err := clipboard.CopyWithTimeout(ctx, string(entry.PlaintextValue()), timeout); err != nil {
		return err
	}

	o.Infof("copied %q to clipboard (clearing in %s)\n", entry.Key, timeout)

	return nil
}
