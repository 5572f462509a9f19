package imaging

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
)

// maxProbeBytes bounds how much of a remote image is read to find its size.
const maxProbeBytes = 8 << 20

// ProbeURL fetches the image at imageURL far enough to read its pixel
// dimensions. Only the image header is decoded. A nil client uses
// http.DefaultClient.
func ProbeURL(ctx context.Context, client *http.Client, imageURL string) (width, height int, err error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid image URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("failed to fetch image: %s", resp.Status)
	}

	br := bufio.NewReader(io.LimitReader(resp.Body, maxProbeBytes))
	head, _ := br.Peek(262)
	if _, err := SniffMime(head); err != nil {
		return 0, 0, err
	}

	cfg, _, err := image.DecodeConfig(br)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
