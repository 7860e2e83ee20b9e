package wp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
)

// Media is the subset of the media resource the pipeline reads back.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

// UploadMedia uploads a binary asset to the media library. The filename
// travels in the Content-Disposition header per the wp/v2 media contract.
func (c *Client) UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL("/media", nil), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	var media Media
	if err := c.send(req, &media); err != nil {
		return nil, fmt.Errorf("upload media %q: %w", filename, err)
	}
	return &media, nil
}
