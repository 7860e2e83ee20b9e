package wp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// RenderedText is WordPress's {"rendered": "..."} wrapper. Post titles come
// back in this form on reads but are plain strings on writes, so both shapes
// decode.
type RenderedText struct {
	Rendered string `json:"rendered"`
}

// UnmarshalJSON accepts either a rendered-object or a bare string.
func (t *RenderedText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Rendered)
	}
	type alias RenderedText
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = RenderedText(a)
	return nil
}

// Post is the subset of the posts resource the pipeline reads.
type Post struct {
	ID     int          `json:"id"`
	Status string       `json:"status"`
	Slug   string       `json:"slug"`
	Link   string       `json:"link"`
	Title  RenderedText `json:"title"`
}

// PostQuery parameterizes GET /posts.
type PostQuery struct {
	Search  string
	Slug    string
	Status  string
	Page    int
	PerPage int
	OrderBy string
	Order   string
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Slug != "" {
		v.Set("slug", q.Slug)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.OrderBy != "" {
		v.Set("orderby", q.OrderBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	return v
}

// ListPosts returns one page of the posts listing.
// A page past the end of the collection returns an empty slice, not an error:
// WordPress signals invalid page numbers with HTTP 400 rest_post_invalid_page_number.
func (c *Client) ListPosts(ctx context.Context, q PostQuery) ([]Post, error) {
	var posts []Post
	err := c.getJSON(ctx, c.apiURL("/posts", q.values()), &posts)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && q.Page > 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost fetches a single post by id. A missing post returns ErrNotFound.
func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	var post Post
	err := c.getJSON(ctx, c.apiURL("/posts/"+strconv.Itoa(id), nil), &post)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

// CreatePost creates a post from the given payload fields.
func (c *Client) CreatePost(ctx context.Context, payload map[string]any) (*Post, error) {
	var post Post
	if err := c.postJSON(ctx, c.apiURL("/posts", nil), payload, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// UpdatePost applies a sparse payload to an existing post. Fields absent from
// the payload are left untouched server-side.
func (c *Client) UpdatePost(ctx context.Context, id int, payload map[string]any) (*Post, error) {
	var post Post
	if err := c.postJSON(ctx, c.apiURL("/posts/"+strconv.Itoa(id), nil), payload, &post); err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	return &post, nil
}
