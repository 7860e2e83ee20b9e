package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperengineering/pressync/internal/wp"
)

// mockAPI implements wp.API for testing without a live site.
type mockAPI struct {
	pingErr error

	// posts is the full listing, newest first.
	posts     []wp.Post
	listErr   error
	listCalls int

	terms         map[string][]wp.Term
	listTermsErr  error
	createTermErr error
	createdTerms  []string
	nextTermID    int

	createPostErr   error
	updatePostErr   error
	nextPostID      int
	createdPayloads []map[string]any
	updatedIDs      []int
	updatedPayloads []map[string]any

	uploadedFiles []string
	uploadedMIMEs []string
	uploadErr     error
}

var _ wp.API = (*mockAPI)(nil)

func (m *mockAPI) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockAPI) ListPosts(ctx context.Context, q wp.PostQuery) ([]wp.Post, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if q.Slug != "" {
		for _, p := range m.posts {
			if p.Slug == q.Slug {
				return []wp.Post{p}, nil
			}
		}
		return nil, nil
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = 10
	}
	start := (page - 1) * perPage
	if start >= len(m.posts) {
		return nil, nil
	}
	end := start + perPage
	if end > len(m.posts) {
		end = len(m.posts)
	}
	return m.posts[start:end], nil
}

func (m *mockAPI) GetPost(ctx context.Context, id int) (*wp.Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, wp.ErrNotFound
}

func (m *mockAPI) CreatePost(ctx context.Context, payload map[string]any) (*wp.Post, error) {
	if m.createPostErr != nil {
		return nil, m.createPostErr
	}
	m.createdPayloads = append(m.createdPayloads, payload)
	m.nextPostID++
	title, _ := payload["title"].(string)
	status, _ := payload["status"].(string)
	return &wp.Post{
		ID:     1000 + m.nextPostID,
		Status: status,
		Title:  wp.RenderedText{Rendered: title},
	}, nil
}

func (m *mockAPI) UpdatePost(ctx context.Context, id int, payload map[string]any) (*wp.Post, error) {
	if m.updatePostErr != nil {
		return nil, m.updatePostErr
	}
	m.updatedIDs = append(m.updatedIDs, id)
	m.updatedPayloads = append(m.updatedPayloads, payload)
	status, _ := payload["status"].(string)
	if status == "" {
		status = "publish"
	}
	title, _ := payload["title"].(string)
	return &wp.Post{
		ID:     id,
		Status: status,
		Title:  wp.RenderedText{Rendered: title},
	}, nil
}

func (m *mockAPI) ListTerms(ctx context.Context, taxonomy, search string) ([]wp.Term, error) {
	if m.listTermsErr != nil {
		return nil, m.listTermsErr
	}
	var matched []wp.Term
	for _, t := range m.terms[taxonomy] {
		if search == "" || strings.Contains(strings.ToLower(t.Name), strings.ToLower(search)) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func (m *mockAPI) CreateTerm(ctx context.Context, taxonomy, name string) (*wp.Term, error) {
	if m.createTermErr != nil {
		return nil, m.createTermErr
	}
	m.nextTermID++
	term := wp.Term{ID: 500 + m.nextTermID, Name: name}
	if m.terms == nil {
		m.terms = map[string][]wp.Term{}
	}
	m.terms[taxonomy] = append(m.terms[taxonomy], term)
	m.createdTerms = append(m.createdTerms, fmt.Sprintf("%s:%s", taxonomy, name))
	return &term, nil
}

func (m *mockAPI) UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*wp.Media, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploadedFiles = append(m.uploadedFiles, filename)
	m.uploadedMIMEs = append(m.uploadedMIMEs, mimeType)
	return &wp.Media{ID: 900 + len(m.uploadedFiles)}, nil
}

// row builds a test Row from key-value pairs.
func row(number int, kv ...string) Row {
	fields := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return Row{Number: number, Fields: fields}
}
