package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"filmstrip/internal/services"
)

// HTTPDoer describes the HTTP client used by the GraphQL catalog client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GraphQL is a Client backed by a Stash-compatible GraphQL endpoint.
type GraphQL struct {
	endpoint string
	apiKey   string
	client   HTTPDoer
}

// Option configures the GraphQL client.
type Option func(*GraphQL)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client HTTPDoer) Option {
	return func(g *GraphQL) {
		if client != nil {
			g.client = client
		}
	}
}

// NewGraphQL constructs a catalog client for the given endpoint.
func NewGraphQL(endpoint, apiKey string, timeout time.Duration, opts ...Option) *GraphQL {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	g := &GraphQL{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

const itemFragment = `id files { id path fingerprints { type value } } paths { screenshot }`

// FindItemIDs implements Client.
func (g *GraphQL) FindItemIDs(ctx context.Context, filter Filter) ([]string, error) {
	query := `query FindItemIDs($filter: FindFilterType, $sceneFilter: SceneFilterType) {
  findScenes(filter: $filter, scene_filter: $sceneFilter) { scenes { id } }
}`
	variables := map[string]any{
		"filter":      pageVariables(AllItems),
		"sceneFilter": sceneFilter(filter),
	}
	var payload struct {
		FindScenes struct {
			Scenes []struct {
				ID string `json:"id"`
			} `json:"scenes"`
		} `json:"findScenes"`
	}
	if err := g.do(ctx, "find item ids", query, variables, &payload); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(payload.FindScenes.Scenes))
	for _, scene := range payload.FindScenes.Scenes {
		ids = append(ids, scene.ID)
	}
	return ids, nil
}

// FindItems implements Client.
func (g *GraphQL) FindItems(ctx context.Context, filter Filter, page Page) ([]Item, error) {
	query := `query FindItems($filter: FindFilterType, $sceneFilter: SceneFilterType) {
  findScenes(filter: $filter, scene_filter: $sceneFilter) { scenes { ` + itemFragment + ` } }
}`
	variables := map[string]any{
		"filter":      pageVariables(page),
		"sceneFilter": sceneFilter(filter),
	}
	var payload struct {
		FindScenes struct {
			Scenes []Item `json:"scenes"`
		} `json:"findScenes"`
	}
	if err := g.do(ctx, "find items", query, variables, &payload); err != nil {
		return nil, err
	}
	return payload.FindScenes.Scenes, nil
}

// AddTag implements Client.
func (g *GraphQL) AddTag(ctx context.Context, itemID string, tagID int64) error {
	return g.bulkTagUpdate(ctx, "add tag", itemID, tagID, "ADD")
}

// RemoveTag implements Client.
func (g *GraphQL) RemoveTag(ctx context.Context, itemID string, tagID int64) error {
	return g.bulkTagUpdate(ctx, "remove tag", itemID, tagID, "REMOVE")
}

func (g *GraphQL) bulkTagUpdate(ctx context.Context, operation, itemID string, tagID int64, mode string) error {
	query := `mutation BulkTagUpdate($input: BulkSceneUpdateInput!) {
  bulkSceneUpdate(input: $input) { id }
}`
	variables := map[string]any{
		"input": map[string]any{
			"ids": []string{itemID},
			"tag_ids": map[string]any{
				"ids":  []string{strconv.FormatInt(tagID, 10)},
				"mode": mode,
			},
		},
	}
	var payload json.RawMessage
	return g.do(ctx, operation, query, variables, &payload)
}

// SetFingerprint implements Client.
func (g *GraphQL) SetFingerprint(ctx context.Context, fileID, kind, value string) error {
	query := `mutation SetFingerprint($input: FileSetFingerprintsInput!) {
  fileSetFingerprints(input: $input)
}`
	variables := map[string]any{
		"input": map[string]any{
			"id": fileID,
			"fingerprints": []map[string]any{
				{"type": kind, "value": value},
			},
		},
	}
	var payload json.RawMessage
	return g.do(ctx, "set fingerprint", query, variables, &payload)
}

// SetCoverImage implements Client.
func (g *GraphQL) SetCoverImage(ctx context.Context, itemID, dataURI string) error {
	query := `mutation SetCoverImage($input: SceneUpdateInput!) {
  sceneUpdate(input: $input) { id }
}`
	variables := map[string]any{
		"input": map[string]any{
			"id":          itemID,
			"cover_image": dataURI,
		},
	}
	var payload json.RawMessage
	return g.do(ctx, "set cover image", query, variables, &payload)
}

func pageVariables(page Page) map[string]any {
	vars := map[string]any{
		"per_page":  page.Size,
		"sort":      "created_at",
		"direction": "DESC",
	}
	if page.Size > 0 {
		vars["page"] = page.Number
	}
	return vars
}

func sceneFilter(filter Filter) map[string]any {
	vars := map[string]any{}
	if kind := strings.TrimSpace(filter.MissingFingerprint); kind != "" {
		vars[kind] = map[string]any{"value": "", "modifier": "IS_NULL"}
	}
	if len(filter.ExcludeTagIDs) > 0 {
		vars["tags"] = map[string]any{"value": tagIDStrings(filter.ExcludeTagIDs), "modifier": "EXCLUDES"}
	} else if len(filter.IncludeTagIDs) > 0 {
		vars["tags"] = map[string]any{"value": tagIDStrings(filter.IncludeTagIDs), "modifier": "INCLUDES"}
	}
	return vars
}

func tagIDStrings(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

type graphQLError struct {
	Message string `json:"message"`
}

func (g *GraphQL) do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return services.Wrap(services.ErrRemote, "catalog", operation, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrRemote, "catalog", operation, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("ApiKey", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrRemote, "catalog", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrRemote, "catalog", operation,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return services.Wrap(services.ErrRemote, "catalog", operation, "decode response", err)
	}
	if len(envelope.Errors) > 0 {
		return services.Wrap(services.ErrRemote, "catalog", operation, envelope.Errors[0].Message, nil)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return services.Wrap(services.ErrRemote, "catalog", operation, "decode data", err)
		}
	}
	return nil
}

var _ Client = (*GraphQL)(nil)
