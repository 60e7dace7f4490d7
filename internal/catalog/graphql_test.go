package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"filmstrip/internal/services"
)

type capturedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newTestServer(t *testing.T, handler func(capturedRequest) (int, string)) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var requests []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)
		status, body := handler(req)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestFindItemsDecodesScenes(t *testing.T) {
	server, requests := newTestServer(t, func(capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"findScenes":{"scenes":[
			{"id":"7","files":[{"id":"70","path":"/data/a.mp4","fingerprints":[{"type":"oshash","value":"abc123"}]}],"paths":{"screenshot":"http://x/screenshot/7"}}
		]}}}`
	})

	client := NewGraphQL(server.URL, "secret", time.Second)
	items, err := client.FindItems(context.Background(), Filter{
		MissingFingerprint: "phash",
		ExcludeTagIDs:      []int64{1, 2},
	}, Page{Number: 3, Size: 25})
	if err != nil {
		t.Fatalf("FindItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != "7" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if got := items[0].FingerprintValue("OSHash"); got != "abc123" {
		t.Fatalf("fingerprint lookup = %q", got)
	}
	if items[0].Paths.Screenshot == "" {
		t.Fatal("screenshot path missing")
	}

	vars := (*requests)[0].Variables
	filter := vars["filter"].(map[string]any)
	if filter["page"] != float64(3) || filter["per_page"] != float64(25) {
		t.Fatalf("pagination variables wrong: %+v", filter)
	}
	sceneFilter := vars["sceneFilter"].(map[string]any)
	if _, ok := sceneFilter["phash"]; !ok {
		t.Fatalf("missing phash filter: %+v", sceneFilter)
	}
	tags := sceneFilter["tags"].(map[string]any)
	if tags["modifier"] != "EXCLUDES" {
		t.Fatalf("tag modifier = %v", tags["modifier"])
	}
}

func TestFindItemIDs(t *testing.T) {
	server, _ := newTestServer(t, func(capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"findScenes":{"scenes":[{"id":"1"},{"id":"2"},{"id":"3"}]}}}`
	})
	client := NewGraphQL(server.URL, "", time.Second)
	ids, err := client.FindItemIDs(context.Background(), Filter{MissingFingerprint: "phash"})
	if err != nil {
		t.Fatalf("FindItemIDs: %v", err)
	}
	if len(ids) != 3 || ids[2] != "3" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestTagMutationsSendModes(t *testing.T) {
	server, requests := newTestServer(t, func(capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"bulkSceneUpdate":[{"id":"7"}]}}`
	})
	client := NewGraphQL(server.URL, "", time.Second)

	if err := client.AddTag(context.Background(), "7", 15015); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if err := client.RemoveTag(context.Background(), "7", 15015); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}

	modes := make([]string, 0, 2)
	for _, req := range *requests {
		input := req.Variables["input"].(map[string]any)
		tagIDs := input["tag_ids"].(map[string]any)
		modes = append(modes, tagIDs["mode"].(string))
	}
	if modes[0] != "ADD" || modes[1] != "REMOVE" {
		t.Fatalf("unexpected modes: %v", modes)
	}
}

func TestGraphQLErrorsMapToRemote(t *testing.T) {
	server, _ := newTestServer(t, func(capturedRequest) (int, string) {
		return http.StatusOK, `{"errors":[{"message":"scene not found"}]}`
	})
	client := NewGraphQL(server.URL, "", time.Second)
	err := client.SetCoverImage(context.Background(), "404", "data:image/jpg;base64,")
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestHTTPFailureMapsToRemote(t *testing.T) {
	server, _ := newTestServer(t, func(capturedRequest) (int, string) {
		return http.StatusBadGateway, "upstream down"
	})
	client := NewGraphQL(server.URL, "", time.Second)
	_, err := client.FindItemIDs(context.Background(), Filter{})
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestAPIKeyHeaderSent(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("ApiKey")
		_, _ = w.Write([]byte(`{"data":{"findScenes":{"scenes":[]}}}`))
	}))
	defer server.Close()

	client := NewGraphQL(server.URL, "hunter2", time.Second)
	if _, err := client.FindItemIDs(context.Background(), Filter{}); err != nil {
		t.Fatalf("FindItemIDs: %v", err)
	}
	if gotKey != "hunter2" {
		t.Fatalf("ApiKey header = %q", gotKey)
	}
}
