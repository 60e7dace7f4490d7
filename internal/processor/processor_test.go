package processor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filmstrip/internal/catalog"
	"filmstrip/internal/logging"
	"filmstrip/internal/pathmap"
	"filmstrip/internal/services"
)

type fakeStore struct {
	catalog.Client

	fingerprints map[string]string
	tags         []int64
	cover        string
}

func newFakeStore() *fakeStore {
	return &fakeStore{fingerprints: map[string]string{}}
}

func (f *fakeStore) SetFingerprint(ctx context.Context, fileID, kind, value string) error {
	f.fingerprints[fileID+"/"+kind] = value
	return nil
}

func (f *fakeStore) AddTag(ctx context.Context, itemID string, tagID int64) error {
	f.tags = append(f.tags, tagID)
	return nil
}

func (f *fakeStore) SetCoverImage(ctx context.Context, itemID, dataURI string) error {
	f.cover = dataURI
	return nil
}

type fakeClaimer struct {
	claims   int
	releases int
	err      error
}

func (f *fakeClaimer) Claim(ctx context.Context, itemID string, tagID int64) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.claims++
	return func() { f.releases++ }, nil
}

type fakeHasher struct {
	hash  string
	err   error
	calls int
}

func (f *fakeHasher) PerceptualHash(ctx context.Context, path string) (string, error) {
	f.calls++
	return f.hash, f.err
}

type fakeBuilder struct {
	calls int
	err   error
}

func (f *fakeBuilder) Generate(ctx context.Context, source, a, b, scratch string) error {
	f.calls++
	return f.err
}

type fakePreviewBuilder struct {
	calls int
	err   error
}

func (f *fakePreviewBuilder) Generate(ctx context.Context, source, output, scratch string) error {
	f.calls++
	return f.err
}

type fakeHTTP struct {
	body   string
	status int
	err    error
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(f.body)),
	}, nil
}

type fixture struct {
	store    *fakeStore
	claimer  *fakeClaimer
	hasher   *fakeHasher
	sprites  *fakeBuilder
	previews *fakePreviewBuilder
	http     *fakeHTTP
	proc     *Processor
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:    newFakeStore(),
		claimer:  &fakeClaimer{},
		hasher:   &fakeHasher{hash: "cafef00d"},
		sprites:  &fakeBuilder{},
		previews: &fakePreviewBuilder{},
		http:     &fakeHTTP{body: "real jpeg bytes"},
	}
	if opts.ProcessingTagID == 0 {
		opts.ProcessingTagID = 1
	}
	if opts.HashErrorTagID == 0 {
		opts.HashErrorTagID = 2
	}
	if opts.CoverErrorTagID == 0 {
		opts.CoverErrorTagID = 3
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = t.TempDir()
	}
	if opts.SpriteDir == "" {
		opts.SpriteDir = t.TempDir()
	}
	if opts.PreviewDir == "" {
		opts.PreviewDir = t.TempDir()
	}
	f.proc = New(f.store, f.claimer, pathmap.NewMapper(nil), f.hasher,
		f.sprites, f.previews, f.http, logging.NewNop(), opts)
	f.proc.fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
	return f
}

func testItem(t *testing.T, dir string) catalog.Item {
	t.Helper()
	source := filepath.Join(dir, "movie.mp4")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	item := catalog.Item{ID: "42"}
	item.Files = []catalog.File{{
		ID:   "f42",
		Path: source,
		Fingerprints: []catalog.Fingerprint{
			{Type: "oshash", Value: "deadbeef1234"},
		},
	}}
	return item
}

func TestProcessSuccessRunsAllSteps(t *testing.T) {
	f := newFixture(t, Options{GenerateSprite: true, GeneratePreview: true})
	item := testItem(t, t.TempDir())

	outcome := f.proc.Process(context.Background(), item)
	if !outcome.Success {
		t.Fatalf("outcome = %+v, want success", outcome)
	}
	if got := f.store.fingerprints["f42/phash"]; got != "cafef00d" {
		t.Fatalf("fingerprint = %q, want cafef00d", got)
	}
	if f.sprites.calls != 1 || f.previews.calls != 1 {
		t.Fatalf("sprite calls = %d, preview calls = %d, want 1 each", f.sprites.calls, f.previews.calls)
	}
	if f.claimer.claims != 1 || f.claimer.releases != 1 {
		t.Fatalf("claims = %d releases = %d, want 1/1", f.claimer.claims, f.claimer.releases)
	}
	want := []string{"phash", "sprite", "preview"}
	if strings.Join(outcome.Steps, ",") != strings.Join(want, ",") {
		t.Fatalf("steps = %v, want %v", outcome.Steps, want)
	}
}

func TestProcessMissingFileSkipsWithoutClaim(t *testing.T) {
	f := newFixture(t, Options{GenerateSprite: true, GeneratePreview: true})
	item := catalog.Item{ID: "42"}
	item.Files = []catalog.File{{ID: "f42", Path: "/nowhere/movie.mp4"}}

	outcome := f.proc.Process(context.Background(), item)
	if outcome.Success {
		t.Fatal("outcome reports success for a missing file")
	}
	if f.claimer.claims != 0 {
		t.Fatalf("claims = %d, want 0 for missing file", f.claimer.claims)
	}
	if len(f.store.tags) != 1 || f.store.tags[0] != 2 {
		t.Fatalf("tags = %v, want only the hash error tag", f.store.tags)
	}
	if f.hasher.calls != 0 {
		t.Fatal("hasher ran despite missing file")
	}
}

func TestProcessHashFailureContinuesAndReleases(t *testing.T) {
	f := newFixture(t, Options{GenerateSprite: true, GeneratePreview: true})
	f.hasher.err = services.Wrap(services.ErrExternalTool, "hashing", "run videohashes", "boom", nil)
	item := testItem(t, t.TempDir())

	outcome := f.proc.Process(context.Background(), item)
	if outcome.Success {
		t.Fatal("outcome reports success despite hash failure")
	}
	// Later steps still run; the claim is still released.
	if f.sprites.calls != 1 || f.previews.calls != 1 {
		t.Fatalf("sprite calls = %d, preview calls = %d, want 1 each", f.sprites.calls, f.previews.calls)
	}
	if f.claimer.releases != 1 {
		t.Fatalf("releases = %d, want 1", f.claimer.releases)
	}
	if len(f.store.tags) != 1 || f.store.tags[0] != 2 {
		t.Fatalf("tags = %v, want only the hash error tag", f.store.tags)
	}
}

func TestProcessSpriteFailureTagsAndFails(t *testing.T) {
	f := newFixture(t, Options{GenerateSprite: true})
	f.sprites.err = services.Wrap(services.ErrSprite, "sprite", "extract frame 3", "", nil)
	item := testItem(t, t.TempDir())

	outcome := f.proc.Process(context.Background(), item)
	if outcome.Success {
		t.Fatal("outcome reports success despite sprite failure")
	}
	if f.claimer.releases != 1 {
		t.Fatalf("releases = %d, want 1", f.claimer.releases)
	}
}

func TestProcessFailureLogNamesStep(t *testing.T) {
	f := newFixture(t, Options{GenerateSprite: true})
	f.sprites.err = services.Wrap(services.ErrSprite, "sprite", "extract frame 3", "", nil)
	var logs bytes.Buffer
	f.proc.logger = slog.New(slog.NewTextHandler(&logs, nil))
	item := testItem(t, t.TempDir())

	f.proc.Process(context.Background(), item)
	if !strings.Contains(logs.String(), logging.FieldStep+"=sprite") {
		t.Fatalf("failure log does not name the step:\n%s", logs.String())
	}
}

func TestProcessSkipsExistingArtifacts(t *testing.T) {
	spriteDir := t.TempDir()
	previewDir := t.TempDir()
	f := newFixture(t, Options{
		GenerateSprite:  true,
		GeneratePreview: true,
		SpriteDir:       spriteDir,
		PreviewDir:      previewDir,
	})
	item := testItem(t, t.TempDir())
	// Token derives from the oshash fingerprint.
	for _, name := range []string{
		filepath.Join(spriteDir, "deadbeef1234_sprite.jpg"),
		filepath.Join(previewDir, "deadbeef1234.mp4"),
	} {
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatalf("write artifact: %v", err)
		}
	}

	outcome := f.proc.Process(context.Background(), item)
	if !outcome.Success {
		t.Fatalf("outcome = %+v, want success", outcome)
	}
	if f.sprites.calls != 0 || f.previews.calls != 0 {
		t.Fatalf("sprite calls = %d, preview calls = %d, want 0 each", f.sprites.calls, f.previews.calls)
	}
	if strings.Join(outcome.Steps, ",") != "phash" {
		t.Fatalf("steps = %v, want only phash", outcome.Steps)
	}
}

func TestProcessClaimFailureAborts(t *testing.T) {
	f := newFixture(t, Options{GenerateSprite: true})
	f.claimer.err = services.Wrap(services.ErrRemote, "claim", "add tag", "", nil)
	item := testItem(t, t.TempDir())

	outcome := f.proc.Process(context.Background(), item)
	if outcome.Success {
		t.Fatal("outcome reports success despite claim failure")
	}
	if f.hasher.calls != 0 || f.sprites.calls != 0 {
		t.Fatal("pipeline ran despite failed claim")
	}
}

func TestScratchTokenFallsBackOnUnusableFingerprint(t *testing.T) {
	f := newFixture(t, Options{})
	f.proc.newToken = func() string { return "fallbacktoken" }

	item := catalog.Item{ID: "1"}
	item.Files = []catalog.File{{ID: "f1", Path: "/x.mp4", Fingerprints: []catalog.Fingerprint{
		{Type: "oshash", Value: "bad:value"},
	}}}
	if got := f.proc.scratchToken(item); got != "fallbacktoken" {
		t.Fatalf("token = %q, want fallback", got)
	}

	item.Files[0].Fingerprints[0].Value = "cleanvalue99"
	if got := f.proc.scratchToken(item); got != "cleanvalue99" {
		t.Fatalf("token = %q, want fingerprint value", got)
	}

	item.Files[0].Fingerprints = nil
	if got := f.proc.scratchToken(item); got != "fallbacktoken" {
		t.Fatalf("token = %q, want fallback for missing fingerprint", got)
	}
}

func TestProcessDryRunPerformsNothing(t *testing.T) {
	f := newFixture(t, Options{GenerateSprite: true, GeneratePreview: true, DryRun: true})
	item := testItem(t, t.TempDir())

	outcome := f.proc.Process(context.Background(), item)
	if !outcome.Success {
		t.Fatalf("outcome = %+v, want success", outcome)
	}
	if f.hasher.calls != 0 || f.sprites.calls != 0 || f.previews.calls != 0 {
		t.Fatal("dry run executed real work")
	}
	joined := strings.Join(outcome.Steps, ",")
	if !strings.Contains(joined, "dry run") {
		t.Fatalf("steps = %v, want dry run markers", outcome.Steps)
	}
	// The claim protocol still runs so other nodes see the item as
	// taken during the walk-through.
	if f.claimer.claims != 1 || f.claimer.releases != 1 {
		t.Fatalf("claims = %d releases = %d, want 1/1", f.claimer.claims, f.claimer.releases)
	}
}
