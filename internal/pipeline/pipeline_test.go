package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jaki95/unreleased-downloader/internal/audio"
	"github.com/jaki95/unreleased-downloader/internal/downloader"
	"github.com/jaki95/unreleased-downloader/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const header = `<tr style="height: 20px"><th>1</th><td>Era</td><td>Name</td><td>Notes</td><td>Track Length</td><td>File Date</td><td>Leak Date</td><td>Type</td><td>Portion</td><td>Quality</td><td>Link(s)</td></tr>`

func songRow(name, portion, link string) string {
	linkCell := "<td></td>"
	if link != "" {
		linkCell = fmt.Sprintf(`<td><a href="%s">Link</a></td>`, link)
	}
	return fmt.Sprintf(`<tr style="height: 20px"><th>0</th><td>A Great Chaos</td><td>%s</td><td></td><td>2:00</td><td>Jan 5, 2023</td><td></td><td>OG File</td><td>%s</td><td>CD Quality</td>%s</tr>`,
		name, portion, linkCell)
}

const eraRow = `<tr style="height: 20px"><th>0</th><td>2 OG File(s)</td><td>A Great Chaos</td><td>Oct 2023</td><td></td><td></td><td></td><td></td><td></td><td></td><td><img src="https://lh7-rt.googleusercontent.com/docsz/cover=w320-h320"></td></tr>`

func trackerHTML() string {
	rows := []string{
		header,
		songRow("Before Everything", "Full", "https://pixeldrain.com/u/orphan"),
		eraRow,
		songRow("Rock N Roll [v1]", "Full", ""),
		songRow("Rock N Roll [v2]", "Full", "https://pixeldrain.com/u/rnr2"),
		songRow("Second Song", "Full", "https://krakenfiles.com/view/s2/file.html"),
		songRow("Overseas", "Full", "https://example.com/overseas.mp3"),
		songRow("Existing", "Full", "https://pixeldrain.com/u/ex"),
		songRow("Broken", "Full", "https://pixeldrain.com/u/broken"),
		songRow("Snippet Song", "Snippet", "https://pixeldrain.com/u/snip"),
	}
	return "<html><head><title>Ken Carson Tracker - Google Drive</title></head><body><table><tbody>" +
		strings.Join(rows, "\n") + "</tbody></table></body></html>"
}

type fakePages struct {
	pages map[string]string
}

func (f *fakePages) Fetch(_ context.Context, url string) (string, error) {
	page, ok := f.pages[url]
	if !ok {
		return "", errors.New("not found")
	}
	return page, nil
}

type fakeDownloader struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeDownloader) Fetch(_ context.Context, host downloader.Host, id string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, host.String()+"/"+id)
	f.mu.Unlock()

	if id == "broken" {
		return nil, &downloader.FetchError{URL: id, StatusCode: 500, Err: errors.New("server error")}
	}
	return []byte("audio:" + id), nil
}

type fakeImages struct {
	calls atomic.Int32
	data  []byte
}

func (f *fakeImages) Get(_ context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	return f.data, nil
}

type fakeTranscoder struct{}

func (fakeTranscoder) Transcode(_ context.Context, data []byte, destPath string) error {
	return os.WriteFile(destPath, data, 0644)
}

type fakeTagger struct {
	mu    sync.Mutex
	metas map[string]audio.Metadata
}

func (f *fakeTagger) Tag(path string, meta audio.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metas[filepath.Base(path)] = meta
	return nil
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))))
	return buf.Bytes()
}

type fixture struct {
	root       string
	pages      *fakePages
	downloader *fakeDownloader
	images     *fakeImages
	tagger     *fakeTagger
	store      storage.Storage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocalFileStorage(root)
	require.NoError(t, err)

	return &fixture{
		root:       root,
		pages:      &fakePages{pages: map[string]string{"https://tracker.test": trackerHTML()}},
		downloader: &fakeDownloader{},
		images:     &fakeImages{data: coverPNG(t)},
		tagger:     &fakeTagger{metas: make(map[string]audio.Metadata)},
		store:      store,
	}
}

func (f *fixture) processor(opts Options) *processor {
	return NewProcessor(f.pages, f.downloader, f.images, fakeTranscoder{}, f.tagger, f.store, opts)
}

func TestProcess(t *testing.T) {
	f := newFixture(t)
	eraDir := filepath.Join(f.root, "Ken Carson", "A Great Chaos")
	existing := filepath.Join(eraDir, "Existing [v1] - Ken Carson.mp3")
	require.NoError(t, os.MkdirAll(eraDir, 0755))
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	summary, err := f.processor(Options{Workers: 4}).Process(context.Background(), Source{URL: "https://tracker.test"})
	require.NoError(t, err)

	assert.Equal(t, "Ken Carson", summary.Tracker)
	assert.Equal(t, 9, summary.Records)
	assert.Equal(t, 1, summary.Orphaned)
	assert.Equal(t, 5, summary.Scheduled)
	assert.Equal(t, 3, summary.Failed)
	assert.ElementsMatch(t, []string{
		filepath.Join(eraDir, "Rock N Roll [v2] - Ken Carson.mp3"),
		filepath.Join(eraDir, "Second Song [v1] - Ken Carson.mp3"),
	}, summary.Downloaded)

	// Unsupported and duplicate songs never reach the downloader
	assert.ElementsMatch(t, []string{"pixeldrain/rnr2", "krakenfiles/s2", "pixeldrain/broken"}, f.downloader.calls)

	data, err := os.ReadFile(filepath.Join(eraDir, "Rock N Roll [v2] - Ken Carson.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "audio:rnr2", string(data))

	old, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))

	assert.NoFileExists(t, filepath.Join(eraDir, "Broken [v1] - Ken Carson.mp3"))

	meta := f.tagger.metas["Rock N Roll [v2] - Ken Carson.mp3"]
	assert.Equal(t, "Rock N Roll", meta.Title)
	assert.Equal(t, "A Great Chaos", meta.Album)
	assert.Equal(t, 2023, meta.Year)
	assert.NotEmpty(t, meta.Cover)
	assert.Equal(t, int32(1), f.images.calls.Load())
}

func TestProcessFromFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "tracker.html")
	require.NoError(t, os.WriteFile(path, []byte(trackerHTML()), 0644))

	summary, err := f.processor(Options{}).Process(context.Background(), Source{File: path})
	require.NoError(t, err)
	assert.Len(t, summary.Downloaded, 3)
}

func TestProcessRetriesAfterFailure(t *testing.T) {
	f := newFixture(t)
	p := f.processor(Options{})

	_, err := p.Process(context.Background(), Source{URL: "https://tracker.test"})
	require.NoError(t, err)

	// A second run skips what was written and retries what failed
	f.downloader.calls = nil
	summary, err := p.Process(context.Background(), Source{URL: "https://tracker.test"})
	require.NoError(t, err)
	assert.Empty(t, summary.Downloaded)
	assert.Equal(t, []string{"pixeldrain/broken"}, f.downloader.calls)
}

func TestProcessDryRun(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer

	summary, err := f.processor(Options{DryRun: true, DryRunOutput: &out}).Process(context.Background(), Source{URL: "https://tracker.test"})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Scheduled)
	assert.Empty(t, f.downloader.calls)

	var planned []plannedSong
	require.NoError(t, json.Unmarshal(out.Bytes(), &planned))
	require.Len(t, planned, 5)
	assert.Equal(t, "Ken Carson/A Great Chaos/Rock N Roll [v2] - Ken Carson.mp3", planned[0].Path)
	assert.Equal(t, 2, planned[0].Version)
	assert.Equal(t, "A Great Chaos", planned[0].Era)
}

func TestProcessSourceErrors(t *testing.T) {
	f := newFixture(t)
	p := f.processor(Options{})

	_, err := p.Process(context.Background(), Source{})
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = p.Process(context.Background(), Source{URL: "https://unknown.test"})
	assert.ErrorContains(t, err, "failed to fetch tracker")

	_, err = p.Process(context.Background(), Source{File: filepath.Join(t.TempDir(), "missing.html")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcessCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.processor(Options{}).Process(ctx, Source{File: writeTracker(t)})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Empty(t, summary.Downloaded)
	assert.Empty(t, f.downloader.calls)
}

func writeTracker(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.html")
	require.NoError(t, os.WriteFile(path, []byte(trackerHTML()), 0644))
	return path
}
