// Package pipeline runs a tracker page end to end: parse, select, download,
// transcode, tag and store.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jaki95/unreleased-downloader/internal/audio"
	"github.com/jaki95/unreleased-downloader/internal/domain"
	"github.com/jaki95/unreleased-downloader/internal/downloader"
	"github.com/jaki95/unreleased-downloader/internal/output"
	"github.com/jaki95/unreleased-downloader/internal/selection"
	"github.com/jaki95/unreleased-downloader/internal/storage"
	"github.com/jaki95/unreleased-downloader/internal/tracker"
)

const fileExtension = ".mp3"

var (
	ErrNoSource = errors.New("either a tracker url or an html file is required")
	ErrNoLink   = errors.New("song has no download link")
)

// PageFetcher returns the rendered HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Downloader retrieves the file behind a routed link.
type Downloader interface {
	Fetch(ctx context.Context, host downloader.Host, id string) ([]byte, error)
}

// ImageSource retrieves cover images.
type ImageSource interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Source names the tracker page to process.
type Source struct {
	URL  string
	File string
}

type Options struct {
	Workers   int
	Filename  output.Options
	CoverSize int

	// DryRun writes the scheduled songs as JSON to DryRunOutput instead of
	// downloading them.
	DryRun       bool
	DryRunOutput io.Writer
}

// Summary counts what happened to the songs of a run.
type Summary struct {
	Tracker     string   `json:"tracker"`
	Records     int      `json:"records"`
	ParseErrors int      `json:"parse_errors"`
	Scheduled   int      `json:"scheduled"`
	Orphaned    int      `json:"orphaned"`
	Downloaded  []string `json:"downloaded"`
	Failed      int      `json:"failed"`
}

type job struct {
	song *domain.Song
	era  *domain.Era
	dir  string
	name string
}

type processor struct {
	pages       PageFetcher
	downloader  Downloader
	images      ImageSource
	transcoder  audio.Transcoder
	tagger      audio.Tagger
	storage     storage.Storage
	resolver    *output.Resolver
	opts        Options
	coverMu     sync.Mutex
	covers      map[string]*coverEntry
	summaryMu   sync.Mutex
	trackerName string
}

type coverEntry struct {
	once sync.Once
	data []byte
}

func NewProcessor(
	pages PageFetcher,
	dl Downloader,
	images ImageSource,
	transcoder audio.Transcoder,
	tagger audio.Tagger,
	store storage.Storage,
	opts Options,
) *processor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.CoverSize <= 0 {
		opts.CoverSize = audio.DefaultCoverSize
	}
	if opts.DryRunOutput == nil {
		opts.DryRunOutput = os.Stdout
	}
	return &processor{
		pages:      pages,
		downloader: dl,
		images:     images,
		transcoder: transcoder,
		tagger:     tagger,
		storage:    store,
		resolver:   output.NewResolver(store),
		opts:       opts,
		covers:     make(map[string]*coverEntry),
	}
}

// Process handles every scheduled song of the tracker. Song failures are
// logged and counted; only a page that cannot be loaded or a cancelled
// context is returned as an error.
func (p *processor) Process(ctx context.Context, src Source) (*Summary, error) {
	page, err := p.loadPage(ctx, src)
	if err != nil {
		return nil, err
	}

	doc, err := tracker.ParseHTML(page)
	if err != nil {
		return nil, err
	}
	p.trackerName = doc.TrackerName()

	records, parseErrs := doc.Records()
	for _, err := range parseErrs {
		slog.Debug("skipped row", "error", err)
	}

	summary := &Summary{
		Tracker:     p.trackerName,
		Records:     len(records),
		ParseErrors: len(parseErrs),
	}

	jobs := p.plan(records, summary)
	summary.Scheduled = len(jobs)
	slog.Info("parsed tracker", "tracker", p.trackerName, "records", len(records), "scheduled", len(jobs))

	if p.opts.DryRun {
		return summary, p.writePlan(jobs)
	}

	g := new(errgroup.Group)
	g.SetLimit(p.opts.Workers)

	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			location, err := p.processSong(ctx, j)

			p.summaryMu.Lock()
			defer p.summaryMu.Unlock()
			if err != nil {
				summary.Failed++
				slog.Warn("skipped song", "title", j.song.Title(), "era", j.dir, "error", err)
				return nil
			}
			summary.Downloaded = append(summary.Downloaded, location)
			slog.Info("downloaded song", "title", j.song.Title(), "location", location)
			return nil
		})
	}
	g.Wait()

	return summary, ctx.Err()
}

func (p *processor) loadPage(ctx context.Context, src Source) (string, error) {
	switch {
	case src.URL != "":
		page, err := p.pages.Fetch(ctx, src.URL)
		if err != nil {
			return "", fmt.Errorf("failed to fetch tracker: %w", err)
		}
		return page, nil
	case src.File != "":
		data, err := os.ReadFile(src.File)
		if err != nil {
			return "", fmt.Errorf("failed to read tracker: %w", err)
		}
		return string(data), nil
	default:
		return "", ErrNoSource
	}
}

// plan pairs every scheduled song with the era row above it. Songs that
// appear before the first era have no destination and are skipped.
func (p *processor) plan(records []domain.Record, summary *Summary) []job {
	scheduled := make(map[*domain.Song]struct{})
	for _, s := range selection.Resolve(selection.Songs(records)) {
		scheduled[s] = struct{}{}
	}

	var (
		era  *domain.Era
		jobs []job
	)
	for _, r := range records {
		switch rec := r.(type) {
		case *domain.Era:
			era = rec
		case *domain.Song:
			if _, ok := scheduled[rec]; !ok {
				continue
			}
			if era == nil {
				summary.Orphaned++
				slog.Warn("song outside any era", "title", rec.Title())
				continue
			}
			jobs = append(jobs, job{
				song: rec,
				era:  era,
				dir:  output.Dir(p.trackerName, era),
				name: output.FormatFilename(rec, era, p.opts.Filename),
			})
		}
	}
	return jobs
}

type plannedSong struct {
	Era     string       `json:"era"`
	Title   string       `json:"title"`
	Version int          `json:"version"`
	Artists []string     `json:"artists"`
	Path    string       `json:"path"`
	Links   domain.Links `json:"links"`
}

func (p *processor) writePlan(jobs []job) error {
	planned := make([]plannedSong, 0, len(jobs))
	for _, j := range jobs {
		planned = append(planned, plannedSong{
			Era:     j.era.Title(),
			Title:   j.song.Title(),
			Version: j.song.DisplayVersion(),
			Artists: j.song.Artists(),
			Path:    j.dir + "/" + j.name + fileExtension,
			Links:   j.song.Links,
		})
	}

	enc := json.NewEncoder(p.opts.DryRunOutput)
	enc.SetIndent("", "  ")
	if err := enc.Encode(planned); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}

func (p *processor) processSong(ctx context.Context, j job) (string, error) {
	link, ok := j.song.Links.First()
	if !ok {
		return "", ErrNoLink
	}

	host, id, err := downloader.Route(link.URL)
	if err != nil {
		return "", err
	}

	reservation, err := p.resolver.Reserve(ctx, j.dir, j.name)
	if err != nil {
		return "", err
	}

	location, err := p.store(ctx, j, host, id)
	if err != nil {
		reservation.Release()
		return "", err
	}
	return location, nil
}

func (p *processor) store(ctx context.Context, j job, host downloader.Host, id string) (string, error) {
	data, err := p.downloader.Fetch(ctx, host, id)
	if err != nil {
		return "", err
	}
	slog.Debug("fetched song", "title", j.song.Title(), "host", host, "size", len(data))

	filename := j.name + fileExtension
	localPath, err := p.storage.Prepare(j.dir, filename)
	if err != nil {
		return "", err
	}

	if err := p.transcoder.Transcode(ctx, data, localPath); err != nil {
		p.discard(localPath)
		return "", err
	}

	meta := audio.SongMetadata(j.song, j.era, p.cover(ctx, j.era))
	if err := p.tagger.Tag(localPath, meta); err != nil {
		p.discard(localPath)
		return "", err
	}

	location, err := p.storage.Commit(ctx, localPath, j.dir, filename)
	if err != nil {
		p.discard(localPath)
		return "", err
	}
	return location, nil
}

func (p *processor) discard(localPath string) {
	if err := p.storage.Discard(localPath); err != nil {
		slog.Warn("failed to remove partial file", "path", localPath, "error", err)
	}
}

// cover returns the prepared cover of era, fetched once per image URL. A
// missing cover is not an error.
func (p *processor) cover(ctx context.Context, era *domain.Era) []byte {
	url := era.HighQualityImageURL()
	if url == "" {
		return nil
	}

	p.coverMu.Lock()
	entry, ok := p.covers[url]
	if !ok {
		entry = &coverEntry{}
		p.covers[url] = entry
	}
	p.coverMu.Unlock()

	entry.once.Do(func() {
		data, err := p.images.Get(ctx, url)
		if err != nil {
			slog.Warn("failed to fetch cover", "era", era.Title(), "error", err)
			return
		}
		entry.data, err = audio.PrepareCover(data, p.opts.CoverSize)
		if err != nil {
			slog.Warn("failed to prepare cover", "era", era.Title(), "error", err)
		}
	})
	return entry.data
}
