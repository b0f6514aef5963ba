package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/shared"
)

// SongSink persists imported songs one at a time.
type SongSink interface {
	Add(ctx context.Context, song models.Song) error
}

// BatchSink is implemented by sinks that can insert many songs in one operation.
type BatchSink interface {
	AddMany(ctx context.Context, songs []models.Song) error
}

// ImportOptions configures a single [Importer.Import] run.
type ImportOptions struct {
	SmartMatch bool
}

// Importer runs the bulk import pipeline: parse, dedup, reconcile, then persist.
//
// Lines are processed strictly in order. Reconciliation lookups pass through the throttle so
// the providers see at most one request per gap.
type Importer struct {
	reconciler *Reconciler
	throttle   *Throttle
	logger     *log.Logger
	now        func() time.Time
}

// NewImporter creates an importer. A nil throttle uses [DefaultDelay].
func NewImporter(reconciler *Reconciler, throttle *Throttle, logger *log.Logger) *Importer {
	if throttle == nil {
		throttle = NewThrottle(DefaultDelay)
	}
	return &Importer{
		reconciler: reconciler,
		throttle:   throttle,
		logger:     shared.WithLogger(logger, "component", "importer"),
		now:        time.Now,
	}
}

// Import processes lines against the existing library and submits accepted songs to sink.
//
// One bad line never aborts the batch: duplicates, malformed lines, and per-line failures are
// recorded in the report with their 1-based line number, in input order. Blank lines are
// skipped silently. The returned error is non-nil only when ctx is cancelled; the report then
// covers the lines seen so far, and songs already accepted from them are dropped without
// reaching sink, so SavedCount stays 0.
func (im *Importer) Import(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	lines []string,
	existing []models.Song,
	sink SongSink,
	opts ImportOptions,
) (*models.ImportReport, error) {
	start := im.now()
	report := &models.ImportReport{Errors: []models.ImportError{}}

	seen := make(map[string]struct{}, len(existing)+len(lines))
	for _, s := range existing {
		seen[s.Key()] = struct{}{}
	}

	var (
		accepted []models.Song
		lineNums []int
		total    = len(lines)
	)

	for i, raw := range lines {
		if err := ctx.Err(); err != nil {
			report.Duration = im.now().Sub(start)
			return report, err
		}

		lineNo := i + 1
		if strings.TrimSpace(raw) == "" {
			continue
		}

		res := im.processLine(ctx, lineNo, total, raw, seen, opts, progress)
		if !res.OK() {
			e := models.ImportError{Line: res.Line, Reason: res.Reason, Detail: res.Detail}
			report.Errors = append(report.Errors, e)
			im.logger.Warn("skipping line", "line", lineNo, "reason", res.Reason, "detail", res.Detail)
			sendProgress(progress, skipLineUpdate(lineNo, total, e))
			continue
		}

		seen[res.Song.Key()] = struct{}{}
		accepted = append(accepted, *res.Song)
		lineNums = append(lineNums, lineNo)
		im.logger.Info(fmt.Sprintf("[%d/%d] imported", lineNo, total), "title", res.Song.Title)
	}

	if len(accepted) > 0 {
		sendProgress(progress, saveSongsUpdate(len(accepted)))
		saved, failures := im.persist(ctx, sink, accepted, lineNums)
		report.Saved = saved
		report.SavedCount = len(saved)
		if len(failures) > 0 {
			report.Errors = mergeErrors(report.Errors, failures)
		}
	}

	report.Duration = im.now().Sub(start)
	sendProgress(progress, importDoneUpdate(total, report))
	return report, nil
}

// processLine parses, dedups, and reconciles one line, recovering from any panic in between.
func (im *Importer) processLine(
	ctx context.Context,
	lineNo, total int,
	raw string,
	seen map[string]struct{},
	opts ImportOptions,
	progress chan<- ProgressUpdate,
) (res models.ImportLineResult) {
	res.Line = lineNo
	defer func() {
		if r := recover(); r != nil {
			res = models.ImportLineResult{Line: lineNo, Reason: models.ReasonProcessing, Detail: fmt.Sprint(r)}
		}
	}()

	parsed, err := ParseLine(raw)
	if err != nil {
		res.Reason = models.ReasonMalformed
		res.Detail = err.Error()
		return res
	}

	if _, dup := seen[parsed.Key()]; dup {
		res.Reason = models.ReasonDuplicate
		res.Detail = parsed.Title
		return res
	}

	sendProgress(progress, parseLineUpdate(lineNo, total, parsed.Title, parsed.Artists))

	song := models.NewSong(parsed.Title, parsed.Artists)
	song.Album = parsed.Album
	song.CoverURL = parsed.CoverURL
	song.ReleaseDate = parsed.ReleaseDate
	song.Duration = parsed.Duration
	if parsed.AddedAt > 0 {
		song.AddedAt = parsed.AddedAt
	} else {
		song.AddedAt = im.now().UnixMilli()
	}

	if opts.SmartMatch && im.reconciler != nil && NeedsLookup(parsed.Input()) {
		var fields ReconciledFields
		err := im.throttle.Do(ctx, func(ctx context.Context) error {
			fields = im.reconciler.Reconcile(ctx, parsed.Input())
			return nil
		})
		if err != nil {
			res.Reason = models.ReasonProcessing
			res.Detail = err.Error()
			return res
		}
		song.Album, song.CoverURL, song.ReleaseDate = fields.Album, fields.CoverURL, fields.ReleaseDate
		sendProgress(progress, reconcileUpdate(lineNo, total, fields.Stage))
	}

	if err := song.Validate(); err != nil {
		res.Reason = models.ReasonProcessing
		res.Detail = err.Error()
		return res
	}

	res.Song = &song
	return res
}

// persist submits songs as one batch when the sink supports it. A failed batch is retried
// song by song so each failure can be attributed to its line.
func (im *Importer) persist(ctx context.Context, sink SongSink, songs []models.Song, lineNums []int) ([]models.Song, []models.ImportError) {
	if batch, ok := sink.(BatchSink); ok {
		err := batch.AddMany(ctx, songs)
		if err == nil {
			return songs, nil
		}
		im.logger.Warn("batch insert failed, retrying individually", "count", len(songs), "err", err)
	}

	var (
		saved    []models.Song
		failures []models.ImportError
	)
	for i, s := range songs {
		if err := sink.Add(ctx, s); err != nil {
			reason := models.ReasonProcessing
			if errors.Is(err, shared.ErrDuplicateEntry) {
				reason = models.ReasonDuplicate
			}
			failures = append(failures, models.ImportError{Line: lineNums[i], Reason: reason, Detail: err.Error()})
			continue
		}
		saved = append(saved, s)
	}
	return saved, failures
}

// mergeErrors interleaves two line-ordered error lists.
func mergeErrors(a, b []models.ImportError) []models.ImportError {
	out := make([]models.ImportError, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Line <= b[j].Line {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
