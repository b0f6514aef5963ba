package tasks

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/services"
	"github.com/desertthunder/melodylog/internal/shared"
)

const (
	domesticLimit      = 5
	internationalLimit = 1
)

// Searcher is the slice of [services.Gateway] the reconciler depends on.
type Searcher interface {
	Search(ctx context.Context, keyword, providerID string, limit int) ([]models.ProviderSong, error)
}

// Stage records which lookup supplied the reconciled fields.
type Stage int

const (
	StageSkipped Stage = iota // caller supplied cover and release date
	StageDomestic
	StageInternational
	StageNone   // lookups returned nothing usable
	StageFailed // a lookup errored; caller values kept
)

func (s Stage) String() string {
	switch s {
	case StageSkipped:
		return "skipped"
	case StageDomestic:
		return "domestic"
	case StageInternational:
		return "international"
	case StageNone:
		return "none"
	case StageFailed:
		return "failed"
	default:
		return ""
	}
}

// ReconcileInput is a user-entered or imported song stub.
type ReconcileInput struct {
	Title       string
	Artists     []string
	Album       *string
	CoverURL    *string
	ReleaseDate *string
}

// ReconciledFields are the fields a lookup may fill.
type ReconciledFields struct {
	Album       *string
	CoverURL    *string
	ReleaseDate *string
	Stage       Stage
}

// Reconciler fills missing album, cover, and release date from provider search results.
type Reconciler struct {
	searcher      Searcher
	domestic      string
	international string
	logger        *log.Logger
}

// NewReconciler creates a reconciler that queries the iTunes CN storefront first and the US storefront second.
func NewReconciler(searcher Searcher, logger *log.Logger) *Reconciler {
	return &Reconciler{
		searcher:      searcher,
		domestic:      services.ProviderITunes,
		international: services.ProviderITunesIntl,
		logger:        shared.WithLogger(logger, "component", "reconciler"),
	}
}

// WithProviders overrides the domestic and international provider ids.
func (r *Reconciler) WithProviders(domestic, international string) *Reconciler {
	r.domestic, r.international = domestic, international
	return r
}

// NeedsLookup reports whether a network lookup would run for in.
// Only a caller that already supplies both cover and release date skips it.
func NeedsLookup(in ReconcileInput) bool {
	return models.IsBlank(in.CoverURL) || models.IsBlank(in.ReleaseDate)
}

// Reconcile returns in's fields with blanks filled from the first acceptable provider result.
//
// The domestic provider is asked for several candidates and the first strict match wins;
// otherwise the top international result is accepted as-is. Non-blank caller fields are never
// replaced. Lookup errors are logged and degrade to no enrichment.
func (r *Reconciler) Reconcile(ctx context.Context, in ReconcileInput) ReconciledFields {
	out := ReconciledFields{Album: in.Album, CoverURL: in.CoverURL, ReleaseDate: in.ReleaseDate}
	if !NeedsLookup(in) {
		out.Stage = StageSkipped
		return out
	}

	keyword := strings.TrimSpace(in.Title + " " + strings.Join(in.Artists, " "))

	candidates, err := r.searcher.Search(ctx, keyword, r.domestic, domesticLimit)
	if err != nil {
		r.logger.Warn("domestic lookup failed, keeping input", "title", in.Title, "err", err)
		out.Stage = StageFailed
		return out
	}

	if match, ok := StrictMatch(candidates, in.Title, in.Artists); ok {
		r.logger.Debug("strict match", "title", in.Title, "provider", r.domestic)
		out.merge(match, StageDomestic)
		return out
	}

	candidates, err = r.searcher.Search(ctx, keyword, r.international, internationalLimit)
	if err != nil {
		r.logger.Warn("international lookup failed, keeping input", "title", in.Title, "err", err)
		out.Stage = StageFailed
		return out
	}

	if len(candidates) > 0 {
		r.logger.Debug("using first international result", "title", in.Title)
		out.merge(candidates[0], StageInternational)
		return out
	}

	r.logger.Debug("no provider result", "title", in.Title)
	out.Stage = StageNone
	return out
}

func (f *ReconciledFields) merge(p models.ProviderSong, stage Stage) {
	if models.IsBlank(f.Album) {
		if v := models.NonBlank(p.Album); v != nil {
			f.Album = v
		}
	}
	if models.IsBlank(f.CoverURL) {
		if v := models.NonBlank(p.CoverURL); v != nil {
			f.CoverURL = v
		}
	}
	if models.IsBlank(f.ReleaseDate) {
		if v := models.NonBlank(p.ReleaseDate); v != nil {
			f.ReleaseDate = v
		}
	}
	f.Stage = stage
}

// StrictMatch returns the first candidate whose name contains title and whose artist string
// contains the space-joined artists, both compared case-insensitively.
func StrictMatch(candidates []models.ProviderSong, title string, artists []string) (models.ProviderSong, bool) {
	wantTitle := strings.ToLower(title)
	wantArtist := strings.ToLower(strings.Join(artists, " "))

	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), wantTitle) &&
			strings.Contains(strings.ToLower(c.Artist), wantArtist) {
			return c, true
		}
	}
	return models.ProviderSong{}, false
}
