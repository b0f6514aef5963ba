package tasks

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/services"
	"github.com/desertthunder/melodylog/internal/shared"
	tu "github.com/desertthunder/melodylog/internal/testing"
)

func quietLogger() *log.Logger { return shared.NewLogger(io.Discard) }

// newTestGateway wires mock domestic and international providers into a real gateway.
func newTestGateway(domestic, intl *tu.MockProvider) *services.Gateway {
	return services.NewGateway(quietLogger(), domestic, intl)
}

func TestReconciler(t *testing.T) {
	ctx := context.Background()

	domesticHit := []models.ProviderSong{
		{Name: "Other Song", Artist: "周杰伦", Album: "Wrong", CoverURL: "https://c/wrong.jpg"},
		{Name: "七里香 (Live)", Artist: "周杰伦", Album: "七里香", CoverURL: "https://c/qlx.jpg", ReleaseDate: "2004-08-03"},
	}
	intlHit := []models.ProviderSong{
		{Name: "Qi Li Xiang", Artist: "Jay Chou", Album: "Intl Album", CoverURL: "https://c/intl.jpg", ReleaseDate: "2004"},
	}

	t.Run("skips lookup when cover and release date are present", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, domesticHit, nil)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, intlHit, nil)
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		in := ReconcileInput{
			Title:       "七里香",
			Artists:     []string{"周杰伦"},
			CoverURL:    models.Ptr("https://mine/cover.jpg"),
			ReleaseDate: models.Ptr("2004"),
		}
		got := r.Reconcile(ctx, in)

		if got.Stage != StageSkipped {
			t.Errorf("expected skipped stage, got %s", got.Stage)
		}
		if len(domestic.Calls())+len(intl.Calls()) != 0 {
			t.Error("no provider should be queried")
		}
		if *got.CoverURL != "https://mine/cover.jpg" || *got.ReleaseDate != "2004" || got.Album != nil {
			t.Errorf("expected input fields verbatim, got %+v", got)
		}
	})

	t.Run("blank cover still triggers lookup", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, domesticHit, nil)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, intlHit, nil)
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "七里香", Artists: []string{"周杰伦"}, CoverURL: models.Ptr("")})
		if len(domestic.Calls()) != 1 {
			t.Fatalf("expected domestic lookup, got %d calls", len(domestic.Calls()))
		}
		if got.Stage != StageDomestic {
			t.Errorf("expected domestic stage, got %s", got.Stage)
		}
	})

	t.Run("strict domestic match wins and international is not queried", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, domesticHit, nil)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, intlHit, nil)
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "七里香", Artists: []string{"周杰伦"}})

		calls := domestic.Calls()
		if len(calls) != 1 || calls[0].Limit != 5 || calls[0].Keyword != "七里香 周杰伦" {
			t.Errorf("unexpected domestic calls %+v", calls)
		}
		if len(intl.Calls()) != 0 {
			t.Error("international provider should not be queried after a strict match")
		}
		if models.Deref(got.Album) != "七里香" || models.Deref(got.CoverURL) != "https://c/qlx.jpg" || models.Deref(got.ReleaseDate) != "2004-08-03" {
			t.Errorf("unexpected fields %+v", got)
		}
	})

	t.Run("falls back to first international result unconditionally", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, []models.ProviderSong{{Name: "Unrelated", Artist: "Nobody"}}, nil)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, intlHit, nil)
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "七里香", Artists: []string{"周杰伦"}})

		if c := intl.Calls(); len(c) != 1 || c[0].Limit != 1 {
			t.Errorf("expected one international call with limit 1, got %+v", c)
		}
		if got.Stage != StageInternational || models.Deref(got.Album) != "Intl Album" {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("never overwrites a user album", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, []models.ProviderSong{{Name: "Song", Artist: "A", Album: "Y", CoverURL: "https://c/y.jpg"}}, nil)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, nil, nil)
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "Song", Artists: []string{"A"}, Album: models.Ptr("X")})

		if models.Deref(got.Album) != "X" {
			t.Errorf("expected user album X, got %q", models.Deref(got.Album))
		}
		if models.Deref(got.CoverURL) != "https://c/y.jpg" {
			t.Errorf("expected blank cover filled, got %q", models.Deref(got.CoverURL))
		}
	})

	t.Run("empty provider album does not fill", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, []models.ProviderSong{{Name: "Song", Artist: "A"}}, nil)
		r := NewReconciler(newTestGateway(domestic, tu.NewMockProvider(services.ProviderITunesIntl, nil, nil)), quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "Song", Artists: []string{"A"}})
		if got.Album != nil {
			t.Errorf("expected album to stay absent, got %q", *got.Album)
		}
	})

	t.Run("no results leaves input unchanged", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, nil, nil)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, nil, nil)
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "Song", Artists: []string{"A"}, Album: models.Ptr("Mine")})
		if got.Stage != StageNone || models.Deref(got.Album) != "Mine" || got.CoverURL != nil {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("provider errors degrade to no enrichment", func(t *testing.T) {
		perr := &services.ProviderError{Provider: services.ProviderITunes, Err: errors.New("offline")}
		domestic := tu.NewMockProvider(services.ProviderITunes, nil, perr)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, intlHit, nil)
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "Song", Artists: []string{"A"}})
		if got.Stage != StageFailed || got.CoverURL != nil {
			t.Errorf("unexpected result %+v", got)
		}
		if len(intl.Calls()) != 0 {
			t.Error("gateway without fallbacks should not query the international storefront")
		}
	})

	t.Run("domestic failure uses gateway fallback", func(t *testing.T) {
		perr := &services.ProviderError{Provider: services.ProviderITunes, Err: errors.New("offline")}
		domestic := tu.NewMockProvider(services.ProviderITunes, nil, perr)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, intlHit, nil)
		gw := newTestGateway(domestic, intl)
		gw.SetFallback(services.ProviderITunesIntl)
		r := NewReconciler(gw, quietLogger())

		got := r.Reconcile(ctx, ReconcileInput{Title: "Qi Li Xiang", Artists: []string{"Jay Chou"}})
		if got.Stage != StageDomestic || models.Deref(got.CoverURL) != "https://c/intl.jpg" {
			t.Errorf("unexpected result %+v", got)
		}
		if len(intl.Calls()) != 1 {
			t.Errorf("expected one fallback lookup, got %d", len(intl.Calls()))
		}
	})

	t.Run("international error degrades", func(t *testing.T) {
		domestic := tu.NewMockProvider(services.ProviderITunes, nil, nil)
		intl := tu.NewMockProvider(services.ProviderITunesIntl, nil, errors.New("offline"))
		r := NewReconciler(newTestGateway(domestic, intl), quietLogger())

		if got := r.Reconcile(ctx, ReconcileInput{Title: "Song", Artists: []string{"A"}}); got.Stage != StageFailed {
			t.Errorf("expected failed stage, got %s", got.Stage)
		}
	})
}

func TestStrictMatch(t *testing.T) {
	candidates := []models.ProviderSong{
		{Name: "Love Story", Artist: "Taylor Swift"},
		{Name: "Hello", Artist: "Adele & Friends"},
		{Name: "Hello", Artist: "Adele"},
	}

	tc := []struct {
		name    string
		title   string
		artists []string
		wantOK  bool
		wantIdx int
	}{
		{name: "case insensitive contains", title: "love", artists: []string{"taylor"}, wantOK: true, wantIdx: 0},
		{name: "first qualifying candidate wins", title: "hello", artists: []string{"ADELE"}, wantOK: true, wantIdx: 1},
		{name: "joined artists must be contained", title: "hello", artists: []string{"Adele", "Friends"}, wantOK: false},
		{name: "title mismatch", title: "goodbye", artists: []string{"Adele"}, wantOK: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StrictMatch(candidates, tt.title, tt.artists)
			if ok != tt.wantOK {
				t.Fatalf("StrictMatch() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != candidates[tt.wantIdx] {
				t.Errorf("StrictMatch() = %+v, want %+v", got, candidates[tt.wantIdx])
			}
		})
	}
}
