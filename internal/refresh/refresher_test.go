package refresh_test

import (
	"context"
	"errors"
	"testing"

	"backstage/internal/config"
	"backstage/internal/logging"
	"backstage/internal/match"
	"backstage/internal/programme"
	"backstage/internal/refresh"
)

type stubFeed struct {
	acts []programme.Act
	err  error
}

func (s stubFeed) Fetch(context.Context) ([]programme.Act, error) {
	return s.acts, s.err
}

type stubWebsite struct {
	candidates []match.WebsiteAct
	err        error
}

func (s stubWebsite) GetPrograms(context.Context, string) ([]match.WebsiteAct, error) {
	return s.candidates, s.err
}

type recordingNotifier struct {
	errorCount   int
	refreshCount int
}

func (n *recordingNotifier) NotifyError(context.Context, error, string) error {
	n.errorCount++
	return nil
}

func (n *recordingNotifier) NotifyRefreshCompleted(context.Context, string, int) error {
	n.refreshCount++
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func newTestService(t *testing.T) *programme.Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Paths.DataDir = t.TempDir()
	cfg.Website.Stage = "Amigo"
	service, err := programme.OpenService(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("OpenService: %v", err)
	}
	return service
}

func showtime(stage string) programme.TimelineEvent {
	return programme.TimelineEvent{
		Type:  programme.EventShowtime,
		Stage: stage,
		Start: "2024-08-22 20:00:00",
		End:   "2024-08-22 21:00:00",
	}
}

func newRefresher(service *programme.Service, feed refresh.ActFetcher, site refresh.ProgramFetcher, notifier *recordingNotifier) *refresh.Refresher {
	matcher := match.New(0.8, logging.NewNop())
	return refresh.New(service, feed, site, matcher, notifier, logging.NewNop(), refresh.Options{Stage: "Amigo"})
}

func TestRefreshActsReplacesSnapshot(t *testing.T) {
	service := newTestService(t)
	notifier := &recordingNotifier{}
	feed := stubFeed{acts: []programme.Act{
		{ID: "1", Name: "Foo", Timeline: []programme.TimelineEvent{showtime("Amigo")}},
	}}
	r := newRefresher(service, feed, stubWebsite{}, notifier)

	if err := r.RefreshActs(context.Background()); err != nil {
		t.Fatalf("RefreshActs: %v", err)
	}
	if got := service.Acts(); len(got) != 1 || got[0].Name != "Foo" {
		t.Fatalf("acts = %+v", got)
	}
	if r.LastActsRefresh().IsZero() {
		t.Error("last acts refresh not recorded")
	}
	if notifier.errorCount != 0 {
		t.Errorf("error notifications = %d", notifier.errorCount)
	}
}

func TestRefreshActsFailureKeepsSnapshot(t *testing.T) {
	service := newTestService(t)
	notifier := &recordingNotifier{}
	if err := service.ReplaceActs([]programme.Act{{ID: "1", Name: "Keep"}}); err != nil {
		t.Fatalf("ReplaceActs: %v", err)
	}

	r := newRefresher(service, stubFeed{err: errors.New("feed down")}, stubWebsite{}, notifier)
	if err := r.RefreshActs(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := service.Acts(); len(got) != 1 || got[0].Name != "Keep" {
		t.Fatalf("acts = %+v", got)
	}
	if notifier.errorCount != 1 {
		t.Errorf("error notifications = %d, want 1", notifier.errorCount)
	}
	if !r.LastActsRefresh().IsZero() {
		t.Error("failed refresh must not be recorded")
	}
}

func TestRefreshDescriptionsMatchesStageActs(t *testing.T) {
	service := newTestService(t)
	notifier := &recordingNotifier{}
	acts := []programme.Act{
		{ID: "1", Name: "The Amigos", Timeline: []programme.TimelineEvent{showtime("Amigo")}},
		{ID: "2", Name: "Elsewhere", Timeline: []programme.TimelineEvent{showtime("Mainstage")}},
		{ID: "3", Name: "Unknown Act", Timeline: []programme.TimelineEvent{showtime("Amigo")}},
	}
	if err := service.ReplaceActs(acts); err != nil {
		t.Fatalf("ReplaceActs: %v", err)
	}

	site := stubWebsite{candidates: []match.WebsiteAct{
		{Title: "The Amigos", DescriptionHTML: "<p>Legends.</p>"},
		{Title: "Completely Different", DescriptionHTML: "<p>Other.</p>"},
	}}
	r := newRefresher(service, stubFeed{}, site, notifier)

	if err := r.RefreshDescriptions(context.Background()); err != nil {
		t.Fatalf("RefreshDescriptions: %v", err)
	}

	entries := service.CachedDescriptions()
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want acts 1 and 3", entries)
	}
	matched := entries["1"]
	if !matched.NameMatchedToWebsite || matched.DescriptionHTML == nil || *matched.DescriptionHTML != "<p>Legends.</p>" {
		t.Errorf("matched entry = %+v", matched)
	}
	unmatched := entries["3"]
	if unmatched.NameMatchedToWebsite || unmatched.DescriptionHTML != nil {
		t.Errorf("unmatched entry = %+v", unmatched)
	}
	if _, ok := entries["2"]; ok {
		t.Error("off-stage act must not be matched")
	}
	if notifier.refreshCount != 1 {
		t.Errorf("refresh notifications = %d, want 1", notifier.refreshCount)
	}
}

func TestRefreshDescriptionsFailureKeepsCache(t *testing.T) {
	service := newTestService(t)
	notifier := &recordingNotifier{}
	if err := service.ReplaceActs([]programme.Act{
		{ID: "1", Name: "Foo", Timeline: []programme.TimelineEvent{showtime("Amigo")}},
	}); err != nil {
		t.Fatalf("ReplaceActs: %v", err)
	}
	seeded := "<p>Seeded.</p>"
	if err := service.ApplyDescriptions(map[string]programme.Entry{
		"1": {DescriptionHTML: &seeded, NameMatchedToWebsite: true},
	}, "earlier"); err != nil {
		t.Fatalf("ApplyDescriptions: %v", err)
	}

	r := newRefresher(service, stubFeed{}, stubWebsite{err: errors.New("website down")}, notifier)
	if err := r.RefreshDescriptions(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	entries := service.CachedDescriptions()
	if entry := entries["1"]; entry.DescriptionHTML == nil || *entry.DescriptionHTML != "<p>Seeded.</p>" {
		t.Fatalf("cache was touched: %+v", entries)
	}
	if notifier.errorCount != 1 {
		t.Errorf("error notifications = %d, want 1", notifier.errorCount)
	}
}
