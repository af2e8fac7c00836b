package programme

import (
	"fmt"
	"log/slog"
	"strings"

	"backstage/internal/config"
	"backstage/internal/logging"
	"backstage/internal/storage"
)

// Service owns the three persisted documents and implements every operation
// that reads or mutates them. All cross-document operations acquire the store
// guards in the fixed order acts, programme cache, itinerary.
type Service struct {
	acts      *storage.Store[[]Act]
	cache     *storage.Store[Cache]
	itinerary *storage.Store[Itinerary]
	stage     string
	logger    *slog.Logger
}

// OpenService opens the acts, programme cache, and itinerary documents under
// the configured data directory. Any document that is absent or unreadable in
// a recognized way starts from its default and is written back immediately.
func OpenService(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	logger = logging.NewComponentLogger(logger, "programme")

	acts, err := storage.Open([]Act{}, cfg.DocumentPath("acts.json"),
		storage.WithLogger[[]Act](logger))
	if err != nil {
		return nil, fmt.Errorf("open acts store: %w", err)
	}
	cache, err := storage.Open(DefaultCache(), cfg.DocumentPath("programme_cache.json"),
		storage.WithValidator(ValidCacheSchema),
		storage.WithLogger[Cache](logger))
	if err != nil {
		return nil, fmt.Errorf("open programme cache store: %w", err)
	}
	itinerary, err := storage.Open(Itinerary{}, cfg.DocumentPath("itinerary.json"),
		storage.WithLogger[Itinerary](logger))
	if err != nil {
		return nil, fmt.Errorf("open itinerary store: %w", err)
	}

	return &Service{
		acts:      acts,
		cache:     cache,
		itinerary: itinerary,
		stage:     cfg.Website.Stage,
		logger:    logger,
	}, nil
}

// Acts returns a snapshot copy of the authoritative act list.
func (s *Service) Acts() []Act {
	var snapshot []Act
	s.acts.View(func(acts *[]Act) {
		snapshot = make([]Act, len(*acts))
		copy(snapshot, *acts)
	})
	return snapshot
}

// ReplaceActs replaces the act list wholesale with a fresh feed snapshot and
// backfills itinerary entries for acts that do not have one yet. The feed is
// the single source of truth for which acts exist; stale entries for removed
// acts are kept so manually entered logistics survive feed hiccups.
func (s *Service) ReplaceActs(acts []Act) error {
	actsGuard := s.acts.Acquire()
	*actsGuard.Doc() = acts
	if err := actsGuard.Release(); err != nil {
		return fmt.Errorf("persist acts: %w", err)
	}
	s.logger.Info("replaced act list", logging.Int("acts", len(acts)))
	return s.ensureItineraries(acts)
}

// ensureItineraries creates the minimal itinerary entry for every act that
// lacks one.
func (s *Service) ensureItineraries(acts []Act) error {
	return s.itinerary.Update(func(doc *Itinerary) error {
		for _, act := range acts {
			if _, ok := (*doc)[act.Key()]; !ok {
				(*doc)[act.Key()] = ItineraryEntry{DressingRoomField: DressingRoomNone}
			}
		}
		return nil
	})
}

// ApplyDescriptions merges the outcome of a matching run into the programme
// cache per act key and stamps the fetch time. Entries for acts outside the
// batch stay in place, so an act that temporarily drops off the feed or the
// stage keeps its cached description. One guarded write covers the whole
// batch so readers never observe a half-applied run.
func (s *Service) ApplyDescriptions(entries map[string]Entry, fetchTime string) error {
	return s.cache.Update(func(doc *Cache) error {
		if doc.Acts == nil {
			doc.Acts = make(map[string]Entry, len(entries))
		}
		for key, entry := range entries {
			doc.Acts[key] = entry
		}
		doc.FetchTime = fetchTime
		return nil
	})
}

// CachedDescriptions returns a snapshot copy of the programme cache entries.
func (s *Service) CachedDescriptions() map[string]Entry {
	snapshot := map[string]Entry{}
	s.cache.View(func(doc *Cache) {
		for key, entry := range doc.Acts {
			snapshot[key] = entry
		}
	})
	return snapshot
}

// BuildLegacy assembles the merged programme view. When stageFilter is empty
// the configured home stage is used; the literal filter "all" disables stage
// filtering. Acts whose descriptions are missing get the fallback text rather
// than being dropped.
func (s *Service) BuildLegacy(stageFilter string) *LegacyProgramme {
	stage := strings.ToUpper(strings.TrimSpace(stageFilter))
	if stage == "" {
		stage = strings.ToUpper(s.stage)
	}

	actsGuard := s.acts.AcquireRead()
	defer actsGuard.Release()
	cacheGuard := s.cache.AcquireRead()
	defer cacheGuard.Release()

	acts := *actsGuard.Doc()
	cache := cacheGuard.Doc()

	result := &LegacyProgramme{
		Acts:      make(map[string]LegacyAct, len(acts)),
		FetchTime: cache.FetchTime,
	}
	for _, act := range acts {
		entry, found := cache.Acts[act.Key()]
		legacy := buildLegacyAct(act, entry, found)
		if stage != "ALL" && !matchesStage(legacy.Shows, stage) {
			continue
		}
		result.Acts[act.Key()] = legacy
	}
	return result
}
