package realtime

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/RhythmD22/SmartShuttle/internal/metrics"
	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// Fetcher polls a GTFS-RT service alerts feed and updates the store.
type Fetcher struct {
	alertsURL string
	interval  time.Duration
	store     *Store
	client    *http.Client
	logger    *slog.Logger

	// Metrics tracks the active alert count when set.
	Metrics *metrics.Collector
}

// NewFetcher creates a GTFS-RT alerts fetcher polling at the given interval.
func NewFetcher(alertsURL string, interval time.Duration, store *Store, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		alertsURL: alertsURL,
		interval:  interval,
		store:     store,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// Start begins polling the alerts feed. Blocks until context is cancelled.
func (f *Fetcher) Start(ctx context.Context) {
	// Fetch immediately on start
	f.fetchAlerts(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.fetchAlerts(ctx)
		case <-ctx.Done():
			f.logger.Info("alerts fetcher stopped")
			return
		}
	}
}

func (f *Fetcher) fetchAlerts(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, "GET", f.alertsURL, nil)
	if err != nil {
		f.logger.Error("create alerts request", "error", err)
		return
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("fetch alerts failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("alerts feed returned non-200", "status", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Error("read alerts body", "error", err)
		return
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		f.logger.Error("parse alerts protobuf", "error", err)
		return
	}

	alerts := ParseFeed(feed)
	f.store.SetAlerts(alerts)
	if f.Metrics != nil {
		f.Metrics.ActiveAlerts.Set(float64(len(alerts)))
	}
	f.logger.Info("service alerts updated", "count", len(alerts))
}

// ParseFeed extracts service alerts from a decoded GTFS-RT feed message.
func ParseFeed(feed *gtfs.FeedMessage) []transit.Alert {
	var alerts []transit.Alert
	for _, entity := range feed.GetEntity() {
		a := entity.GetAlert()
		if a == nil {
			continue
		}

		alert := transit.Alert{
			ID:          entity.GetId(),
			Title:       getTranslation(a.GetHeaderText()),
			Description: getTranslation(a.GetDescriptionText()),
			Effect:      a.GetEffect().String(),
		}

		// Affected routes and stops, deduplicated
		seen := make(map[string]bool)
		for _, ie := range a.GetInformedEntity() {
			if rid := ie.GetRouteId(); rid != "" && !seen[rid] {
				alert.InformedEntities = append(alert.InformedEntities, rid)
				seen[rid] = true
			}
			if sid := ie.GetStopId(); sid != "" && !seen[sid] {
				alert.InformedEntities = append(alert.InformedEntities, sid)
				seen[sid] = true
			}
		}

		alerts = append(alerts, alert)
	}
	return alerts
}

func getTranslation(ts *gtfs.TranslatedString) string {
	if ts == nil {
		return ""
	}
	for _, t := range ts.GetTranslation() {
		if text := t.GetText(); text != "" {
			return text
		}
	}
	return ""
}
