package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"air-quality-api/internal/archive"
	"air-quality-api/internal/feed"
	"air-quality-api/internal/models"
	"air-quality-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

type collectorService struct {
	repo      repositories.AirQualityRepository
	feeds     *feed.Client
	feedsPath string
	archive   archive.Archiver
	logger    *logrus.Logger
	now       func() time.Time
}

// NewCollectorService creates the collection job. feedsPath points to a
// CSV file with a URL column listing one feed per monitored city.
// A nil archiver disables raw payload archiving.
func NewCollectorService(repo repositories.AirQualityRepository, feeds *feed.Client, feedsPath string, archiver archive.Archiver, logger *logrus.Logger) CollectorService {
	if logger == nil {
		logger = logrus.New()
	}
	return &collectorService{
		repo:      repo,
		feeds:     feeds,
		feedsPath: feedsPath,
		archive:   archiver,
		logger:    logger,
		now:       time.Now,
	}
}

// Run fetches every configured feed and stores its readings. A failing
// feed or row is logged and skipped; the pass continues so one bad city
// never starves the rest.
func (s *collectorService) Run(ctx context.Context) (*CollectionStats, error) {
	urls, err := s.readFeedURLs()
	if err != nil {
		return nil, err
	}

	stats := &CollectionStats{Feeds: len(urls)}

	for _, feedURL := range urls {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		s.logger.WithField("url", feedURL).Info("Processing feed")

		document, err := s.feeds.FetchRaw(ctx, feedURL)
		if err != nil {
			stats.Failed++
			s.logger.WithFields(logrus.Fields{
				"url":   feedURL,
				"error": err.Error(),
			}).Error("Feed fetch failed")
			continue
		}

		s.archiveDocument(ctx, feedURL, document)

		entries, err := feed.Parse(document)
		if err != nil {
			stats.Failed++
			s.logger.WithFields(logrus.Fields{
				"url":   feedURL,
				"error": err.Error(),
			}).Error("Feed parse failed")
			continue
		}

		stats.Entries += len(entries)

		for _, entry := range entries {
			reading, ok := readingFromEntry(entry)
			if !ok {
				stats.Skipped++
				continue
			}

			if err := s.repo.Insert(ctx, reading); err != nil {
				stats.Failed++
				s.logger.WithFields(logrus.Fields{
					"location": reading.Location,
					"error":    err.Error(),
				}).Error("Failed to store reading")
				continue
			}

			stats.Stored++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"feeds":   stats.Feeds,
		"entries": stats.Entries,
		"stored":  stats.Stored,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	}).Info("Collection pass completed")

	return stats, nil
}

// archiveDocument stores the raw feed payload for later replay. Failures
// are logged and never interrupt the collection pass.
func (s *collectorService) archiveDocument(ctx context.Context, feedURL string, document []byte) {
	if s.archive == nil {
		return
	}

	key := snapshotKey(feedURL, s.now().UTC())
	if err := s.archive.Store(ctx, key, document); err != nil {
		s.logger.WithFields(logrus.Fields{
			"url":   feedURL,
			"key":   key,
			"error": err.Error(),
		}).Warn("Failed to archive feed payload")
	}
}

// snapshotKey names a snapshot by feed host and capture day, so a feed
// fetched several times a day keeps only the latest payload.
func snapshotKey(feedURL string, capturedAt time.Time) string {
	host := "feed"
	if parsed, err := url.Parse(feedURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	return fmt.Sprintf("%s/%s.xml", host, capturedAt.Format("2006-01-02"))
}

// readingFromEntry maps a feed entry to a storable reading. Entries with
// no report date carry no measurements and are skipped.
func readingFromEntry(entry feed.Entry) (*models.Reading, bool) {
	if entry.Unavailable || entry.ReportDate == nil {
		return nil, false
	}

	if entry.PM25 == nil && entry.PM10 == nil && entry.Ozone == nil {
		return nil, false
	}

	// The feed names reporting areas as "City, ST"; only the city part
	// is used as the location key.
	location := strings.TrimSpace(strings.SplitN(entry.Location, ",", 2)[0])
	if location == "" {
		return nil, false
	}

	return &models.Reading{
		Title:      entry.Title,
		Link:       entry.Link,
		Location:   location,
		ReportDate: *entry.ReportDate,
		PM25:       entry.PM25,
		PM10:       entry.PM10,
		Ozone:      entry.Ozone,
		Agency:     entry.Agency,
		LastUpdate: entry.LastUpdate,
	}, true
}

// readFeedURLs loads the feed list from the configured CSV file
func (s *collectorService) readFeedURLs() ([]string, error) {
	file, err := os.Open(s.feedsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed list %s: %w", s.feedsPath, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed list %s: %w", s.feedsPath, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("feed list %s is empty", s.feedsPath)
	}

	urlColumn := -1
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), "URL") {
			urlColumn = i
			break
		}
	}
	if urlColumn == -1 {
		return nil, fmt.Errorf("feed list %s has no URL column", s.feedsPath)
	}

	var urls []string
	for _, record := range records[1:] {
		if urlColumn >= len(record) {
			continue
		}
		if u := strings.TrimSpace(record[urlColumn]); u != "" {
			urls = append(urls, u)
		}
	}

	return urls, nil
}
