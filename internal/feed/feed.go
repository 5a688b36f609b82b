// Package feed fetches AirNow RSS feeds and extracts air-quality
// readings from the HTML fragments embedded in each entry summary.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is one parsed feed item. Measurement fields are nil when the
// agency did not publish the pollutant; Unavailable marks entries that
// only announce missing data for a location.
type Entry struct {
	Title       string
	Link        string
	Location    string
	ReportDate  *time.Time
	PM25        *int
	PM10        *int
	Ozone       *int
	Agency      string
	LastUpdate  *time.Time
	Unavailable bool
}

var (
	locationPattern    = regexp.MustCompile(`<div><b>Location:</b>\s*(.*?)</div>`)
	reportDatePattern  = regexp.MustCompile(`<b>Current Air Quality:</b>\s*(.*?)<br`)
	measurementPattern = regexp.MustCompile(`(Good|Moderate|Unhealthy for Sensitive Groups|Unhealthy|Very Unhealthy|Hazardous)\s*-\s*(\d+)\s*AQI\s*-\s*([^<]+)`)
	agencyPattern      = regexp.MustCompile(`<div><b>Agency:</b>\s*(.*?)</div>`)
	lastUpdatePattern  = regexp.MustCompile(`<div><i>Last Update: (.*?)</i></div>`)
	unavailablePattern = regexp.MustCompile(`Current Air Quality unavailable for\s*(.*?)<br`)
	timezonePattern    = regexp.MustCompile(`(?i)\s+(PDT|PST)\s*$`)
)

// AirNow publishes local times without a usable zone suffix; layouts
// match the feed after the suffix is stripped.
const (
	reportDateLayout = "01/02/06 3:04 PM"
	lastUpdateLayout = "Mon, 02 Jan 2006 15:04:05"
)

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
}

// Client fetches and parses feeds
type Client struct {
	http   *http.Client
	logger *logrus.Logger
}

// NewClient creates a feed client with the given request timeout
func NewClient(timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchRaw downloads a feed and returns the undecoded document
func (c *Client) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", url, err)
	}

	return body, nil
}

// Fetch downloads a feed and returns its parsed entries
func (c *Client) Fetch(ctx context.Context, url string) ([]Entry, error) {
	body, err := c.FetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}

	entries, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", url, err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":     url,
		"entries": len(entries),
	}).Debug("Feed fetched")

	return entries, nil
}

// Parse decodes an RSS document and extracts one Entry per item
func Parse(document []byte) ([]Entry, error) {
	var doc rssDocument
	if err := xml.Unmarshal(document, &doc); err != nil {
		return nil, fmt.Errorf("invalid RSS document: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		entry := Entry{
			Title: strings.TrimSpace(item.Title),
			Link:  strings.TrimSpace(item.Link),
		}
		parseSummary(item.Description, &entry)
		entries = append(entries, entry)
	}

	return entries, nil
}

// parseSummary extracts the reading fields from an item's summary HTML
func parseSummary(summary string, entry *Entry) {
	if m := unavailablePattern.FindStringSubmatch(summary); m != nil {
		entry.Location = strings.TrimSpace(m[1])
		entry.Unavailable = true
		return
	}

	if m := locationPattern.FindStringSubmatch(summary); m != nil {
		entry.Location = strings.TrimSpace(m[1])
	}

	if m := reportDatePattern.FindStringSubmatch(summary); m != nil {
		if t, err := parseFeedTime(m[1], reportDateLayout); err == nil {
			entry.ReportDate = &t
		}
	}

	if m := agencyPattern.FindStringSubmatch(summary); m != nil {
		entry.Agency = strings.TrimSpace(m[1])
	}

	if m := lastUpdatePattern.FindStringSubmatch(summary); m != nil {
		if t, err := parseFeedTime(m[1], lastUpdateLayout); err == nil {
			entry.LastUpdate = &t
		}
	}

	for _, m := range measurementPattern.FindAllStringSubmatch(summary, -1) {
		aqi, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		pollutant := m[3]
		switch {
		case strings.Contains(pollutant, "2.5 microns"):
			entry.PM25 = &aqi
		case strings.Contains(pollutant, "10 microns"):
			entry.PM10 = &aqi
		case strings.Contains(pollutant, "Ozone"):
			entry.Ozone = &aqi
		}
	}
}

func parseFeedTime(value, layout string) (time.Time, error) {
	cleaned := timezonePattern.ReplaceAllString(strings.TrimSpace(value), "")
	return time.Parse(layout, cleaned)
}
