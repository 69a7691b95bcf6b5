package main

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"
	xpp "github.com/mmcdole/goxpp"
	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
)

// Show is the channel-level metadata of a podcast feed. Optional fields are
// nil when the feed doesn't carry them.
type Show struct {
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	Episodes      []Episode `json:"episodes"`
	Language      *string   `json:"language,omitempty"`
	LastBuildDate *string   `json:"lastBuildDate,omitempty"`
	Author        *string   `json:"author,omitempty"`
	Summary       *string   `json:"summary,omitempty"`
}

// Episode is one item of a podcast feed.
type Episode struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	PubDate     string  `json:"pubDate"`
	Duration    *int    `json:"duration,omitempty"` // seconds
	URL         *string `json:"url,omitempty"`
	Author      *string `json:"author,omitempty"`
	EpisodeType *string `json:"episodeType,omitempty"`
	Subtitle    *string `json:"subtitle,omitempty"`

	published *time.Time
}

// Published returns the publish time when PubDate could be parsed.
func (e Episode) Published() (time.Time, bool) {
	if e.published == nil {
		return time.Time{}, false
	}
	return *e.published, true
}

var (
	ErrNotRSS    = errors.New("document root is not <rss>")
	ErrNoChannel = errors.New("feed has no rss channel")
)

// ParseFeed reads an RSS document into its raw channel. Every field of the
// result may be empty; MapFeed turns it into a Show.
func ParseFeed(r io.Reader) (*rss.Feed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// gofeed also takes RSS 1.0 <rdf:RDF> documents and hands back an empty
	// channel when <channel> is missing, so the shape is checked up front.
	if err := checkRSSChannel(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	fp := rss.Parser{}
	return fp.Parse(bytes.NewReader(data))
}

// checkRSSChannel walks the document until it finds <rss><channel>.
func checkRSSChannel(r io.Reader) error {
	p := xpp.NewXMLPullParser(r, false, charset.NewReaderLabel)

	for {
		event, err := p.Next()
		if err != nil {
			return err
		}
		if event == xpp.EndDocument {
			return ErrNotRSS
		}
		if event == xpp.StartTag {
			break
		}
	}
	if p.Name != "rss" {
		return ErrNotRSS
	}

	depth := 1
	for depth > 0 {
		event, err := p.Next()
		if err != nil {
			return err
		}
		switch event {
		case xpp.StartTag:
			if depth == 1 && p.Name == "channel" {
				return nil
			}
			depth++
		case xpp.EndTag:
			depth--
		case xpp.EndDocument:
			return ErrNoChannel
		}
	}
	return ErrNoChannel
}

// MapFeed projects a raw channel into a Show with the default Mapper.
func MapFeed(channel *rss.Feed) Show {
	return Mapper{}.Map(channel)
}

// Mapper projects raw channels into Shows. The zero Mapper reads
// itunes:duration like parseInt: the leading base-10 integer of the text.
type Mapper struct {
	// ClockDurations additionally converts "MM:SS" and "HH:MM:SS" durations
	// to seconds instead of keeping their leading number.
	ClockDurations bool
}

// Map never fails: anything the channel lacks is left nil on the result.
func (m Mapper) Map(channel *rss.Feed) Show {
	itunes := channel.ITunesExt
	if itunes == nil {
		itunes = &ext.ITunesFeedExtension{}
	}

	var fallbackImage string
	if channel.Image != nil {
		fallbackImage = channel.Image.URL
	}
	image, _ := lo.Coalesce(strings.TrimSpace(itunes.Image), strings.TrimSpace(fallbackImage))

	return Show{
		Title:         strings.TrimSpace(channel.Title),
		Description:   optional(channel.Description),
		ImageURL:      optional(image),
		Episodes:      m.mapEpisodes(channel.Items),
		Language:      optional(channel.Language),
		LastBuildDate: optional(channel.LastBuildDate),
		Author:        optional(itunes.Author),
		Summary:       optional(itunes.Summary),
	}
}

// mapEpisodes keeps document order. A missing item list maps to an empty one,
// and a single <item> is a one-element list like any other.
func (m Mapper) mapEpisodes(items []*rss.Item) []Episode {
	return lo.FilterMap(items, func(item *rss.Item, _ int) (Episode, bool) {
		if item == nil {
			return Episode{}, false
		}
		return m.mapEpisode(item), true
	})
}

func (m Mapper) mapEpisode(item *rss.Item) Episode {
	itunes := item.ITunesExt
	if itunes == nil {
		itunes = &ext.ITunesItemExtension{}
	}

	var enclosureURL string
	if item.Enclosure != nil {
		enclosureURL = item.Enclosure.URL
	}

	return Episode{
		Title:       strings.TrimSpace(item.Title),
		Description: optional(item.Description),
		PubDate:     strings.TrimSpace(item.PubDate),
		Duration:    m.duration(itunes.Duration),
		URL:         optional(enclosureURL),
		Author:      optional(itunes.Author),
		EpisodeType: optional(itunes.EpisodeType),
		Subtitle:    optional(itunes.Subtitle),
		published:   item.PubDateParsed,
	}
}

func optional(s string) *string {
	return lo.EmptyableToPtr(strings.TrimSpace(s))
}

func (m Mapper) duration(raw string) *int {
	if m.ClockDurations && strings.Contains(raw, ":") {
		if d := parseClockDuration(raw); d != nil {
			return d
		}
	}
	return parseLeadingInt(raw)
}

// parseLeadingInt reads the optionally signed base-10 integer at the start of
// the text and ignores the rest, so "12.5" is 12 and "40 minutes" is 40.
// Text without leading digits, or a number that overflows int, is nil.
func parseLeadingInt(raw string) *int {
	s := strings.TrimSpace(raw)

	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	n, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		d := int(s[digits] - '0')
		if n > (math.MaxInt-d)/10 {
			return nil
		}
		n = n*10 + d
	}
	if digits == 0 {
		return nil
	}

	n *= sign
	return &n
}

// parseClockDuration converts "MM:SS" or "HH:MM:SS" to seconds. Anything
// else, including values that overflow int, is nil.
func parseClockDuration(raw string) *int {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}

	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || strings.HasPrefix(part, "+") {
			return nil
		}
		// minutes and seconds of clock text stay below 60
		if i > 0 && n >= 60 {
			return nil
		}
		if total > (math.MaxInt-n)/60 {
			return nil
		}
		total = total*60 + n
	}
	return &total
}
