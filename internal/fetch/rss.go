// Package fetch retrieves raw articles from RSS/Atom feeds.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/JakeFAU/newstopics/internal/news"
)

var errAllFeedsFailed = errors.New("all feeds unreachable")

// Config controls feed fetching.
type Config struct {
	// Feeds lists the RSS/Atom feed URLs polled in order.
	Feeds []string

	UserAgent string
	Timeout   time.Duration

	// MinContentWords triggers a full-page fetch when the feed entry body is
	// shorter than this. Zero disables full-page fetching.
	MinContentWords int
}

// RSS implements news.Source on top of gofeed, with an optional colly-backed
// full-content fetch for feeds that only carry teaser descriptions.
type RSS struct {
	cfg           Config
	parser        *gofeed.Parser
	baseCollector *colly.Collector
	hasher        news.Hasher
	clock         news.Clock
	logger        *zap.Logger
}

// NewRSS builds a feed source.
func NewRSS(cfg Config, hasher news.Hasher, clock news.Clock, logger *zap.Logger) *RSS {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := gofeed.NewParser()
	if cfg.UserAgent != "" {
		parser.UserAgent = cfg.UserAgent
	}
	return &RSS{
		cfg:           cfg,
		parser:        parser,
		baseCollector: colly.NewCollector(colly.Async(false)),
		hasher:        hasher,
		clock:         clock,
		logger:        logger,
	}
}

// Fetch polls each configured feed until max articles are collected.
// Duplicate items (same content hash) across feeds are dropped. A single
// failing feed is logged and skipped; Fetch only errors when every feed
// failed.
func (r *RSS) Fetch(ctx context.Context, max int) ([]news.RawArticle, error) {
	if max <= 0 || len(r.cfg.Feeds) == 0 {
		return nil, nil
	}

	var (
		out    []news.RawArticle
		seen   = make(map[string]struct{})
		failed int
	)
	for _, feedURL := range r.cfg.Feeds {
		if len(out) >= max {
			break
		}
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failed++
			r.logger.Warn("feed fetch failed", zap.String("feed", feedURL), zap.Error(err))
			continue
		}
		for _, item := range feed.Items {
			if len(out) >= max {
				break
			}
			raw, err := r.convertItem(ctx, feed, item)
			if err != nil {
				r.logger.Warn("feed item skipped",
					zap.String("feed", feedURL), zap.String("link", item.Link), zap.Error(err))
				continue
			}
			if _, dup := seen[raw.ContentHash]; dup {
				continue
			}
			seen[raw.ContentHash] = struct{}{}
			out = append(out, raw)
		}
	}

	if failed == len(r.cfg.Feeds) {
		return nil, &news.FetchError{Err: errAllFeedsFailed}
	}
	return out, nil
}

// convertItem maps a feed entry to a RawArticle, upgrading teaser bodies to
// the full page text when configured.
func (r *RSS) convertItem(ctx context.Context, feed *gofeed.Feed, item *gofeed.Item) (news.RawArticle, error) {
	content := item.Content
	if content == "" {
		content = item.Description
	}
	content = htmlToText(content)

	if r.cfg.MinContentWords > 0 && item.Link != "" &&
		len(strings.Fields(content)) < r.cfg.MinContentWords {
		if full, err := r.fetchFullContent(ctx, item.Link); err != nil {
			r.logger.Debug("full-content fetch failed, keeping feed body",
				zap.String("link", item.Link), zap.Error(err))
		} else if len(strings.Fields(full)) > len(strings.Fields(content)) {
			content = full
		}
	}

	hash, err := r.hasher.Hash([]byte(item.Title + "\n" + content))
	if err != nil {
		return news.RawArticle{}, err
	}

	published := r.clock.Now()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	}

	var author string
	if item.Author != nil {
		author = item.Author.Name
	}

	return news.RawArticle{
		URL:         item.Link,
		Title:       strings.TrimSpace(item.Title),
		Content:     content,
		Source:      strings.TrimSpace(feed.Title),
		Author:      author,
		PublishedAt: published,
		ContentHash: hash,
	}, nil
}

// fetchFullContent downloads the article page and extracts its visible text.
func (r *RSS) fetchFullContent(ctx context.Context, link string) (string, error) {
	collector := r.baseCollector.Clone()
	if r.cfg.UserAgent != "" {
		collector.UserAgent = r.cfg.UserAgent
	}
	collector.SetRequestTimeout(r.cfg.Timeout)

	var (
		text     string
		fetchErr error
	)
	collector.OnResponse(func(resp *colly.Response) {
		text = extractPageText(resp.Body)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		err := collector.Visit(link)
		collector.Wait()
		done <- err
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("page fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("visit page: %w", err)
		}
		if fetchErr != nil {
			return "", fmt.Errorf("page response: %w", fetchErr)
		}
		return text, nil
	}
}

// extractPageText pulls readable text out of an HTML page, dropping chrome
// like navigation and scripts.
func extractPageText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Find("article")
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	return strings.Join(strings.Fields(root.Text()), " ")
}

// htmlToText flattens feed-entry markup into plain text.
func htmlToText(content string) string {
	if !strings.Contains(content, "<") {
		return strings.Join(strings.Fields(content), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
