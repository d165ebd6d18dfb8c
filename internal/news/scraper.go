package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

// Scraper fetches recent headlines for a symbol from Indian financial news
// sites. It is used to attach context to low-confidence signals; failures
// never block a simulation.
type Scraper struct {
	sources []headlineSource
	timeout time.Duration
}

// headlineSource defines a news source configuration
type headlineSource struct {
	Name       string
	BaseURL    string
	SearchPath string // e.g., "/search?q={symbol}"
	Selectors  headlineSelectors
	RateLimit  time.Duration
}

// headlineSelectors defines CSS selectors for extracting headline data
type headlineSelectors struct {
	Container   string
	Title       string
	URL         string
	PublishedAt string
}

// NewScraper creates a scraper over the default source list
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

func defaultSources() []headlineSource {
	return []headlineSource{
		{
			Name:       "MoneyControl",
			BaseURL:    "https://www.moneycontrol.com",
			SearchPath: "/news/tags/{symbol}.html",
			Selectors: headlineSelectors{
				Container:   "li.clearfix",
				Title:       "h2 a, h3 a",
				URL:         "h2 a, h3 a",
				PublishedAt: "span.ago",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "EconomicTimes",
			BaseURL:    "https://economictimes.indiatimes.com",
			SearchPath: "/topic/{symbol}",
			Selectors: headlineSelectors{
				Container:   "div.story-box",
				Title:       "a",
				URL:         "a",
				PublishedAt: "time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "BusinessStandard",
			BaseURL:    "https://www.business-standard.com",
			SearchPath: "/search?q={symbol}",
			Selectors: headlineSelectors{
				Container:   "div.listing-txt",
				Title:       "a.Hdng",
				URL:         "a.Hdng",
				PublishedAt: "span.listing-date",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Headlines fetches up to maxHeadlines recent headlines for a symbol across
// all sources. Per-source failures are logged and skipped.
func (s *Scraper) Headlines(ctx context.Context, symbol string, maxHeadlines int) ([]types.Headline, error) {
	logger.Info(ctx, "Fetching headlines", "symbol", symbol, "sources", len(s.sources))

	all := []types.Headline{}
	perSource := maxHeadlines / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	for _, source := range s.sources {
		headlines, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			continue
		}
		all = append(all, headlines...)

		if len(all) >= maxHeadlines {
			all = all[:maxHeadlines]
			break
		}

		// Rate limiting between sources
		time.Sleep(source.RateLimit)
	}

	logger.Info(ctx, "Headline fetch completed", "symbol", symbol, "headlines", len(all))
	return all, nil
}

// scrapeSource scrapes headlines from a single news source
func (s *Scraper) scrapeSource(ctx context.Context, source headlineSource, symbol string, maxHeadlines int) ([]types.Headline, error) {
	headlines := []types.Headline{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)

	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.Container, func(e *colly.HTMLElement) {
		if len(headlines) >= maxHeadlines {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}

		headlineURL := firstHref(e.DOM, source.Selectors.URL)
		if headlineURL == "" {
			return
		}
		if !strings.HasPrefix(headlineURL, "http") {
			headlineURL = source.BaseURL + headlineURL
		}

		headlines = append(headlines, types.Headline{
			Source:      source.Name,
			Title:       title,
			URL:         headlineURL,
			PublishedAt: strings.TrimSpace(e.ChildText(source.Selectors.PublishedAt)),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", strings.ToLower(symbol))

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}

	c.Wait()

	return headlines, nil
}

// firstHref returns the href of the first anchor matching selector that
// actually carries one. ChildAttr only checks the first match, which on some
// listing pages is a bare anchor.
func firstHref(sel *goquery.Selection, selector string) string {
	var href string
	sel.Find(selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if v, ok := a.Attr("href"); ok && strings.TrimSpace(v) != "" {
			href = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return href
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
