package news

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestFirstHref(t *testing.T) {
	html := `<li class="clearfix">
		<h2><a>bare anchor</a></h2>
		<h3><a href="/news/reliance-q1.html">Reliance posts strong quarter</a></h3>
	</li>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	href := firstHref(doc.Selection, "h2 a, h3 a")
	if href != "/news/reliance-q1.html" {
		t.Errorf("Expected the first anchor with an href, got %q", href)
	}

	if got := firstHref(doc.Selection, "div.missing a"); got != "" {
		t.Errorf("Expected empty href for no matches, got %q", got)
	}
}

func TestGetDomain(t *testing.T) {
	if d := getDomain("https://www.moneycontrol.com"); d != "www.moneycontrol.com" {
		t.Errorf("Expected www.moneycontrol.com, got %s", d)
	}
	if d := getDomain("://bad"); d != "" {
		t.Errorf("Expected empty domain for an unparseable URL, got %s", d)
	}
}

func TestNewScraperDefaults(t *testing.T) {
	s := NewScraper(5 * time.Second)
	if len(s.sources) != 3 {
		t.Errorf("Expected 3 default sources, got %d", len(s.sources))
	}
	for _, src := range s.sources {
		if !strings.Contains(src.SearchPath, "{symbol}") {
			t.Errorf("Source %s search path has no symbol placeholder", src.Name)
		}
	}
}
