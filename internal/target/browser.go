package target

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

// page is the parsed state of the last fetched document. links and
// assets hold resolved same-host URLs in document order, deduplicated.
type page struct {
	url    string
	links  []string
	assets []string
}

// Browser simulates a user browsing the target over plain HTTP: reload
// the current document, follow one of its links, or fetch one of its
// referenced assets. All three actions share one cached document. The
// runner executes actions one at a time, so no lock guards the state.
type Browser struct {
	client *Client
	rng    *rand.Rand
	start  string
	page   *page
	// stale is set when a cached link or asset reference turned out to
	// be gone; the next attempt re-reads the current document before
	// picking again.
	stale bool
}

// NewBrowser returns a browser starting at the client's base URL. A zero
// seed picks a time-based one.
func NewBrowser(client *Client, seed int64) *Browser {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	base := client.Base()
	return &Browser{
		client: client,
		rng:    rand.New(rand.NewSource(seed)),
		start:  base.String(),
	}
}

// Actions returns the browsing action set: reload, follow-link and
// fetch-asset.
func (b *Browser) Actions() []harness.Action {
	return []harness.Action{
		harness.ActionFunc("reload", b.reload),
		harness.ActionFunc("follow-link", b.followLink),
		harness.ActionFunc("fetch-asset", b.fetchAsset),
	}
}

func (b *Browser) currentURL() string {
	if b.page != nil {
		return b.page.url
	}
	return b.start
}

// reload re-fetches the current document. The first tick of a run lands
// here with no document yet and performs the initial navigation.
func (b *Browser) reload(ctx context.Context) (observe.Fields, error) {
	return b.navigate(ctx, b.currentURL(), false)
}

// followLink picks one link of the current document uniformly at random
// and navigates to it. A document without links is a dead end; the
// browser returns to the start page instead.
func (b *Browser) followLink(ctx context.Context) (observe.Fields, error) {
	if err := b.ensure(ctx); err != nil {
		return nil, err
	}
	if len(b.page.links) == 0 {
		return b.navigate(ctx, b.start, false)
	}
	href := b.page.links[b.rng.Intn(len(b.page.links))]
	return b.navigate(ctx, href, true)
}

// fetchAsset picks one asset reference of the current document uniformly
// at random and fetches it. The current document stays current; a
// document without assets is re-fetched instead.
func (b *Browser) fetchAsset(ctx context.Context) (observe.Fields, error) {
	if err := b.ensure(ctx); err != nil {
		return nil, err
	}
	if len(b.page.assets) == 0 {
		return b.navigate(ctx, b.page.url, false)
	}
	src := b.page.assets[b.rng.Intn(len(b.page.assets))]
	rec, _, err := b.client.Get(ctx, src)
	if err != nil {
		return nil, err
	}
	if rec.Status >= 400 && rec.Status < 500 {
		b.stale = true
		return nil, harness.Transient(fmt.Errorf("cached asset %s: status %d", src, rec.Status))
	}
	if err := classifyStatus(rec); err != nil {
		return nil, err
	}
	return tickFields(rec), nil
}

// ensure makes sure a fresh document is cached, re-fetching the current
// URL after a stale pick or on the very first action of a run.
func (b *Browser) ensure(ctx context.Context) error {
	if b.page != nil && !b.stale {
		return nil
	}
	_, err := b.navigate(ctx, b.currentURL(), false)
	return err
}

// navigate fetches rawURL and makes it the current document. fromCache
// marks URLs taken out of a cached document: a 4xx then means the cache
// no longer matches the site, so it is flagged stale and the tick fails
// transient, giving the retry a chance to re-read and pick again.
func (b *Browser) navigate(ctx context.Context, rawURL string, fromCache bool) (observe.Fields, error) {
	rec, body, err := b.client.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if fromCache && rec.Status >= 400 && rec.Status < 500 {
		b.stale = true
		return nil, harness.Transient(fmt.Errorf("cached link %s: status %d", rawURL, rec.Status))
	}
	if err := classifyStatus(rec); err != nil {
		return nil, err
	}

	p := &page{url: rawURL}
	if u, err := url.Parse(rawURL); err == nil {
		p.links, p.assets = extract(u, b.client.base.Host, body)
	}
	b.page = p
	b.stale = false
	return tickFields(rec), nil
}

// extract walks an HTML document and collects link and asset URLs:
// anchors on one side, img/script sources and stylesheets on the other.
// References are resolved against pageURL and kept only when they stay
// on the target host.
func extract(pageURL *url.URL, host string, body []byte) (links, assets []string) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, nil
	}
	seenLinks := map[string]bool{}
	seenAssets := map[string]bool{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href, ok := attrVal(n, "href"); ok {
					if u := usable(pageURL, host, href); u != "" && !seenLinks[u] {
						seenLinks[u] = true
						links = append(links, u)
					}
				}
			case "img", "script":
				if src, ok := attrVal(n, "src"); ok {
					if u := usable(pageURL, host, src); u != "" && !seenAssets[u] {
						seenAssets[u] = true
						assets = append(assets, u)
					}
				}
			case "link":
				rel, _ := attrVal(n, "rel")
				if strings.Contains(strings.ToLower(rel), "stylesheet") {
					if href, ok := attrVal(n, "href"); ok {
						if u := usable(pageURL, host, href); u != "" && !seenAssets[u] {
							seenAssets[u] = true
							assets = append(assets, u)
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, assets
}

func attrVal(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// usable resolves ref against the document URL and returns it with the
// fragment stripped, or "" when it leaves the target host or is not
// plain http(s) (javascript:, mailto: and friends). Fragment-only refs
// navigate nowhere and are skipped.
func usable(pageURL *url.URL, host, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}
	u, err := pageURL.Parse(ref)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host != host {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
