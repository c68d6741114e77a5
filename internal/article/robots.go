package article

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache holds the parsed robots.txt group per host. A host whose
// robots.txt could not be loaded maps to nil, which allows everything.
type robotsCache struct {
	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func newRobotsCache() *robotsCache {
	return &robotsCache{groups: make(map[string]*robotstxt.Group)}
}

func (f *Fetcher) allowed(ctx context.Context, u *url.URL) bool {
	key := u.Scheme + "://" + u.Host

	f.robots.mu.Lock()
	group, ok := f.robots.groups[key]
	f.robots.mu.Unlock()

	if !ok {
		group = f.loadRobots(ctx, key)
		f.robots.mu.Lock()
		f.robots.groups[key] = group
		f.robots.mu.Unlock()
	}
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (f *Fetcher) loadRobots(ctx context.Context, origin string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Debug().Err(err).Str("origin", origin).Msg("robots.txt unavailable, allowing")
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		f.log.Debug().Err(err).Str("origin", origin).Msg("robots.txt unparsable, allowing")
		return nil
	}
	return data.FindGroup(f.cfg.UserAgent)
}
