package service_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/saavn/cache"
	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/ratelimit"
	"github.com/xeptore/saavn/saavn/endpoint"
	"github.com/xeptore/saavn/saavn/service"
)

type route func(q url.Values) string

// fakeAPI answers requests by __call, suffixed with ":<type>" for webapi.get.
type fakeAPI struct {
	URL string

	mu       sync.Mutex
	requests []url.Values
	routes   map[string]route
}

func newFakeAPI(t *testing.T, routes map[string]route) *fakeAPI {
	t.Helper()

	f := &fakeAPI{URL: "", mu: sync.Mutex{}, requests: nil, routes: routes}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	f.URL = srv.URL

	return f
}

func routeKey(q url.Values) string {
	if t := q.Get("type"); t != "" {
		return q.Get("__call") + ":" + t
	}

	return q.Get("__call")
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	f.requests = append(f.requests, q)
	f.mu.Unlock()

	handle, ok := f.routes[routeKey(q)]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte(handle(q)))
}

func (f *fakeAPI) calls(key string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()

	return lo.Filter(f.requests, func(q url.Values, _ int) bool { return routeKey(q) == key })
}

func newService(t *testing.T, api *fakeAPI, concurrency int, songs *cache.Cache) *service.Service {
	t.Helper()

	conf := config.Saavn{
		BaseURL:     api.URL,
		Context:     "web6dot0",
		UserAgent:   "saavn-test",
		Concurrency: concurrency,
		Timeouts:    config.SaavnTimeouts{API: 5, Download: 5},
		Retries: config.SaavnRetries{
			Max:       lo.ToPtr(0),
			BaseDelay: config.Duration{Duration: time.Millisecond},
		},
		RateLimit: config.RateLimit{RPS: 0, Burst: 1},
		Cache:     config.Cache{Enabled: lo.ToPtr(false), MaxSize: 0, TTL: config.Duration{Duration: 0}},
	}

	client, err := endpoint.NewClient(conf, ratelimit.NewLimiter(conf.RateLimit))
	require.NoError(t, err)

	return service.New(client, songs, concurrency)
}

func enabledCache(t *testing.T) *cache.Cache {
	t.Helper()

	c := cache.New(config.Cache{
		Enabled: lo.ToPtr(true),
		MaxSize: 100,
		TTL:     config.Duration{Duration: time.Minute},
	})
	t.Cleanup(c.Songs.Stop)

	return c
}

func songToken(id string) string {
	return "tok" + id
}

func songJSON(id, slug string) string {
	return fmt.Sprintf(
		`{"id":%q,"song":%q,"album":"Aashiqui 2","year":"2013","primary_artists":"Arijit Singh",`+
			`"perma_url":"https://www.jiosaavn.com/song/%s/%s",`+
			`"media_preview_url":"https://preview.saavncdn.com/430/%s_96_p.mp4",`+
			`"encrypted_media_url":"enc-%s","image":"https://c.saavncdn.com/%s-150x150.jpg","has_lyrics":"true"}`,
		id, slug, slug, songToken(id), id, id, id,
	)
}

// catalog maps song ids to slugs.
type catalog map[string]string

func (c catalog) byToken(q url.Values) string {
	id := strings.TrimPrefix(q.Get("token"), "tok")
	slug, ok := c[id]
	if !ok {
		return "[]"
	}

	return `{"songs":[` + songJSON(id, slug) + `]}`
}

func (c catalog) byID(q url.Values) string {
	id := q.Get("pids")
	slug, ok := c[id]
	if !ok {
		return "[]"
	}

	return fmt.Sprintf(`{%q:%s}`, id, songJSON(id, slug))
}
