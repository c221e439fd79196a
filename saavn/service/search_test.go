package service_test

import (
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/saavn/saavn/service"
)

func TestSearchParams(t *testing.T) {
	t.Parallel()

	echo := func(_ url.Values) string { return `{"total":1,"results":[{"id":"1"}]}` }
	api := newFakeAPI(t, map[string]route{
		"search.getResults":       echo,
		"search.getAlbumResults":  echo,
		"search.getArtistResults": echo,
		"autocomplete.get":        echo,
	})
	svc := newService(t, api, 1, nil)

	out, err := svc.SearchSongs(t.Context(), zerolog.Nop(), "  tum hi ho ", 0, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":1,"results":[{"id":"1"}]}`, string(out))

	calls := api.calls("search.getResults")
	require.Len(t, calls, 1)
	assert.Equal(t, "tum hi ho", calls[0].Get("q"))
	assert.Equal(t, "1", calls[0].Get("page"))
	assert.Equal(t, "20", calls[0].Get("limit"))
	assert.Equal(t, "4", calls[0].Get("api_version"))

	_, err = svc.SearchAlbums(t.Context(), zerolog.Nop(), "aashiqui", 3, 5)
	require.NoError(t, err)
	calls = api.calls("search.getAlbumResults")
	require.Len(t, calls, 1)
	assert.Equal(t, "3", calls[0].Get("page"))
	assert.Equal(t, "5", calls[0].Get("limit"))

	_, err = svc.SearchArtists(t.Context(), zerolog.Nop(), "arijit", 1, 10)
	require.NoError(t, err)
	assert.Len(t, api.calls("search.getArtistResults"), 1)

	_, err = svc.SearchAll(t.Context(), zerolog.Nop(), "arijit")
	require.NoError(t, err)
	calls = api.calls("autocomplete.get")
	require.Len(t, calls, 1)
	assert.Equal(t, "arijit", calls[0].Get("query"))
}

func TestSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, nil)
	svc := newService(t, api, 1, nil)

	_, err := svc.SearchSongs(t.Context(), zerolog.Nop(), "   ", 1, 1)
	require.ErrorIs(t, err, service.ErrInvalidArgument)

	_, err = svc.SearchAll(t.Context(), zerolog.Nop(), "")
	require.ErrorIs(t, err, service.ErrInvalidArgument)

	assert.Empty(t, api.requests)
}

func TestPassthroughStripsModules(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, map[string]route{
		"content.getTrending":  func(_ url.Values) string { return `[{"id":"1","modules":{"a":1}},{"id":"2"}]` },
		"content.getCharts":    func(_ url.Values) string { return `[{"id":"c1"}]` },
		"webapi.getLaunchData": func(_ url.Values) string { return `{"new_albums":[1],"modules":{"new_albums":{}}}` },
		"content.getAlbums":    func(_ url.Values) string { return `{"data":[],"modules":null}` },
	})
	svc := newService(t, api, 1, nil)

	trending, err := svc.Trending(t.Context(), zerolog.Nop())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"},{"id":"2"}]`, string(trending))

	charts, err := svc.Charts(t.Context(), zerolog.Nop())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1"}]`, string(charts))

	home, err := svc.Home(t.Context(), zerolog.Nop())
	require.NoError(t, err)
	assert.JSONEq(t, `{"new_albums":[1]}`, string(home))

	albums, err := svc.Albums(t.Context(), zerolog.Nop(), 2, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(albums))

	calls := api.calls("content.getAlbums")
	require.Len(t, calls, 1)
	assert.Equal(t, "2", calls[0].Get("p"))
	assert.Equal(t, "20", calls[0].Get("n"))
}
