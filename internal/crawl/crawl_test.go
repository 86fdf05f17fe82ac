package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
	"github.com/twgovdata/laborfaq/internal/fetch"
)

// fakeSite serves plain-text lists: one question per line, detail pages
// keyed by question.
type fakeSite struct {
	base   string
	source faq.Source
}

func (f *fakeSite) Source() faq.Source { return f.source }

func (f *fakeSite) ListURL(page int) string {
	return f.base + "/list/" + strconv.Itoa(page)
}

func (f *fakeSite) ParseList(body []byte) ([]*faq.Record, error) {
	var items []*faq.Record
	for _, line := range bytes.Split(body, []byte("\n")) {
		name := strings.TrimSpace(string(line))
		if name == "" {
			continue
		}
		items = append(items, &faq.Record{
			Source:    f.source,
			Question:  name,
			DetailURL: f.base + "/detail/" + name,
			Metadata:  faq.Metadata{UpdatedDate: "2024-01-15"},
		})
	}
	return items, nil
}

func (f *fakeSite) ParseDetail(body []byte, partial *faq.Record) *faq.Record {
	rec := *partial
	rec.Answer = faq.Answer{Text: string(body)}
	return &rec
}

type fakeMultiSite struct {
	fakeSite
	endpoints []faq.Endpoint
}

func (f *fakeMultiSite) Discover(context.Context) ([]faq.Endpoint, error) {
	return f.endpoints, nil
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	client := fetch.New(fetch.Config{
		MaxRetries: 1,
		Timeout:    5 * time.Second,
		Interval:   time.Millisecond,
	}, zap.NewNop())
	return NewRunner(client, zap.NewNop())
}

func newListServer(t *testing.T, pages map[string]string, failDetails map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/list/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[strings.TrimPrefix(r.URL.Path, "/list/")])
	})
	mux.HandleFunc("/detail/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/detail/")
		if failDetails[name] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "answer for "+name)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunPaginated(t *testing.T) {
	t.Run("stops on empty page", func(t *testing.T) {
		srv := newListServer(t, map[string]string{"1": "a\nb", "2": "c", "3": ""}, nil)
		site := &fakeSite{base: srv.URL, source: faq.SourceMOL}

		batch, err := newTestRunner(t).RunPaginated(context.Background(), site, 1, 0)
		require.NoError(t, err)
		require.Len(t, batch, 3)

		require.Equal(t, "a", batch[0].Question)
		require.Equal(t, "answer for a", batch[0].Answer.Text)
		require.Equal(t, 1, batch[0].Page)
		require.Equal(t, 2, batch[2].Page)

		ids := map[string]bool{}
		for _, rec := range batch {
			require.NotEmpty(t, rec.ID)
			require.False(t, ids[rec.ID])
			ids[rec.ID] = true
		}
		require.Equal(t, "mol_faq_20240115_0001", batch[0].ID)
		require.Equal(t, "mol_faq_20240115_0003", batch[2].ID)
	})

	t.Run("detail failure drops only that item", func(t *testing.T) {
		srv := newListServer(t, map[string]string{"1": "a\nb\nc", "2": ""}, map[string]bool{"b": true})
		site := &fakeSite{base: srv.URL, source: faq.SourceMOL}

		batch, err := newTestRunner(t).RunPaginated(context.Background(), site, 1, 0)
		require.NoError(t, err)
		require.Len(t, batch, 2)
		require.Equal(t, "a", batch[0].Question)
		require.Equal(t, "c", batch[1].Question)
	})

	t.Run("respects max pages", func(t *testing.T) {
		srv := newListServer(t, map[string]string{"1": "a", "2": "b", "3": "c"}, nil)
		site := &fakeSite{base: srv.URL, source: faq.SourceMOL}

		batch, err := newTestRunner(t).RunPaginated(context.Background(), site, 1, 2)
		require.NoError(t, err)
		require.Len(t, batch, 2)
	})

	t.Run("canceled context returns error", func(t *testing.T) {
		srv := newListServer(t, map[string]string{"1": "a"}, nil)
		site := &fakeSite{base: srv.URL, source: faq.SourceMOL}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestRunner(t).RunPaginated(ctx, site, 1, 0)
		require.Error(t, err)
	})
}

func TestRunTree(t *testing.T) {
	srv := newListServer(t, map[string]string{"1": "x\ny"}, nil)
	site := &fakeSite{base: srv.URL, source: faq.SourceBLI}

	batch, err := newTestRunner(t).RunTree(context.Background(), site)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	require.Equal(t, "answer for y", batch[1].Answer.Text)
	require.Equal(t, "bli_faq_20240115_0002", batch[1].ID)
}

func TestRunMultiLevel(t *testing.T) {
	srv := newListServer(t, map[string]string{"1": "q1\nq2"}, nil)
	site := &fakeMultiSite{
		fakeSite: fakeSite{base: srv.URL, source: faq.SourceOSHA},
		endpoints: []faq.Endpoint{
			{Name: "一般問答", URL: srv.URL + "/list/1", Type: faq.EndpointList},
			{Name: "職業衛生 > 單篇問題", URL: srv.URL + "/detail/z", Type: faq.EndpointArticle},
		},
	}

	batch, err := newTestRunner(t).RunMultiLevel(context.Background(), site)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	require.Equal(t, "一般問答", batch[0].Category)
	require.Equal(t, "一般問答", batch[1].Category)

	article := batch[2]
	require.Equal(t, "單篇問題", article.Question, "question from last path segment")
	require.Equal(t, "職業衛生 > 單篇問題", article.Category)
	require.Equal(t, "answer for z", article.Answer.Text)

	for _, rec := range batch {
		require.NotEmpty(t, rec.ID)
	}
}

func TestRunMultiLevelNoEndpoints(t *testing.T) {
	site := &fakeMultiSite{fakeSite: fakeSite{source: faq.SourceOSHA}}
	batch, err := newTestRunner(t).RunMultiLevel(context.Background(), site)
	require.NoError(t, err)
	require.Empty(t, batch)
}
