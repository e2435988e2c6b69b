package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/stilbar/bulk"
	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/resolver"
	"github.com/poiesic/stilbar/storage/csvstore"
)

const (
	monomerStructure   = "OC1=CC(O)=CC(CCC2=CC=C(O)C=C2)=C1"
	viniferinStructure = "OC(C=C1)=CC=C1C(O2)C(C3=CC(O)=CC(O)=C3)C4=C2C=C(O)C=C4"
)

func newTestServer(t *testing.T) (*Server, *csvstore.Store) {
	t.Helper()
	store, err := csvstore.Open(filepath.Join(t.TempDir(), "compounds.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, seed := range []struct{ name, code, structure string }{
		{"resveratrol monomer", "H", monomerStructure},
		{"trans-δ-viniferin", "T–04r.15r–H", viniferinStructure},
	} {
		_, err := store.Add(ctx, &core.Compound{
			Name:      seed.name,
			Code:      seed.code,
			Structure: seed.structure,
		})
		require.NoError(t, err)
	}

	res, err := resolver.NewResolver(store)
	require.NoError(t, err)

	runner, err := bulk.NewRunner(res)
	require.NoError(t, err)
	t.Cleanup(runner.Release)

	srv, err := New(store, res, runner)
	require.NoError(t, err)
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestHandleLookup(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("found via normalization", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/api/lookup?code=T-04r.15r-H", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp LookupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Found)
		assert.Equal(t, viniferinStructure, resp.Structure)
		assert.Equal(t, "normalized", resp.Metadata.Strategy)
	})

	t.Run("not found carries diagnosis", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/api/lookup?code=Z-99-Z", "")
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp LookupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Found)
		assert.Equal(t, "Z–99–Z", resp.Metadata.Normalized)
	})

	t.Run("missing code", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/api/lookup", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleListCompounds(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/compounds", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListCompoundsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Compounds, 2)
	assert.Equal(t, "resveratrol monomer", resp.Compounds[0].Name)
	assert.True(t, resp.Compounds[0].ValidStructure)
}

func TestHandleAddCompound(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/compounds",
			`{"name":"pallidol","code":"H≡4r7.5r5r.74r≡H","structure":"`+monomerStructure+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp AddCompoundResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Identity, 8)
	})

	t.Run("duplicate", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/compounds",
			`{"name":"resveratrol monomer","code":"H","structure":"`+monomerStructure+`"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing structure", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/compounds",
			`{"name":"nameless","code":"Q"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleDeleteCompounds(t *testing.T) {
	srv, _ := newTestServer(t)

	id := core.IdentityFromContent("H", "resveratrol monomer")

	t.Run("partial deletion", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodDelete, "/api/compounds",
			`{"identities":["`+string(id)+`","deadbeef"]}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp DeleteCompoundsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 1, resp.DeletedCount)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "deadbeef")
	})

	t.Run("nothing resolves", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodDelete, "/api/compounds",
			`{"identities":["deadbeef"]}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed identity rejected", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodDelete, "/api/compounds",
			`{"identities":["not-hex!"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty set rejected", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodDelete, "/api/compounds",
			`{"identities":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleBatch(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/batch",
		`{"codes":["H","Z-99-Z","1"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, "H", resp.Rows[0].Input)
	assert.True(t, resp.Rows[0].Found)
	assert.False(t, resp.Rows[1].Found)
	assert.True(t, resp.Rows[2].Found)
	assert.Equal(t, "index", resp.Rows[2].Strategy)

	t.Run("blank code rejected", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/batch",
			`{"codes":["H","  "]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Compounds)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// A lookup populates the counters before scraping.
	doRequest(t, srv, http.MethodGet, "/api/lookup?code=H", "")

	w := doRequest(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stilbar_lookups_total")
}

func TestConverterPage(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("blank form", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "StilBAR Converter")
	})

	t.Run("with lookup", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/?code=H", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), monomerStructure)
	})
}

func TestCompoundsPage(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/compounds", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "resveratrol monomer")
}
