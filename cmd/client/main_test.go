package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FloraFacts/internal/auth"
	"github.com/atinyakov/FloraFacts/internal/client/api"
	"github.com/atinyakov/FloraFacts/internal/client/gallery"
	"github.com/atinyakov/FloraFacts/internal/client/storage"
	"github.com/atinyakov/FloraFacts/internal/models"
)

const reply = "```json\n{\"name\":\"Monstera\",\"scientificName\":\"Monstera deliciosa\"," +
	"\"additionalDetails\":{\"nativeTo\":\"Central America\"}}\n```"

// fakeServer serves the identify and gallery endpoints from memory.
type fakeServer struct {
	mu    sync.Mutex
	items []models.GalleryItem
	auth  []string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/identify", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"responseText": reply})
	})
	mux.HandleFunc("GET /api/gallery", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(f.items)
	})
	mux.HandleFunc("POST /api/gallery", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Image     string           `json:"image"`
			PlantInfo models.PlantInfo `json:"plantInfo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, it := range f.items {
			if it.PlantInfo.SameSpecies(req.PlantInfo) {
				_ = json.NewEncoder(w).Encode(map[string]bool{"saved": false})
				return
			}
		}
		item := models.GalleryItem{
			ID:        fmt.Sprintf("item-%d", len(f.items)+1),
			Image:     req.Image,
			PlantInfo: req.PlantInfo,
			Timestamp: time.Now(),
		}
		f.items = append([]models.GalleryItem{item}, f.items...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(item)
	})
	mux.HandleFunc("DELETE /api/account", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})
	return mux
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "leaf.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return path
}

func issue(t *testing.T, user string) string {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", "florafacts")
	require.NoError(t, err)
	tok, err := tokens.Issue(user, user, time.Hour)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestIdentifyAndSave(t *testing.T) {
	fs := &fakeServer{}
	srv := httptest.NewServer(fs.handler())
	defer srv.Close()

	dir := t.TempDir()
	state := filepath.Join(dir, "state.json")
	photo := writePNG(t, dir)
	tok := issue(t, "alice")

	out, err := run(t, "", "--server", srv.URL, "--state", state, "--token", tok,
		"identify", "--file", photo, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Monstera\nMonstera deliciosa")
	assert.Contains(t, out, "🌍 native to: Central America")
	assert.Contains(t, out, "Saved Monstera (item-1)")
	assert.NotContains(t, out, "sun exposure")

	ls, err := storage.Open(state)
	require.NoError(t, err)
	require.NotNil(t, ls.State().LastResult)
	assert.Equal(t, "Monstera", ls.State().LastResult.Info.Name)

	out, err = run(t, "", "--server", srv.URL, "--state", state, "--token", tok, "save")
	require.NoError(t, err)
	assert.Contains(t, out, "already in your gallery")

	out, err = run(t, "", "--server", srv.URL, "--state", state, "--token", tok, "gallery", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "item-1")
	assert.Contains(t, out, "Monstera deliciosa")

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.Len(t, fs.items, 1)
	assert.Contains(t, fs.auth, "Bearer "+tok)
}

func TestAnonymous(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{}).handler())
	defer srv.Close()
	state := filepath.Join(t.TempDir(), "state.json")

	out, err := run(t, "", "--server", srv.URL, "--state", state, "gallery", "list")
	require.NoError(t, err)
	assert.Equal(t, "Sign in to keep a gallery.\n", out)

	out, err = run(t, "", "--server", srv.URL, "--state", state, "save")
	require.NoError(t, err)
	assert.Equal(t, "Sign in to save plants to your gallery.\n", out)
}

func TestLoginLogout(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state.json")

	out, err := run(t, "", "--server", "http://example.test", "--state", state, "login", issue(t, "bob"))
	require.NoError(t, err)
	assert.Equal(t, "Signed in as bob\n", out)

	ls, err := storage.Open(state)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", ls.State().Server)
	assert.NotEmpty(t, ls.State().Token)

	_, err = run(t, "", "--state", state, "logout")
	require.NoError(t, err)
	require.NoError(t, ls.Load())
	assert.Empty(t, ls.State().Token)
	assert.Equal(t, "http://example.test", ls.State().Server)

	_, err = run(t, "", "--state", state, "login", "not-a-jwt")
	require.Error(t, err)
}

func TestAccountDelete(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{}).handler())
	defer srv.Close()
	state := filepath.Join(t.TempDir(), "state.json")
	tok := issue(t, "carol")

	t.Run("declined", func(t *testing.T) {
		out, err := run(t, "n\n", "--server", srv.URL, "--state", state, "--token", tok, "account", "delete")
		require.NoError(t, err)
		assert.Contains(t, out, "[y/N]")
	})

	t.Run("unauthorized", func(t *testing.T) {
		_, err := run(t, "", "--server", srv.URL, "--state", state, "--token", tok, "account", "delete", "--yes")
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrUnauthorized)
		assert.Equal(t, "Your session has expired. Please sign in again.", errorText(err))
	})
}

func TestIdentifyRequiresSource(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.json")
	_, err := run(t, "", "--state", state, "identify")
	require.Error(t, err)
	assert.Equal(t, "one of --file or --camera is required", errorText(err))
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "boom", errorText(errors.New("boom")))
	assert.Equal(t, "Something went wrong. Please try again.", errorText(fail(errors.New("boom"))))
	assert.Nil(t, fail(nil))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "FloraFacts Client\nVersion: N/A\nBuild Date: N/A\n", out)
}

func TestRenderGallery(t *testing.T) {
	var b bytes.Buffer
	renderGallery(&b, nil)
	assert.Equal(t, "Your gallery is empty.\n", b.String())

	b.Reset()
	renderGallery(&b, []gallery.Item{{
		GalleryItem: models.GalleryItem{ID: "tmp", PlantInfo: models.PlantInfo{Name: "Fern", ScientificName: "Nephrolepis"}},
		Pending:     true,
	}})
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "NAME", "SCIENTIFIC", "NAME", "SAVED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"tmp", "Fern", "Nephrolepis", "pending"}, strings.Fields(lines[1]))
}
