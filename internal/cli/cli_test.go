package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/debemdeboas/archive-console/internal/client"
	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/mutation"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// fakeBlog is an in-memory posts API.
type fakeBlog struct {
	mu       sync.Mutex
	posts    []model.Post
	public   []model.Post
	calls    []string
	updates  []model.PostUpdate
	failWith int
	created  int
}

func newFakeBlog() *fakeBlog {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := &fakeBlog{
		posts: []model.Post{
			{ID: "6", Title: "Newest", Slug: "newest", Status: model.StatusPublished, CreatedAt: created.Add(48 * time.Hour)},
			{ID: "5", Title: "Draft post", Slug: "draft-post", Status: model.StatusDraft, CreatedAt: created.Add(24 * time.Hour), Raw: "<p>draft</p>"},
			{ID: "4", Title: "Trashed", Slug: "trashed", Status: model.StatusDraft, IsDeleted: true, CreatedAt: created},
		},
	}
	for i := 0; i < 27; i++ {
		b.public = append(b.public, model.Post{ID: model.PostID(fmt.Sprint(100 + i)), Title: fmt.Sprintf("Public post %d", i), CreatedAt: created})
	}
	return b
}

func (b *fakeBlog) record(r *http.Request) {
	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
}

func (b *fakeBlog) find(id string) int {
	for i := range b.posts {
		if string(b.posts[i].ID) == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *fakeBlog) handler() http.Handler {
	mux := http.NewServeMux()

	guard := func(next func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.record(r)
			if b.failWith != 0 && r.Method != http.MethodGet {
				writeJSON(w, b.failWith, map[string]string{"detail": "boom"})
				return
			}
			next(w, r)
		}
	}
	post := func(w http.ResponseWriter, r *http.Request) (int, bool) {
		i := b.find(r.PathValue("id"))
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Post not found"})
			return 0, false
		}
		return i, true
	}

	mux.HandleFunc("GET /api/posts", guard(func(w http.ResponseWriter, r *http.Request) {
		out := []model.Post{}
		for _, p := range b.posts {
			if !p.IsDeleted || r.URL.Query().Get("show_deleted") == "1" {
				out = append(out, p)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}))
	mux.HandleFunc("POST /api/posts", guard(func(w http.ResponseWriter, r *http.Request) {
		id := fmt.Sprintf("abc%d", 123+b.created)
		b.created++
		b.posts = append([]model.Post{{ID: model.PostID(id), Status: model.StatusDraft}}, b.posts...)
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}))
	mux.HandleFunc("GET /api/posts/{id}", guard(func(w http.ResponseWriter, r *http.Request) {
		if i, ok := post(w, r); ok {
			writeJSON(w, http.StatusOK, b.posts[i])
		}
	}))
	mux.HandleFunc("PATCH /api/posts/{id}", guard(func(w http.ResponseWriter, r *http.Request) {
		i, ok := post(w, r)
		if !ok {
			return
		}
		var upd model.PostUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
			return
		}
		b.updates = append(b.updates, upd)
		p := &b.posts[i]
		p.Title, p.Slug, p.Tags, p.Summary, p.Raw, p.Body, p.Status = upd.Title, upd.Slug, upd.Tags, upd.Summary, upd.Raw, upd.Body, upd.Status
		writeJSON(w, http.StatusOK, *p)
	}))
	mux.HandleFunc("PATCH /api/posts/{id}/status", guard(func(w http.ResponseWriter, r *http.Request) {
		if i, ok := post(w, r); ok {
			b.posts[i].Status = model.Status(r.URL.Query().Get("status"))
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	mux.HandleFunc("PATCH /api/posts/{id}/delete", guard(func(w http.ResponseWriter, r *http.Request) {
		if i, ok := post(w, r); ok {
			b.posts[i].IsDeleted = true
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	mux.HandleFunc("PATCH /api/posts/{id}/restore", guard(func(w http.ResponseWriter, r *http.Request) {
		if i, ok := post(w, r); ok {
			b.posts[i].IsDeleted = false
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	mux.HandleFunc("DELETE /api/posts/{id}/delete", guard(func(w http.ResponseWriter, r *http.Request) {
		if i, ok := post(w, r); ok {
			b.posts = append(b.posts[:i], b.posts[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	mux.HandleFunc("POST /api/assets/html", guard(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"asset_id": "page-1", "public_link": "https://cdn.example.com/page-1"})
	}))
	mux.HandleFunc("GET /api/assets/{id}", guard(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, config.CTypeHTML)
		fmt.Fprintf(w, "<html><body>asset %s</body></html>", r.PathValue("id"))
	}))
	mux.HandleFunc("GET /api/public/posts", guard(func(w http.ResponseWriter, r *http.Request) {
		var limit, skip int
		fmt.Sscan(r.URL.Query().Get("limit"), &limit)
		fmt.Sscan(r.URL.Query().Get("skip"), &skip)
		end := min(skip+limit, len(b.public))
		if skip > end {
			skip = end
		}
		writeJSON(w, http.StatusOK, b.public[skip:end])
	}))
	mux.HandleFunc("POST /api/request-admin", guard(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	return mux
}

func (b *fakeBlog) called(call string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == call {
			return true
		}
	}
	return false
}

type harness struct {
	t       *testing.T
	blog    *fakeBlog
	server  *httptest.Server
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	blog := newFakeBlog()
	server := httptest.NewServer(blog.handler())
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf(`api:
  base_url: %s
  admin_page_size: 20
  public_page_size: 10
cache:
  stale_time: 30s
  post_stale_time: 5m
  snapshot_db: %s
logging:
  level: error
`, server.URL, filepath.Join(dir, "cache.db"))
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv(config.EnvToken, "test-token")
	return &harness{t: t, blog: blog, server: server, cfgPath: cfgPath}
}

func (h *harness) run(input string, args ...string) (string, error) {
	h.t.Helper()
	root, opts := newRootCmd()
	defer opts.close()

	var out bytes.Buffer
	root.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(input))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--config", "/does/not/exist.yaml"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.String() != "archivectl 1.2.3\n" {
		t.Errorf("Unexpected output: %q", out.String())
	}
}

func TestPostsList(t *testing.T) {
	h := newHarness(t)

	t.Run("hides deleted posts", func(t *testing.T) {
		out, err := h.run("", "posts", "list")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !strings.Contains(out, "Newest") || !strings.Contains(out, "Draft post") {
			t.Errorf("Expected both live posts, got:\n%s", out)
		}
		if strings.Contains(out, "Trashed") {
			t.Errorf("Expected the deleted post to be hidden, got:\n%s", out)
		}
		if strings.Index(out, "Newest") > strings.Index(out, "Older posts") {
			t.Errorf("Expected the newest post first, got:\n%s", out)
		}
	})

	t.Run("with deleted posts", func(t *testing.T) {
		out, err := h.run("", "posts", "list", "--deleted")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !strings.Contains(out, "Trashed") || !strings.Contains(out, "1 deleted") {
			t.Errorf("Expected the deleted post and count, got:\n%s", out)
		}
	})

	t.Run("serves the snapshot when offline", func(t *testing.T) {
		h.server.Close()
		out, err := h.run("", "posts", "list")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !strings.Contains(out, "offline") || !strings.Contains(out, "Newest") {
			t.Errorf("Expected the saved list, got:\n%s", out)
		}
	})
}

func TestMutationCommands(t *testing.T) {
	t.Run("toggle publishes a draft", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run("", "posts", "toggle", "5")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !h.blog.called("PATCH /api/posts/5/status") {
			t.Error("Expected the status request")
		}
		if h.blog.posts[h.blog.find("5")].Status != model.StatusPublished {
			t.Error("Expected the server copy to be published")
		}
		if !strings.Contains(out, "published") {
			t.Errorf("Expected the new state in the output, got:\n%s", out)
		}
	})

	t.Run("toggle failure surfaces the server message", func(t *testing.T) {
		h := newHarness(t)
		h.blog.failWith = http.StatusInternalServerError
		_, err := h.run("", "posts", "toggle", "5")
		if err == nil || !strings.Contains(err.Error(), "HTTP 500: boom") {
			t.Fatalf("Expected the server error, got %v", err)
		}
		if client.StatusCode(err) != http.StatusInternalServerError {
			t.Errorf("Expected a wrapped client error, got %v", err)
		}
	})

	t.Run("unknown post", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run("", "posts", "delete", "99")
		if !errors.Is(err, mutation.ErrPostNotCached) {
			t.Fatalf("Expected ErrPostNotCached, got %v", err)
		}
	})

	t.Run("delete and restore", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.run("", "posts", "delete", "6"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !h.blog.posts[h.blog.find("6")].IsDeleted {
			t.Error("Expected the post to be soft deleted")
		}
		if _, err := h.run("", "posts", "restore", "6"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if h.blog.posts[h.blog.find("6")].IsDeleted {
			t.Error("Expected the post to be restored")
		}
	})

	t.Run("new", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run("", "posts", "new")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !strings.Contains(out, "created post abc123") {
			t.Errorf("Unexpected output:\n%s", out)
		}
		if !strings.Contains(out, "archivectl posts edit abc123 --title TITLE --content FILE") {
			t.Errorf("Expected the edit command for the new post:\n%s", out)
		}
	})

	t.Run("new quiet", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run("", "posts", "new", "-q")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out != "abc123\n" {
			t.Errorf("Expected only the id, got %q", out)
		}
	})
}

func TestPurge(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run("n\n", "posts", "purge", "4")
		if !errors.Is(err, mutation.ErrNotConfirmed) {
			t.Fatalf("Expected ErrNotConfirmed, got %v", err)
		}
		if !strings.Contains(out, `"Trashed" (4)`) {
			t.Errorf("Expected the prompt to name the post, got:\n%s", out)
		}
		if h.blog.called("DELETE /api/posts/4/delete") {
			t.Error("Expected no delete request")
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.run("yes\n", "posts", "purge", "4"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if h.blog.find("4") >= 0 {
			t.Error("Expected the post to be gone")
		}
	})

	t.Run("--yes skips the prompt", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run("", "posts", "purge", "4", "--yes")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if strings.Contains(out, "cannot be undone") {
			t.Error("Expected no prompt")
		}
		if !h.blog.called("DELETE /api/posts/4/delete") {
			t.Error("Expected the delete request")
		}
	})
}

func TestShow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "posts", "show", "5")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "draft-post") || !strings.Contains(out, "12 bytes") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	raw, err := h.run("", "posts", "show", "5", "--raw")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(raw, "draft") {
		t.Errorf("Expected the raw content, got:\n%s", raw)
	}

	if _, err := h.run("", "posts", "show", "404"); !client.IsNotFound(err) {
		t.Errorf("Expected a not found error, got %v", err)
	}
}

func TestEditAndPublish(t *testing.T) {
	h := newHarness(t)

	content := filepath.Join(t.TempDir(), "post.md")
	if err := os.WriteFile(content, []byte("%%%\ntags = [\"go\"]\n%%%\n\n# Hello\n\nSome text.\n"), 0644); err != nil {
		t.Fatalf("Failed to write content: %v", err)
	}

	out, err := h.run("", "posts", "edit", "5", "--title", "Brand New Title", "--content", content)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "saved draft") {
		t.Errorf("Unexpected output:\n%s", out)
	}
	upd := h.blog.updates[len(h.blog.updates)-1]
	if upd.Title != "Brand New Title" || upd.Slug != "draft-post" {
		t.Errorf("Expected the new title and the stored slug, got %+v", upd)
	}
	if len(upd.Tags) != 1 || upd.Tags[0] != "go" || !strings.Contains(upd.Raw, "Some text.") {
		t.Errorf("Expected the markdown to be rendered, got %+v", upd)
	}

	out, err = h.run("", "posts", "publish", "5", "--slug", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !h.blog.called("POST /api/assets/html") {
		t.Error("Expected the page upload")
	}
	if !strings.Contains(out, "https://cdn.example.com/page-1") || !strings.Contains(out, "brand-new-title") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestImport(t *testing.T) {
	h := newHarness(t)

	dir := t.TempDir()
	files := map[string]string{
		"alpha.md":       "%%%\ntitle = \"Alpha\"\n%%%\n\nfirst\n",
		"second-post.md": "second\n",
		"notes.txt":      "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	out, err := h.run("", "posts", "import", dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "2 imported, 0 failed") {
		t.Errorf("Unexpected output:\n%s", out)
	}
	if len(h.blog.updates) != 2 {
		t.Fatalf("Expected 2 saves, got %d", len(h.blog.updates))
	}
	titles := h.blog.updates[0].Title + "|" + h.blog.updates[1].Title
	if titles != "Alpha|second-post" {
		t.Errorf("Unexpected titles: %s", titles)
	}
	if h.blog.called("POST /api/assets/html") {
		t.Error("Expected no page export without --publish")
	}
}

func TestPublicList(t *testing.T) {
	h := newHarness(t)

	t.Run("limit", func(t *testing.T) {
		out, err := h.run("", "public", "list", "--limit", "12")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if n := strings.Count(out, "Public post"); n != 12 {
			t.Errorf("Expected 12 posts, got %d", n)
		}
	})

	t.Run("load more", func(t *testing.T) {
		out, err := h.run("y\nn\n", "public", "list")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if n := strings.Count(out, "Public post"); n != 20 {
			t.Errorf("Expected 20 posts, got %d", n)
		}
	})

	t.Run("until the end", func(t *testing.T) {
		out, err := h.run("\n\n\n", "public", "list")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if n := strings.Count(out, "Public post"); n != 27 {
			t.Errorf("Expected 27 posts, got %d", n)
		}
		if n := strings.Count(out, "Load more?"); n != 2 {
			t.Errorf("Expected 2 prompts, got %d", n)
		}
	})
}

func TestPublicRead(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "public", "read", "page-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, `<base href="`+h.server.URL+`/api/assets/page-1">`) || !strings.Contains(out, "asset page-1") {
		t.Errorf("Unexpected page:\n%s", out)
	}

	file := filepath.Join(t.TempDir(), "page.html")
	if _, err := h.run("", "public", "read", "page-1", "--out", file); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil || !strings.Contains(string(data), "asset page-1") {
		t.Errorf("Expected the page on disk, got %q (%v)", data, err)
	}
}

func TestRequestAdmin(t *testing.T) {
	h := newHarness(t)

	if _, err := h.run("", "request-admin", "--name", "Ada"); !errors.Is(err, client.ErrNameEmailRequired) {
		t.Errorf("Expected ErrNameEmailRequired, got %v", err)
	}

	out, err := h.run("", "request-admin", "--name", "Ada", "--email", "ada@example.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "request sent") || !h.blog.called("POST /api/request-admin") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestWhoAmIWithoutGate(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "whoami")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "not verified") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	t.Setenv(config.EnvToken, "")
	if _, err := h.run("", "whoami"); err == nil {
		t.Error("Expected an error without a token")
	}
}
