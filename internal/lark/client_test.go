package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/wikibinder/internal/model"
)

// fakeServer serves the token endpoint and delegates everything else.
type fakeServer struct {
	tokenCalls atomic.Int32
	handler    http.HandlerFunc
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/open-apis/auth/v3/tenant_access_token/internal" {
		f.tokenCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["app_id"] != "cli_test" || body["app_secret"] != "secret" {
			writeJSON(w, map[string]any{"code": codeInvalidAppCredential, "msg": "invalid app credential"})
			return
		}
		writeJSON(w, map[string]any{"code": 0, "msg": "ok", "tenant_access_token": "t-token", "expire": 7200})
		return
	}
	if r.Header.Get("Authorization") != "Bearer t-token" {
		writeJSON(w, map[string]any{"code": codeInvalidAccessToken, "msg": "invalid access token"})
		return
	}
	f.handler(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeServer) {
	t.Helper()

	fs := &fakeServer{handler: handler}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	c, err := NewClient("cli_test", "secret",
		WithBaseURL(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
		WithRateLimit(0, 0),
		WithPageSize(2),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c, fs
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("", "secret"); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("NewClient() error = %v, want ErrMissingCredentials", err)
	}
	if _, err := NewClient("id", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("NewClient() error = %v, want ErrMissingCredentials", err)
	}

	c, err := NewClient("id", "secret", WithBaseURL("https://open.larksuite.com/"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.baseURL != "https://open.larksuite.com" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.pageSize != DefaultPageSize {
		t.Errorf("pageSize = %d, want %d", c.pageSize, DefaultPageSize)
	}
}

func TestListChildren(t *testing.T) {
	t.Parallel()

	t.Run("sends query and decodes page", func(t *testing.T) {
		t.Parallel()

		c, fs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/open-apis/wiki/v2/spaces/space1/nodes" {
				t.Errorf("path = %q", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("page_size") != "2" || q.Get("parent_node_token") != "wikparent" || q.Get("page_token") != "next" {
				t.Errorf("unexpected query %v", q)
			}
			writeJSON(w, map[string]any{
				"code": 0,
				"msg":  "success",
				"data": map[string]any{
					"items": []map[string]any{
						{"node_token": "wik1", "obj_token": "doc1", "obj_type": "docx", "title": "A", "has_child": true},
						{"node_token": "wik2", "obj_token": "doc2", "obj_type": "sheet", "title": "B"},
					},
					"page_token": "more",
					"has_more":   true,
				},
			})
		})

		page, err := c.ListChildren(context.Background(), "space1", "wikparent", "next")
		if err != nil {
			t.Fatalf("ListChildren() error = %v", err)
		}

		want := &NodePage{
			Items: []Node{
				{NodeToken: "wik1", ObjToken: "doc1", ObjType: "docx", Title: "A", HasChild: true},
				{NodeToken: "wik2", ObjToken: "doc2", ObjType: "sheet", Title: "B"},
			},
			PageToken: "more",
			HasMore:   true,
		}
		if diff := cmp.Diff(want, page); diff != "" {
			t.Errorf("ListChildren() mismatch (-want +got):\n%s", diff)
		}

		if _, err := c.ListChildren(context.Background(), "space1", "wikparent", "next"); err != nil {
			t.Fatalf("second ListChildren() error = %v", err)
		}
		if got := fs.tokenCalls.Load(); got != 1 {
			t.Errorf("token fetched %d times, want 1", got)
		}
	})

	t.Run("top level omits parent and page token", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Has("parent_node_token") || q.Has("page_token") {
				t.Errorf("unexpected query %v", q)
			}
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"items": []any{}}})
		})

		page, err := c.ListChildren(context.Background(), "space1", "", "")
		if err != nil {
			t.Fatalf("ListChildren() error = %v", err)
		}
		if len(page.Items) != 0 || page.HasMore {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("rate limit code", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"code": model.RateLimitCode, "msg": "request trigger frequency limit"})
		})

		_, err := c.ListChildren(context.Background(), "space1", "", "")
		var rl *model.RateLimitError
		if !errors.As(err, &rl) {
			t.Fatalf("error = %v, want RateLimitError", err)
		}
	})

	t.Run("http 429", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		})

		_, err := c.ListChildren(context.Background(), "space1", "", "")
		var rl *model.RateLimitError
		if !errors.As(err, &rl) {
			t.Fatalf("error = %v, want RateLimitError", err)
		}
	})

	t.Run("server error is a transport error", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})

		_, err := c.ListChildren(context.Background(), "space1", "", "")
		var te *model.TransportError
		if !errors.As(err, &te) {
			t.Fatalf("error = %v, want TransportError", err)
		}
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"code": 131006, "msg": "permission denied"})
		})

		_, err := c.ListChildren(context.Background(), "space1", "", "")
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want APIError", err)
		}
		if apiErr.Code != 131006 {
			t.Errorf("code = %d, want 131006", apiErr.Code)
		}
		if model.IsPermanent(err) {
			t.Error("permission errors should stay retryable")
		}
	})
}

func TestTenantToken(t *testing.T) {
	t.Parallel()

	t.Run("invalid credentials are permanent", func(t *testing.T) {
		t.Parallel()

		fs := &fakeServer{handler: func(http.ResponseWriter, *http.Request) {}}
		srv := httptest.NewServer(fs)
		t.Cleanup(srv.Close)

		c, err := NewClient("cli_test", "wrong", WithBaseURL(srv.URL), WithRateLimit(0, 0))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		_, err = c.ListChildren(context.Background(), "space1", "", "")
		if !model.IsPermanent(err) {
			t.Fatalf("error = %v, want permanent", err)
		}
	})

	t.Run("token error invalidates the cache", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c, fs := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				writeJSON(w, map[string]any{"code": codeExpiredAccessToken, "msg": "token expired"})
				return
			}
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"items": []any{}}})
		})

		if _, err := c.ListChildren(context.Background(), "space1", "", ""); err == nil {
			t.Fatal("expected error on expired token")
		}
		if _, err := c.ListChildren(context.Background(), "space1", "", ""); err != nil {
			t.Fatalf("ListChildren() error = %v", err)
		}
		if got := fs.tokenCalls.Load(); got != 2 {
			t.Errorf("token fetched %d times, want 2", got)
		}
	})

	t.Run("expired cache is refreshed", func(t *testing.T) {
		t.Parallel()

		c, fs := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"items": []any{}}})
		})

		now := time.Now()
		c.now = func() time.Time { return now }

		if _, err := c.ListChildren(context.Background(), "space1", "", ""); err != nil {
			t.Fatalf("ListChildren() error = %v", err)
		}
		now = now.Add(2 * time.Hour)
		if _, err := c.ListChildren(context.Background(), "space1", "", ""); err != nil {
			t.Fatalf("ListChildren() error = %v", err)
		}
		if got := fs.tokenCalls.Load(); got != 2 {
			t.Errorf("token fetched %d times, want 2", got)
		}
	})
}

func TestExportTasks(t *testing.T) {
	t.Parallel()

	t.Run("submit", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/open-apis/drive/v1/export_tasks" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body createExportRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			want := createExportRequest{FileExtension: "pdf", Token: "doc1", Type: "docx"}
			if body != want {
				t.Errorf("body = %+v, want %+v", body, want)
			}
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"ticket": "ticket1"}})
		})

		ticket, err := c.SubmitExport(context.Background(), "doc1", model.ObjectTypeDocx)
		if err != nil {
			t.Fatalf("SubmitExport() error = %v", err)
		}
		if ticket != "ticket1" {
			t.Errorf("ticket = %q, want ticket1", ticket)
		}
	})

	t.Run("submit without ticket", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{}})
		})

		_, err := c.SubmitExport(context.Background(), "doc1", model.ObjectTypeDocx)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want APIError", err)
		}
	})

	t.Run("poll", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/open-apis/drive/v1/export_tasks/ticket1" || r.URL.Query().Get("token") != "doc1" {
				t.Errorf("unexpected request %s", r.URL)
			}
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"result": map[string]any{
				"file_extension": "pdf",
				"type":           "docx",
				"file_name":      "A",
				"file_token":     "box1",
				"file_size":      1024,
				"job_status":     0,
			}}})
		})

		res, err := c.PollExport(context.Background(), "ticket1", "doc1")
		if err != nil {
			t.Fatalf("PollExport() error = %v", err)
		}
		want := model.JobResult{State: model.JobSucceeded, FileToken: "box1"}
		if got := res.JobResult(); got != want {
			t.Errorf("JobResult() = %+v, want %+v", got, want)
		}
		if res.FileSize != 1024 {
			t.Errorf("FileSize = %d, want 1024", res.FileSize)
		}
	})

	t.Run("poll without job status", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			data map[string]any
		}{
			{name: "no result object", data: map[string]any{}},
			{name: "result without job_status", data: map[string]any{"result": map[string]any{"file_token": ""}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
					writeJSON(w, map[string]any{"code": 0, "data": tt.data})
				})

				res, err := c.PollExport(context.Background(), "ticket1", "doc1")
				if res != nil {
					t.Errorf("PollExport() result = %+v, want nil", res)
				}
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("error = %v, want APIError", err)
				}
				if apiErr.Msg != ErrMissingJobStatus.Error() {
					t.Errorf("Msg = %q", apiErr.Msg)
				}
			})
		}
	})

	t.Run("poll pending status", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"result": map[string]any{"job_status": 2}}})
		})

		res, err := c.PollExport(context.Background(), "ticket1", "doc1")
		if err != nil {
			t.Fatalf("PollExport() error = %v", err)
		}
		if got := res.JobResult().State; got != model.JobPending {
			t.Errorf("State = %v, want JobPending", got)
		}
	})

	t.Run("download", func(t *testing.T) {
		t.Parallel()

		content := []byte("%PDF-1.4 fake content")
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/open-apis/drive/v1/export_tasks/file/box1/download" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(content)
		})

		var buf bytes.Buffer
		n, err := c.DownloadExport(context.Background(), "box1", &buf)
		if err != nil {
			t.Fatalf("DownloadExport() error = %v", err)
		}
		if n != int64(len(content)) || !bytes.Equal(buf.Bytes(), content) {
			t.Errorf("downloaded %d bytes %q", n, buf.String())
		}
	})

	t.Run("download error envelope", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":1069902,"msg":"file not found"}`)
		})

		_, err := c.DownloadExport(context.Background(), "box1", io.Discard)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want APIError", err)
		}
		if !strings.Contains(apiErr.Msg, "file not found") {
			t.Errorf("Msg = %q", apiErr.Msg)
		}
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		code      int
		wantNil   bool
		wantRate  bool
		wantTrans bool
		wantAPI   bool
	}{
		{name: "ok", status: 200, code: 0, wantNil: true},
		{name: "rate limit code", status: 200, code: model.RateLimitCode, wantRate: true},
		{name: "rate limit status", status: 429, code: 0, wantRate: true},
		{name: "api code", status: 200, code: 1, wantAPI: true},
		{name: "bad gateway", status: 502, code: 0, wantTrans: true},
		{name: "not found", status: 404, code: 0, wantAPI: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classify("op", tt.status, tt.code, "msg")
			if tt.wantNil {
				if err != nil {
					t.Errorf("classify() = %v, want nil", err)
				}
				return
			}
			var rl *model.RateLimitError
			var te *model.TransportError
			var ae *model.APIError
			if got := errors.As(err, &rl); got != tt.wantRate {
				t.Errorf("RateLimitError = %v, want %v (%v)", got, tt.wantRate, err)
			}
			if got := errors.As(err, &te); got != tt.wantTrans {
				t.Errorf("TransportError = %v, want %v (%v)", got, tt.wantTrans, err)
			}
			if got := errors.As(err, &ae); got != tt.wantAPI {
				t.Errorf("APIError = %v, want %v (%v)", got, tt.wantAPI, err)
			}
		})
	}
}
