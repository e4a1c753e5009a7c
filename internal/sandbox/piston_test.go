package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestExecuteSendsRequestAndDecodesResult(t *testing.T) {
	var got ExecuteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execute" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ExecuteResult{
			Language: "python",
			Version:  "3.12.0",
			Run:      Stage{Stdout: "3\n", Code: 0},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	result, err := c.Execute(context.Background(), &ExecuteRequest{
		Language: "python",
		Version:  "*",
		Files:    []File{{Content: "print(1+2)"}},
		Stdin:    "",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Run.Stdout != "3\n" || result.Run.Code != 0 {
		t.Fatalf("result = %+v", result.Run)
	}
	if got.Language != "python" || len(got.Files) != 1 {
		t.Fatalf("server saw request %+v", got)
	}
}

func TestExecuteNonOKStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	if _, err := c.Execute(context.Background(), &ExecuteRequest{Language: "go"}); err != ErrSandboxUnavailable {
		t.Fatalf("err = %v, want %v", err, ErrSandboxUnavailable)
	}
}

func TestExecuteConnectionFailureIsUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", zerolog.Nop())
	if _, err := c.Execute(context.Background(), &ExecuteRequest{Language: "go"}); err != ErrSandboxUnavailable {
		t.Fatalf("err = %v, want %v", err, ErrSandboxUnavailable)
	}
}

func TestRuntimes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/runtimes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Runtime{
			{Language: "python", Version: "3.12.0"},
			{Language: "go", Version: "1.22.0", Aliases: []string{"golang"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	runtimes, err := c.Runtimes(context.Background())
	if err != nil {
		t.Fatalf("Runtimes: %v", err)
	}
	if len(runtimes) != 2 || runtimes[1].Language != "go" {
		t.Fatalf("runtimes = %+v", runtimes)
	}
}

func TestThrottleSpacesConsecutiveCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Runtime{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Runtimes(context.Background()); err != nil {
			t.Fatalf("Runtimes: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*minRequestInterval {
		t.Fatalf("three calls completed in %v, want at least %v", elapsed, 2*minRequestInterval)
	}
}
