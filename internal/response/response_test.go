package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performJSON(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return w, body
}

func TestSuccessEnvelope(t *testing.T) {
	w, body := performJSON(t, func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"hello": "world"})
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body.Error != nil {
		t.Fatalf("error = %+v, want nil", body.Error)
	}
	if body.Metadata.RequestID == "" || body.Metadata.Timestamp == "" {
		t.Fatalf("metadata incomplete: %+v", body.Metadata)
	}
	if w.Header().Get("X-Request-ID") != body.Metadata.RequestID {
		t.Fatal("header request id does not match metadata")
	}
}

func TestFailEnvelope(t *testing.T) {
	w, body := performJSON(t, func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrNotFound)
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body.Error == nil || body.Error.Code != ErrNotFound {
		t.Fatalf("error = %+v, want code %s", body.Error, ErrNotFound)
	}
	if body.Error.Message == "" {
		t.Fatal("error message empty")
	}
}

func TestFailWithFieldsCarriesDetails(t *testing.T) {
	_, body := performJSON(t, func(c *gin.Context) {
		FailWithFields(c, http.StatusUnprocessableEntity, ErrValidation, map[string]string{
			"email": "email is required",
		})
	})

	if body.Error == nil || body.Error.Fields["email"] != "email is required" {
		t.Fatalf("error = %+v, want field detail", body.Error)
	}
}

func TestRequestIDPropagatesIncomingHeader(t *testing.T) {
	w := httptest.NewRecorder()
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		Success(c, http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "incoming-id")
	r.ServeHTTP(w, req)

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Metadata.RequestID != "incoming-id" {
		t.Fatalf("request id = %q, want incoming-id", body.Metadata.RequestID)
	}
}
