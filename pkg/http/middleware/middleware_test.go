package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurykabanov/sqljobrunner/pkg/appcontext"
)

func TestWithRequestId_Generated(t *testing.T) {
	var seen string
	h := WithRequestId(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appcontext.RequestIdFromContext(r.Context())
	}), func() string { return "generated" })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query", nil))

	assert.Equal(t, "generated", seen)
	assert.Equal(t, "generated", rec.Header().Get(HeaderRequestId))
}

func TestWithRequestId_Propagated(t *testing.T) {
	var seen string
	h := WithRequestId(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appcontext.RequestIdFromContext(r.Context())
	}), func() string { return "generated" })

	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set(HeaderRequestId, "from-caller")

	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "from-caller", seen)
}

func TestDefaultRequestIdProvider(t *testing.T) {
	id := DefaultRequestIdProvider()

	assert.Len(t, id, 32)
	assert.NotEqual(t, id, DefaultRequestIdProvider())
}

func TestWithRequestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()

	h := WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}), logger, "/healthz")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/query", nil))

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, http.StatusInternalServerError, entry.Data["status"])
	assert.Equal(t, 4, entry.Data["content_length"])

	hook.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Empty(t, hook.AllEntries())
}
