package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/sqljobrunner/pkg/appcontext"
	"github.com/yurykabanov/sqljobrunner/pkg/query"
)

const queryTimeout = 30 * time.Second

// QueryHandler serves GET /query: one CURRENT_TIMESTAMP round trip on the
// pooled connection per request.
type QueryHandler struct {
	logger   logrus.FieldLogger
	executor query.Executor
}

func NewQueryHandler(logger logrus.FieldLogger, executor query.Executor) *QueryHandler {
	return &QueryHandler{
		logger:   logger,
		executor: executor,
	}
}

type queryResponse struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	logger := appcontext.LoggerFromContext(h.logger, ctx)

	value, err := h.executor.Scalar(ctx, query.CurrentTimestampQuery)
	if err != nil {
		logger.WithError(err).Error("Unable to query current timestamp")
		writeJSON(logger, w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(logger, w, http.StatusOK, queryResponse{
		Timestamp: query.Format(value),
		Status:    "success",
	})
}

func writeJSON(logger logrus.FieldLogger, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Unable to encode response")
	}
}
