package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

type HealthHandler struct {
	logger logrus.FieldLogger
	mode   string
}

func NewHealthHandler(logger logrus.FieldLogger, mode string) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		mode:   mode,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   h.mode,
	})
}
