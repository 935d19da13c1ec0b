package core

import (
	"errors"
	"net/http"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/codec"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	payload, err := codec.JSON.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.JSON.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeDetails(w http.ResponseWriter, status int, details string) {
	writeJSON(w, app.ErrorBody{Details: details}, status)
}

func writeError(w http.ResponseWriter, err error) {
	writeDetails(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, app.ErrMalformedField), errors.Is(err, app.ErrNativeRejected):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
