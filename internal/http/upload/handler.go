package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fiore/internal/http/session"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
)

// maxUploadSize caps the whole request body, form framing included.
const maxUploadSize = 10 << 20

// accepted are the document types the invoicing API stores.
var accepted = []string{
	"application/pdf",
	"text/plain",
	"image/png",
	"image/jpeg",
}

type Handler struct {
	client *invoicing.Client
	path   string
}

func NewHandler(client *invoicing.Client, path string) *Handler {
	return &Handler{client: client, path: path}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}

		writeError(w, http.StatusBadRequest, "failed to parse form: "+err.Error())

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}

	if mt := mimetype.Detect(data); !acceptable(mt) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported file type: "+mt.String())
		return
	}

	resp, err := h.client.Upload(r.Context(), h.path, invoicing.File{
		Name:    header.Filename,
		Content: bytes.NewReader(data),
	}, session.Request(w, r))
	if err != nil {
		if invoicing.IsCanceled(err) {
			return
		}

		slog.ErrorContext(r.Context(), "upload failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())

		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", utf8ContentType(ct))
	}

	w.WriteHeader(resp.StatusCode)

	if _, err := w.Write(resp.Body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// acceptable walks the detected type and its parents, so XML and CSV pass as
// text/plain descendants.
func acceptable(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, a := range accepted {
			if m.Is(a) {
				return true
			}
		}
	}

	return false
}

// utf8ContentType rewrites a declared charset, since the client already
// decoded the body to UTF-8.
func utf8ContentType(ct string) string {
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil || params["charset"] == "" {
		return ct
	}

	params["charset"] = "utf-8"

	return mime.FormatMediaType(mediaType, params)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorResponse{Error: msg}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
