package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/odvcencio/got-lfs/pkg/lfs"
	"github.com/odvcencio/got-lfs/pkg/presence"
)

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	// Token, when set, is required as a bearer token on every request.
	Token string
}

type handler struct {
	index presence.Index
	token string
}

// NewHandler serves index over HTTP. Record endpoints are only served when
// index is also a presence.Recorder.
func NewHandler(index presence.Index, opts HandlerOptions) http.Handler {
	h := &handler{index: index, token: opts.Token}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+BatchPath, h.handleBatch)
	if _, ok := index.(presence.Recorder); ok {
		mux.HandleFunc("POST "+ObjectsPath, h.handleAddObjects)
		mux.HandleFunc("GET "+ObjectsPath, h.handleListObjects)
	}
	return h.authorize(mux)
}

func (h *handler) authorize(next http.Handler) http.Handler {
	if h.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+h.token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Store == "" {
		writeError(w, http.StatusBadRequest, "store is required")
		return
	}
	if len(req.OIDs) > MaxBatchOIDs {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("batch exceeds %d oids", MaxBatchOIDs))
		return
	}
	for _, oid := range req.OIDs {
		if !lfs.ValidOID(oid) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid oid %q", oid))
			return
		}
	}

	present, err := h.index.ExistsBatch(r.Context(), presence.StoreID(req.Store), req.OIDs)
	if err != nil {
		log.Warnw("presence batch failed", "store", req.Store, "oids", len(req.OIDs), "err", err)
		writeError(w, http.StatusInternalServerError, "presence lookup failed")
		return
	}
	log.Debugw("presence batch", "store", req.Store, "oids", len(req.OIDs), "present", len(present))
	writeJSON(w, http.StatusOK, BatchResponse{Present: present.Sorted()})
}

func (h *handler) handleAddObjects(w http.ResponseWriter, r *http.Request) {
	var req ObjectsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Store == "" {
		writeError(w, http.StatusBadRequest, "store is required")
		return
	}
	objects := make([]presence.Object, 0, len(req.Objects))
	for _, o := range req.Objects {
		if !lfs.ValidOID(o.OID) || o.Size < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid object %q", o.OID))
			return
		}
		objects = append(objects, presence.Object{OID: o.OID, Size: o.Size})
	}
	rec := h.index.(presence.Recorder)
	if err := rec.AddObjects(r.Context(), presence.StoreID(req.Store), objects); err != nil {
		log.Warnw("add objects failed", "store", req.Store, "err", err)
		writeError(w, http.StatusInternalServerError, "record objects failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleListObjects(w http.ResponseWriter, r *http.Request) {
	store := r.URL.Query().Get("store")
	if store == "" {
		writeError(w, http.StatusBadRequest, "store is required")
		return
	}
	rec := h.index.(presence.Recorder)
	objects, err := rec.ListObjects(r.Context(), presence.StoreID(store))
	if err != nil {
		log.Warnw("list objects failed", "store", store, "err", err)
		writeError(w, http.StatusInternalServerError, "list objects failed")
		return
	}
	resp := ObjectsResponse{Objects: make([]ObjectRecord, 0, len(objects))}
	for _, o := range objects {
		resp.Objects = append(resp.Objects, ObjectRecord{OID: o.OID, Size: o.Size})
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeRequest decodes a bounded JSON body, decompressing zstd bodies.
func decodeRequest(w http.ResponseWriter, r *http.Request, out any) error {
	var body io.Reader = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if isZstdEncoded(r.Header.Get("Content-Encoding")) {
		zr, err := newZstdReader(body)
		if err != nil {
			return fmt.Errorf("decompress body: %w", err)
		}
		defer zr.Close()
		body = io.LimitReader(zr, maxRequestBytes)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("body exceeds %d bytes", maxRequestBytes)
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugw("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, RemoteError{Message: msg})
}
