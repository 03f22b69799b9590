package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/promptmd/internal/doctree"
	"github.com/dgallion1/promptmd/internal/expand"
	"github.com/dgallion1/promptmd/internal/llm"
)

const maxRequestBytes = 64 << 10

var errOutsideRoot = errors.New("path escapes document root")

type expandRequest struct {
	Path     string `json:"path"`
	Provider string `json:"provider,omitempty"`
	Size     string `json:"size,omitempty"`
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	req, path, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}

	content, err := s.expander.Expand(r.Context(), path)
	if err != nil {
		s.writeExpandError(w, req.Path, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"path":    req.Path,
		"content": content,
		"tokens":  doctree.EstimateTokens(content),
	})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	req, path, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = s.cfg.Provider
	}
	provider, err := llm.ParseProvider(providerName)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	size := req.Size
	if size == "" {
		size = s.cfg.ModelSize
	}
	client, err := s.newClient(provider, size)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	prompt, err := s.expander.Expand(r.Context(), path)
	if err != nil {
		s.writeExpandError(w, req.Path, err)
		return
	}

	answer, err := llm.SendWithRetry(r.Context(), client, prompt, s.stats, s.log)
	if err != nil {
		s.log.Error("send failed", "path", req.Path, "provider", provider, "error", err)
		jsonError(w, "model request failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"path":          req.Path,
		"provider":      provider,
		"answer":        answer,
		"prompt_tokens": doctree.EstimateTokens(prompt),
	})
}

// decodeDocumentRequest parses the JSON body and maps its path into the
// document root. On failure the error response is already written.
func (s *Server) decodeDocumentRequest(w http.ResponseWriter, r *http.Request) (expandRequest, string, bool) {
	var req expandRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return req, "", false
	}
	if strings.TrimSpace(req.Path) == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return req, "", false
	}

	path, err := s.resolveDocument(req.Path)
	if errors.Is(err, errOutsideRoot) {
		jsonError(w, err.Error(), http.StatusForbidden)
		return req, "", false
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return req, "", false
	}
	return req, path, true
}

// resolveDocument joins rel onto the document root and rejects results
// that leave it, following symlinks when the target exists.
func (s *Server) resolveDocument(rel string) (string, error) {
	root, err := filepath.Abs(s.cfg.DocumentRoot)
	if err != nil {
		return "", fmt.Errorf("resolve document root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	target := filepath.Join(root, filepath.FromSlash(rel))
	resolved, err := filepath.EvalSymlinks(target)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		resolved = target
	case err != nil:
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}

	within, err := filepath.Rel(root, resolved)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return resolved, nil
}

func (s *Server) writeExpandError(w http.ResponseWriter, path string, err error) {
	switch {
	case errors.Is(err, expand.ErrDocumentNotFound):
		jsonErrorKind(w, fmt.Sprintf("document %s not found", path), "document_not_found", http.StatusNotFound)
	case errors.Is(err, expand.ErrIncludeCycle):
		jsonErrorKind(w, err.Error(), "include_cycle", http.StatusUnprocessableEntity)
	case errors.Is(err, expand.ErrUnsafeCommand):
		jsonErrorKind(w, err.Error(), "unsafe_command", http.StatusUnprocessableEntity)
	default:
		s.log.Error("expand failed", "path", path, "error", err)
		jsonError(w, "expand failed", http.StatusInternalServerError)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func jsonErrorKind(w http.ResponseWriter, msg, kind string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "kind": kind})
}
