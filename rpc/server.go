// Package rpc serves stored files together with Merkle proofs over HTTP, and
// provides the client that talks to it.
package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/makew0rld/merkvault/config"
	"github.com/makew0rld/merkvault/logging"
	"github.com/makew0rld/merkvault/merkle"
	"github.com/makew0rld/merkvault/store"
	"github.com/rs/cors"
)

const (
	ContentType     = "Content-Type"
	ApplicationJSON = "application/json; charset=utf-8"

	shutdownTimeout = 5 * time.Second
)

// Server stores uploaded files in a directory, and answers file requests
// with a proof built from a fresh snapshot of that directory.
type Server struct {
	dir    *store.Dir
	alg    merkle.Algorithm
	config config.ServerConfig
	logger logging.LoggerI
}

func NewServer(dir *store.Dir, alg merkle.Algorithm, conf config.ServerConfig, logger logging.LoggerI) *Server {
	return &Server{
		dir:    dir,
		alg:    alg,
		config: conf,
		logger: logger,
	}
}

// Handler returns the routes wrapped with CORS and a request timeout.
func (s *Server) Handler() http.Handler {
	cor := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})
	timeout := time.Duration(s.config.TimeoutS) * time.Second
	return cor.Handler(http.TimeoutHandler(s.router(), timeout, "request timed out"))
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.Handler(),
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Errorf("shutting down: %v", err)
		}
	}()

	s.logger.Infof("Serving %s on %s (%s)", s.dir.Path(), srv.Addr, s.alg)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(UploadRequest)
	if ok := s.unmarshal(w, r, req); !ok {
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		s.logger.Warnf("Failed to decode base64 content for %q: %v", req.Filename, err)
		s.writeError(w, fmt.Errorf("decoding content: %w", err), http.StatusBadRequest)
		return
	}
	if err := s.dir.Save(req.Filename, content); err != nil {
		if errors.Is(err, store.ErrInvalidName) {
			s.writeError(w, err, http.StatusBadRequest)
			return
		}
		s.logger.Errorf("Failed to save file %q: %v", req.Filename, err)
		s.writeError(w, errors.New("failed to save file"), http.StatusInternalServerError)
		return
	}
	s.logger.Infof("Stored %s (%d bytes)", req.Filename, len(content))
	s.write(w, UploadResponse{Message: "File uploaded successfully"}, http.StatusOK)
}

func (s *Server) file(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	name := p.ByName("filename")
	if !store.ValidName(name) {
		s.writeError(w, fmt.Errorf("%w: %q", store.ErrInvalidName, name), http.StatusBadRequest)
		return
	}
	// The tree is built from the same snapshot the content comes from
	files, err := s.dir.Snapshot()
	if err != nil {
		s.logger.Errorf("Failed to read %s: %v", s.dir.Path(), err)
		s.writeError(w, errors.New("failed to read files"), http.StatusInternalServerError)
		return
	}
	content, ok := files[name]
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %s", merkle.ErrNotFound, name), http.StatusNotFound)
		return
	}
	tree, err := merkle.Build(files, s.alg)
	if err != nil {
		s.logger.Errorf("Failed to build tree: %v", err)
		s.writeError(w, errors.New("failed to build tree"), http.StatusInternalServerError)
		return
	}
	proof, err := tree.Proof(name, files)
	if err != nil {
		s.logger.Warnf("Failed to generate merkle proof for %s: %v", name, err)
		code := http.StatusInternalServerError
		if errors.Is(err, merkle.ErrNoProof) {
			code = http.StatusConflict
		}
		s.writeError(w, err, code)
		return
	}
	s.logger.Debugf("Proof for %s: %s", name, proof)
	s.write(w, FileResponse{
		Filename:    name,
		Content:     content,
		MerkleProof: proof,
	}, http.StatusOK)
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	files, err := s.dir.Snapshot()
	if err != nil {
		s.logger.Errorf("Failed to read %s: %v", s.dir.Path(), err)
		s.writeError(w, errors.New("failed to read files"), http.StatusInternalServerError)
		return
	}
	tree, err := merkle.Build(files, s.alg)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, merkle.ErrEmptyInput) {
			code = http.StatusNotFound
		}
		s.writeError(w, err, code)
		return
	}
	s.write(w, RootResponse{
		Root:      tree.Root().String(),
		Files:     tree.Leaves(),
		Algorithm: s.alg.String(),
	}, http.StatusOK)
}

// unmarshal reads the JSON body into ptr, writing a 400 on failure.
func (s *Server) unmarshal(w http.ResponseWriter, r *http.Request, ptr interface{}) bool {
	defer func() { _ = r.Body.Close() }()
	bz, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes()))
	if err != nil {
		code := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		s.writeError(w, err, code)
		return false
	}
	if err = json.Unmarshal(bz, ptr); err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error, code int) {
	s.write(w, errorResponse{Error: err.Error()}, code)
}

// write marshaled payload to w
func (s *Server) write(w http.ResponseWriter, payload interface{}, code int) {
	bz, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		s.logger.Errorf("Failed to marshal response: %v", err)
		code = http.StatusInternalServerError
		bz = []byte(`{"error": "internal error"}`)
	}
	w.Header().Set(ContentType, ApplicationJSON)
	w.WriteHeader(code)
	if _, err := w.Write(bz); err != nil {
		s.logger.Error(err.Error())
	}
}
