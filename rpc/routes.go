package rpc

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

const (
	UploadRoutePath = "/upload"
	FileRoutePath   = "/file/:filename"
	RootRoutePath   = "/root"
)

func fileURL(name string) string { return "/file/" + name }

func (s *Server) router() *httprouter.Router {
	r := httprouter.New()
	r.Handle(http.MethodPost, UploadRoutePath, logHandler{s, UploadRoutePath, s.upload}.Handle)
	r.Handle(http.MethodGet, FileRoutePath, logHandler{s, FileRoutePath, s.file}.Handle)
	r.Handle(http.MethodGet, RootRoutePath, logHandler{s, RootRoutePath, s.root}.Handle)
	return r
}

// logHandler logs each call before handing it to the route
type logHandler struct {
	s    *Server
	path string
	h    httprouter.Handle
}

func (h logHandler) Handle(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	h.s.logger.Debugf("%s %s (%s)", r.Method, r.URL.Path, h.path)
	h.h(w, r, p)
}
