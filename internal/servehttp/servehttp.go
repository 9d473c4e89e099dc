// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package servehttp implements the single-route HTTP front end described in
// spec.md §6: a directory returns an HTML index, a file is resolved through
// the producer evaluator and returned with a content type derived from its
// extension, and anything else is a 404.
package servehttp

import (
	"html/template"
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ellabellla/servefs/internal/logger"
	"github.com/ellabellla/servefs/internal/metrics"
	"github.com/ellabellla/servefs/internal/producer"
	"github.com/ellabellla/servefs/internal/vfs"
)

// Handler serves the virtual tree rooted at store over HTTP.
type Handler struct {
	store    *vfs.Store
	metrics  metrics.MetricHandle
	tmpl     *template.Template
	tmplName string
}

// New builds a Handler. templatePath is the --template override; an empty
// string selects the built-in index template.
func New(store *vfs.Store, m metrics.MetricHandle, templatePath string) (*Handler, error) {
	tmpl, name, err := parseIndexTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return &Handler{store: store, metrics: m, tmpl: tmpl, tmplName: name}, nil
}

// Routes mounts the handler's single catch-all route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/*", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	path := "/" + chi.URLParam(r, "*")
	var err error
	defer metrics.Timed(h.metrics, r.Context(), "http.get", &err)()

	if h.serveDir(w, r, path) {
		return
	}
	if h.serveFile(w, r, path) {
		return
	}
	http.NotFound(w, r)
}

// serveDir renders a directory index if path names an extant directory.
// It reports whether it handled the request.
func (h *Handler) serveDir(w http.ResponseWriter, r *http.Request, path string) bool {
	d, err := vfs.OpenDirectory(h.store, path)
	if err != nil {
		return false
	}
	exists, err := d.Exists(r.Context())
	if err != nil || !exists {
		return false
	}

	fileEntries, dirEntries, err := d.Contents(r.Context())
	if err != nil {
		logger.Errorf("servehttp: list %s: %v", path, err)
		http.NotFound(w, r)
		return true
	}

	data := indexData{Parent: d.Path()}
	for _, f := range fileEntries {
		data.Files = append(data.Files, entry{Name: f.Name, Href: d.Path() + f.Name})
	}
	for _, sub := range dirEntries {
		if vfs.ParentPath(sub.Path) != d.Path() {
			continue
		}
		data.Dirs = append(data.Dirs, entry{Name: vfs.Basename(sub.Path), Href: sub.Path})
	}
	sort.Slice(data.Dirs, func(i, j int) bool { return data.Dirs[i].Name < data.Dirs[j].Name })
	sort.Slice(data.Files, func(i, j int) bool { return data.Files[i].Name < data.Files[j].Name })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, h.tmplName, data); err != nil {
		logger.Errorf("servehttp: render %s: %v", path, err)
	}
	return true
}

// serveFile evaluates path's producer and writes its body if path names an
// extant file. It reports whether it handled the request.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, path string) bool {
	f, err := vfs.OpenFile(h.store, path)
	if err != nil {
		return false
	}
	exists, err := f.Exists(r.Context())
	if err != nil || !exists {
		return false
	}

	data, kind, err := f.Read(r.Context())
	if err != nil {
		http.NotFound(w, r)
		return true
	}

	body, err := producer.Evaluate(r.Context(), kind, data)
	if err != nil {
		logger.Debugf("servehttp: producer for %s failed: %v", path, err)
		body = nil
	}

	w.Header().Set("Content-Type", contentType(f.Name()))
	_, _ = w.Write(body)
	return true
}

// contentType resolves name's extension via the standard mime table,
// falling back to text/plain when the extension is unknown, per spec.md
// §6's "fallback text/plain".
func contentType(name string) string {
	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = name[i:]
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "text/plain; charset=utf-8"
}
