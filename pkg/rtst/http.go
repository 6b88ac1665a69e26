package rtst

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"github.com/mitchellh/hashstructure/v2"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/rtst/pkg/ingest"
	"github.com/voluzi/rtst/pkg/sar"
	"github.com/voluzi/rtst/pkg/series"
)

// Health describes the server state.
type Health struct {
	Instance string         `json:"instance"`
	Uptime   string         `json:"uptime"`
	Capacity int            `json:"capacity"`
	Buffers  map[string]int `json:"buffers"`
	// Latest holds the time of the newest sample of each non-empty family.
	Latest     map[string]int64 `json:"latest"`
	Interfaces []string         `json:"interfaces"`
	Ingest     *ingest.Stats    `json:"ingest,omitempty"`
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.query).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.metrics).Methods(http.MethodGet)
	s.router.HandleFunc("/report", s.report).Methods(http.MethodGet)
	s.router.PathPrefix("/").HandlerFunc(s.file).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxRequestSize.Bytes())))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			replyError(w, r, http.StatusRequestEntityTooLarge, errors.Errorf("request body exceeds %s", s.cfg.MaxRequestSize.HR()))
			return
		}
		log.WithError(err).Warn("error reading request body")
		replyError(w, r, http.StatusBadRequest, err)
		return
	}

	q, err := ParseQuery(string(body))
	if err != nil {
		log.WithError(err).WithField("body", string(body)).Debug("rejected query")
		replyError(w, r, http.StatusBadRequest, err)
		return
	}

	doc, err := s.series.Query(q.Kind, q.Since)
	if err != nil {
		log.WithError(err).WithField("type", q.Type).Error("error rendering history")
		replyError(w, r, http.StatusInternalServerError, err)
		return
	}

	etag, err := documentETag(doc)
	if err != nil {
		log.WithError(err).Warn("error hashing document")
	} else {
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	b, err := doc.Marshal()
	if err != nil {
		log.WithError(err).Error("error encoding history")
		replyError(w, r, http.StatusInternalServerError, err)
		return
	}

	log.WithFields(log.Fields{
		"type":  q.Type,
		"since": q.Since,
		"rows":  doc.Len(),
	}).Trace("served history")
	reply(w, r, http.StatusOK, "application/json", b)
}

func documentETag(doc *series.Document) (string, error) {
	hash, err := hashstructure.Hash(doc, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return `"` + strconv.FormatUint(hash, 16) + `"`, nil
}

func (s *Server) file(w http.ResponseWriter, r *http.Request) {
	name := resolve(r.URL.Path)

	b, err := s.static.read(name)
	if err != nil {
		log.WithError(err).WithField("path", r.URL.Path).Debug("could not read static file")
		reply(w, r, http.StatusNotFound, defaultContentType, []byte(fmt.Sprintf("ERROR: Could not read %s\n", r.URL.Path)))
		return
	}

	if name == indexFile {
		b = s.renderIndex(b)
	}
	reply(w, r, http.StatusOK, contentType(name), b)
}

// renderIndex fills in the settings the browser client polls with.
func (s *Server) renderIndex(b []byte) []byte {
	return []byte(strings.NewReplacer(
		"%SERVER_NAME%", s.cfg.ServerName,
		"%SERVER_PORT%", strconv.Itoa(s.cfg.Port),
		"%CLIENT_UPDATE_INTERVAL%", strconv.Itoa(s.cfg.ClientInterval),
		"%CLIENT_HISTORY_LENGTH%", strconv.Itoa(s.cfg.ClientHistory),
	).Replace(string(b)))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Instance:   s.instance,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Capacity:   s.collector.Capacity(),
		Buffers:    make(map[string]int, len(sar.Kinds)),
		Latest:     make(map[string]int64, len(sar.Kinds)),
		Interfaces: s.series.Interfaces(),
	}
	for _, kind := range sar.Kinds {
		health.Buffers[kind.String()] = s.collector.Len(kind)
		if rec, ok := s.collector.Latest(kind); ok {
			health.Latest[kind.String()] = rec.Time
		}
	}
	if s.cfg.Stats != nil {
		stats := s.cfg.Stats()
		health.Ingest = &stats
	}

	b, err := json.Marshal(health)
	if err != nil {
		log.Errorf("error encoding health to json: %v", err)
		replyError(w, r, http.StatusInternalServerError, err)
		return
	}
	reply(w, r, http.StatusOK, "application/json", b)
}
