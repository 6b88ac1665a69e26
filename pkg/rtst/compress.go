package rtst

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
)

const (
	encodingDeflate = "deflate"
	encodingGzip    = "gzip"
)

// negotiateEncoding picks a response encoding from Accept-Encoding, preferring
// a zlib stream (deflate) over gzip.
func negotiateEncoding(r *http.Request) string {
	accept := r.Header.Get("Accept-Encoding")
	switch {
	case strings.Contains(accept, encodingDeflate):
		return encodingDeflate
	case strings.Contains(accept, encodingGzip):
		return encodingGzip
	default:
		return ""
	}
}

func compress(encoding string, body []byte) ([]byte, error) {
	var (
		buf bytes.Buffer
		w   io.WriteCloser
	)
	switch encoding {
	case encodingDeflate:
		w = zlib.NewWriter(&buf)
	case encodingGzip:
		w = pgzip.NewWriter(&buf)
	default:
		return body, nil
	}

	if _, err := w.Write(body); err != nil {
		return nil, errors.Wrapf(err, "error writing %s stream", encoding)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "error closing %s stream", encoding)
	}
	return buf.Bytes(), nil
}

// reply writes a complete response, compressed when the client supports it.
func reply(w http.ResponseWriter, r *http.Request, code int, contentType string, body []byte) {
	encoding := negotiateEncoding(r)
	payload, err := compress(encoding, body)
	if err != nil {
		log.WithError(err).Warn("sending uncompressed response")
		encoding, payload = "", body
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Add("Vary", "Accept-Encoding")
	if encoding != "" {
		h.Set("Content-Encoding", encoding)
	}
	h.Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(code)
	if _, err := w.Write(payload); err != nil {
		log.WithError(err).Debug("error writing response")
	}
}

// replyError answers with a plain diagnostic line.
func replyError(w http.ResponseWriter, r *http.Request, code int, err error) {
	reply(w, r, code, "text/html; charset=utf-8", []byte(err.Error()+"\n"))
}
