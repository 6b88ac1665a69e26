package rtst

import (
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/jellydator/ttlcache/v3"
	log "github.com/sirupsen/logrus"
)

const (
	indexFile          = "index.html"
	defaultContentType = "text/plain"
)

// staticFiles reads client files below a document root. Contents are cached
// until the TTL expires or anything below the root changes.
type staticFiles struct {
	root    string
	cache   *ttlcache.Cache[string, []byte]
	watcher *fsnotify.Watcher
	once    sync.Once
	done    chan struct{}
}

func newStaticFiles(root string, ttl time.Duration) *staticFiles {
	f := &staticFiles{
		root: root,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, []byte](ttl),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
		done: make(chan struct{}),
	}
	go f.cache.Start()

	watcher, err := f.newWatcher()
	if err != nil {
		log.WithError(err).WithField("root", root).Warn("static files will only expire by ttl")
		return f
	}
	f.watcher = watcher
	go f.watch()
	return f
}

func (f *staticFiles) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	err = filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, errors.Wrapf(err, "error watching %s", f.root)
	}
	return watcher, nil
}

func (f *staticFiles) watch() {
	for {
		select {
		case <-f.done:
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			log.WithFields(log.Fields{
				"file": event.Name,
				"op":   event.Op.String(),
			}).Debug("document root changed")
			f.cache.DeleteAll()
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = f.watcher.Add(event.Name)
				}
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("error watching document root")
		}
	}
}

// resolve maps a request path to a path relative to the root. The result never
// leaves the root.
func resolve(requestPath string) string {
	clean := strings.TrimPrefix(path.Clean("/"+requestPath), "/")
	if clean == "" {
		return indexFile
	}
	return clean
}

// read returns the contents of name, a path relative to the root.
func (f *staticFiles) read(name string) ([]byte, error) {
	if item := f.cache.Get(name); item != nil {
		return item.Value(), nil
	}

	b, err := f.readFile(name)
	if err != nil {
		return nil, err
	}
	f.cache.Set(name, b, ttlcache.DefaultTTL)
	return b, nil
}

// readFile reads name through an os.Root, so symlinks resolving outside the
// document root are refused.
func (f *staticFiles) readFile(name string) ([]byte, error) {
	root, err := os.OpenRoot(f.root)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	file, err := root.Open(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func contentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return defaultContentType
}

func (f *staticFiles) Close() error {
	var err error
	f.once.Do(func() {
		close(f.done)
		f.cache.Stop()
		if f.watcher != nil {
			err = f.watcher.Close()
		}
	})
	return err
}
