package svd

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/logflags"
)

// Well-known architecture subdirectories searched under the hardware root.
var mcuArchDirs = []string{"mcu/arm"}

const loaderCacheSize = 8

// Loader resolves MCU names to peripheral databases using the hardware
// description tree rooted at SBL_HW_PATH (or a configured override).
// Parsed databases are cached so that repeated attaches to the same part
// do not re-read the SVD file.
type Loader struct {
	root  string // overrides SBL_HW_PATH when set
	mu    sync.Mutex
	cache *lru.Cache
	log   *logrus.Entry
}

// NewLoader returns a Loader. root overrides the SBL_HW_PATH environment
// variable when non-empty.
func NewLoader(root string) *Loader {
	cache, _ := lru.New(loaderCacheSize)
	return &Loader{root: root, cache: cache, log: logflags.SVDLogger()}
}

// Load builds a Database for an MCU by name. A missing hardware root,
// MCU directory, manifest or cached SVD file all mean "no hardware
// description available" and return (nil, nil); parse and patch failures
// are real errors.
func (l *Loader) Load(mcu string) (*Database, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if db, ok := l.cache.Get(mcu); ok {
		return db.(*Database), nil
	}

	mcuDir := l.resolveMCUDir(mcu)
	if mcuDir == "" {
		l.log.Debugf("no hardware description for %s", mcu)
		return nil, nil
	}
	db, err := loadFromDir(mcuDir)
	if err != nil || db == nil {
		return db, err
	}
	l.log.Debugf("loaded %s peripheral database from %s", mcu, mcuDir)
	l.cache.Add(mcu, db)
	return db, nil
}

// resolveMCUDir finds the directory for an MCU under the hardware root.
// The directory must contain a cecrops.json to count.
func (l *Loader) resolveMCUDir(mcu string) string {
	root := l.root
	if root == "" {
		root = os.Getenv("SBL_HW_PATH")
	}
	if root == "" {
		return ""
	}
	for _, arch := range mcuArchDirs {
		candidate := filepath.Join(root, filepath.FromSlash(arch), mcu)
		if fi, err := os.Stat(filepath.Join(candidate, "cecrops.json")); err == nil && !fi.IsDir() {
			return candidate
		}
	}
	return ""
}

func loadFromDir(mcuDir string) (*Database, error) {
	manifest, err := LoadManifest(filepath.Join(mcuDir, "cecrops.json"))
	if err != nil {
		return nil, err
	}

	svdFiles, _ := filepath.Glob(filepath.Join(mcuDir, ".cache", "*.svd"))
	if len(svdFiles) == 0 {
		return nil, nil
	}
	sort.Strings(svdFiles)

	dev, err := ParseFile(svdFiles[0])
	if err != nil {
		return nil, err
	}
	if err := manifest.Apply(dev); err != nil {
		return nil, err
	}
	return NewDatabase(dev), nil
}
