// Package zone implements the process-wide collection of preallocated byte
// arenas that back tensor storage (§4.D).
//
// The collection is a monotone allocator: it never tracks free regions and
// never resizes. Callers compute their own offsets and may deliberately let
// tensors overlap to implement implicit concatenation -- do not add a
// free-list here.
package zone

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultConfig is used when no configuration string is supplied.
const DefaultConfig = "128M"

// EnvKey is the environment variable read by Default() to size zones.
const EnvKey = "GIGA_CPU_MEMORY"

// Zone is a single contiguous byte arena.
type Zone struct {
	id          int
	buf         []byte
	tensorCount atomic.Int64
}

// ID returns the zone's index in its Collection.
func (z *Zone) ID() int { return z.id }

// Size returns the zone's total capacity in bytes.
func (z *Zone) Size() int { return len(z.buf) }

// Bytes returns the zone's backing storage. Callers index into it using
// tensor byte offsets and strides; the zone never rearranges these bytes.
func (z *Zone) Bytes() []byte { return z.buf }

// TensorCount returns the number of live Owned tensors carved from this
// zone. It is informational only -- the arena itself never reclaims space.
func (z *Zone) TensorCount() int64 { return z.tensorCount.Load() }

func (z *Zone) incTensorCount() { z.tensorCount.Add(1) }

// decTensorCount is best-effort: per §9 open question 2, the source's
// release-with-outstanding-views behavior is inconsistent, and since the
// arena never frees bytes the observable effect is nil either way. We
// still decrement so TensorCount stays a useful diagnostic.
func (z *Zone) decTensorCount() { z.tensorCount.Add(-1) }

// Collection is the process-wide ordered set of zones.
type Collection struct {
	zones []*Zone
}

// Zone returns the zone at the given id, or an error if id is out of range.
func (c *Collection) Zone(id int) (*Zone, error) {
	if id < 0 || id >= len(c.zones) {
		return nil, errors.Errorf("zone: id %d out of range [0,%d)", id, len(c.zones))
	}
	return c.zones[id], nil
}

// Len returns the number of zones in the collection.
func (c *Collection) Len() int { return len(c.zones) }

// New builds a Collection from a configuration string of the form
// "<n1>[<unit>];<n2>[<unit>];..." where unit is one of K, M, G, or absent
// (bytes). An empty string uses DefaultConfig.
func New(config string) (*Collection, error) {
	if strings.TrimSpace(config) == "" {
		config = DefaultConfig
	}
	parts := strings.Split(config, ";")
	zones := make([]*Zone, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, err := parseSize(part)
		if err != nil {
			return nil, errors.Wrapf(err, "zone: invalid entry %d (%q)", i, part)
		}
		zones = append(zones, &Zone{id: len(zones), buf: make([]byte, size)})
	}
	if len(zones) == 0 {
		return nil, errors.New("zone: configuration produced no zones")
	}
	return &Collection{zones: zones}, nil
}

// parseSize parses a single "<n>[K|M|G]" entry into a byte count.
func parseSize(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty size")
	}
	unit := s[len(s)-1]
	numPart := s
	mult := int64(1)
	switch unit {
	case 'K', 'k':
		mult = 1 << 10
		numPart = s[:len(s)-1]
	case 'M', 'm':
		mult = 1 << 20
		numPart = s[:len(s)-1]
	case 'G', 'g':
		mult = 1 << 30
		numPart = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", s)
	}
	if n <= 0 {
		return 0, errors.Errorf("size must be positive, got %q", s)
	}
	return int(n * mult), nil
}

var (
	defaultOnce sync.Once
	defaultColl *Collection
	defaultErr  error
)

// Default returns the process-wide zone Collection, built once from the
// GIGA_CPU_MEMORY environment variable (or DefaultConfig if unset).
func Default() (*Collection, error) {
	defaultOnce.Do(func() {
		cfg := os.Getenv(EnvKey)
		defaultColl, defaultErr = New(cfg)
		if defaultErr != nil {
			klog.Warningf("zone: failed to initialize default collection from %s=%q: %v", EnvKey, cfg, defaultErr)
		}
	})
	return defaultColl, defaultErr
}

// ResetDefaultForTest discards the cached default Collection so a test can
// re-initialize it under a different environment. Not for production use.
func ResetDefaultForTest() {
	defaultOnce = sync.Once{}
	defaultColl = nil
	defaultErr = nil
}

// Reserve checks that a [offset, offset+size) range fits within the zone
// and, if so, marks one more Owned tensor as carved from it.
func (z *Zone) Reserve(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(z.buf) {
		return errors.Errorf("zone %d: allocation [%d,%d) exceeds capacity %d", z.id, offset, offset+size, len(z.buf))
	}
	z.incTensorCount()
	return nil
}

// Release records that one Owned tensor carved from this zone has gone
// away. It never reclaims bytes -- see the package doc.
func (z *Zone) Release() {
	z.decTensorCount()
}
