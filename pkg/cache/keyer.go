package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// LayoutKeyOpts are the packing options that change a layout.
type LayoutKeyOpts struct {
	Orientation string `json:"orientation"`
	Lanes       int    `json:"lanes"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Padding     [4]int `json:"padding"`
	Limit       int    `json:"limit,omitempty"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Labels bool    `json:"labels"`
	Free   bool    `json:"free"`
	Scale  float64 `json:"scale"`

	Palette    []string `json:"palette,omitempty"`
	ViewportAt *int     `json:"viewport_at,omitempty"`
}

// TraceKeyOpts identify a scroll simulation.
type TraceKeyOpts struct {
	LayoutKeyOpts
	Steps []string `json:"steps"`
}

// Keyer builds cache keys.
type Keyer interface {
	LayoutKey(manifestHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
	TraceKey(manifestHash string, opts TraceKeyOpts) string
}

// DefaultKeyer hashes all key parts into prefix:sha256 keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns the key for a packed layout.
func (DefaultKeyer) LayoutKey(manifestHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", manifestHash, opts)
}

// ArtifactKey returns the key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// TraceKey returns the key for a simulation trace.
func (DefaultKeyer) TraceKey(manifestHash string, opts TraceKeyOpts) string {
	return hashKey("trace", manifestHash, opts)
}

// PrefixKeyer namespaces every key of an inner Keyer, so the API and the CLI
// can share one Redis database.
type PrefixKeyer struct {
	Inner  Keyer
	Prefix string
}

// WithPrefix returns inner with prefix prepended to its keys. A nil inner
// means the DefaultKeyer.
func WithPrefix(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return PrefixKeyer{Inner: inner, Prefix: prefix}
}

func (k PrefixKeyer) LayoutKey(manifestHash string, opts LayoutKeyOpts) string {
	return k.Prefix + k.Inner.LayoutKey(manifestHash, opts)
}

func (k PrefixKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + k.Inner.ArtifactKey(layoutHash, opts)
}

func (k PrefixKeyer) TraceKey(manifestHash string, opts TraceKeyOpts) string {
	return k.Prefix + k.Inner.TraceKey(manifestHash, opts)
}

// hashKey streams the JSON encoding of parts through SHA-256 and returns
// kind:digest.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		_ = enc.Encode(p)
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data. Manifests and layouts use it
// as their content identity.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
