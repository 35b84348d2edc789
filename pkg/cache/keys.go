package cache

import "fmt"

// EmbeddingKeyOpts are the solver options that change an embedding.
type EmbeddingKeyOpts struct {
	K     int    `json:"k"`
	Which string `json:"which"`
}

// ArtifactKeyOpts are the drawing options that change a rendered image.
type ArtifactKeyOpts struct {
	SkipTrivial bool   `json:"skip_trivial"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Scale       int    `json:"scale"`
	Background  string `json:"background"`
	EdgeColor   string `json:"edge_color"`
}

// Keyer derives cache keys.
type Keyer interface {
	// EmbeddingKey keys an embedding by graph content hash and solver options.
	EmbeddingKey(graphHash string, opts EmbeddingKeyOpts) string
	// ArtifactKey keys a rendered image by embedding hash and drawing options.
	ArtifactKey(embeddingHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// EmbeddingKey implements Keyer.
func (DefaultKeyer) EmbeddingKey(graphHash string, opts EmbeddingKeyOpts) string {
	return hashKey(KindEmbedding, graphHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(embeddingHash string, opts ArtifactKeyOpts) string {
	return hashKey(KindArtifact, embeddingHash, opts)
}

// String renders the options for debug logs.
func (o EmbeddingKeyOpts) String() string {
	return fmt.Sprintf("k=%d which=%s", o.K, o.Which)
}
