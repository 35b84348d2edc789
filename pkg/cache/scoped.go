package cache

// ScopedKeyer prefixes every key of an inner Keyer. The job service scopes
// its keys so a shared Redis instance can serve several deployments:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "jobs:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// EmbeddingKey implements Keyer.
func (k *ScopedKeyer) EmbeddingKey(graphHash string, opts EmbeddingKeyOpts) string {
	return k.prefix + k.inner.EmbeddingKey(graphHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(embeddingHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(embeddingHash, opts)
}
