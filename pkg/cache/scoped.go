package cache

// ScopedKeyer prefixes every key of an inner Keyer.
//
// The server scopes its keys so that layouts requested over HTTP never
// collide with entries written by the CLI into a shared Redis:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(historyHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(historyHash, opts)
}
