package testutil

import "strconv"

// Aliaser maps unstable identifiers (UUIDv7 liveness-token ids) to
// stable, ordinal aliases ("tok-1", "tok-2", ...) in first-seen order.
//
// Token ids are freshly generated per run, which would make every
// trace unique. Recording aliases instead keeps traces deterministic
// for golden comparison while preserving which events share a token.
//
// Thread-safety: not safe for concurrent use; the harness records
// events from a single goroutine.
type Aliaser struct {
	prefix  string
	aliases map[string]string
	order   int
}

// NewAliaser creates an Aliaser producing aliases "<prefix>-1",
// "<prefix>-2", ... in first-seen order.
func NewAliaser(prefix string) *Aliaser {
	return &Aliaser{
		prefix:  prefix,
		aliases: make(map[string]string),
	}
}

// Alias returns the stable alias for id, assigning the next ordinal on
// first sight. The empty id maps to the empty alias.
func (a *Aliaser) Alias(id string) string {
	if id == "" {
		return ""
	}
	if alias, ok := a.aliases[id]; ok {
		return alias
	}
	a.order++
	alias := a.prefix + "-" + strconv.Itoa(a.order)
	a.aliases[id] = alias
	return alias
}
