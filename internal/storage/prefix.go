package storage

import "context"

type prefixed struct {
	next   Storage
	prefix string
}

// WithPrefix returns a view of s in which every key is prepended with prefix.
func WithPrefix(s Storage, prefix string) Storage {
	return &prefixed{next: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.next.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.next.Remove(ctx, p.prefix+key)
}
