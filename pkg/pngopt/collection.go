package pngopt

// Collection is a group of option values that may or may not carry an order.
type Collection[T comparable] interface {
	Values() []T
	Ordered() bool
}

// Seq is an ordered collection. Duplicates are dropped when it is read.
type Seq[T comparable] []T

func (s Seq[T]) Values() []T { return append([]T(nil), s...) }

func (s Seq[T]) Ordered() bool { return true }

// Set is an unordered collection.
//
// Deprecated: iteration order of a Set is undefined; use Seq. Resolving a
// configuration from a Set emits a deprecation notice.
type Set[T comparable] map[T]struct{}

func SetOf[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Values() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

func (s Set[T]) Ordered() bool { return false }

// collect returns the distinct values of c in first-seen order.
func collect[T comparable](c Collection[T]) (values []T, unordered bool) {
	if c == nil {
		return nil, false
	}
	return dedupe(c.Values()), !c.Ordered()
}

func dedupe[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
