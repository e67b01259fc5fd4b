package cache

import (
	"fmt"
	"strings"
)
// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer joins an optional namespace, the method name and the
// serialized arguments with KeySeparator.
type defaultKeySerializer struct {
	namespace string
}

// NewDefaultKeySerializer creates a serializer producing keys like "GetUser::42".
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// NewNamespacedKeySerializer creates a serializer producing keys like "user::GetUser::42",
// so several decorators can share one CacheService without colliding.
func NewNamespacedKeySerializer(namespace string) KeySerializer {
	return &defaultKeySerializer{namespace: strings.Trim(namespace, ":")}
}

// SerializeKey builds a cache key from method name and args.
// Arguments are formatted with fmt.Sprint.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+2)
	if s.namespace != "" {
		parts = append(parts, s.namespace)
	}
	parts = append(parts, method)

	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}
	return strings.Join(parts, KeySeparator)
}
