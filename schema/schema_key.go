package schema

import (
	"fmt"
	"strings"
)

// keySeparator joins the parts of a composite key and prefixes storage keys.
const keySeparator = ":"

// CompositeKey is the ordered tuple of identifiers that scopes a record,
// e.g. (level) for books or (bookId, chapterId) for lessons.
type CompositeKey []string

// Key builds a CompositeKey from its parts.
func Key(parts ...string) CompositeKey {
	return CompositeKey(parts)
}

// ParseKey splits a colon-separated key back into its parts.
func ParseKey(s string) CompositeKey {
	if s == "" {
		return CompositeKey{}
	}
	return CompositeKey(strings.Split(s, keySeparator))
}

// String returns the colon-separated form used as a record key.
func (k CompositeKey) String() string {
	return strings.Join(k, keySeparator)
}

// Parent drops the last identifier. The parent of a single-part key is empty.
func (k CompositeKey) Parent() CompositeKey {
	if len(k) == 0 {
		return CompositeKey{}
	}
	return append(CompositeKey{}, k[:len(k)-1]...)
}

// HasPrefix reports whether k starts with every part of prefix.
func (k CompositeKey) HasPrefix(prefix CompositeKey) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Validate checks that the key has the expected number of non-empty parts.
func (k CompositeKey) Validate(arity int) error {
	if len(k) != arity {
		return fmt.Errorf("composite key %q has %d parts, expected %d", k.String(), len(k), arity)
	}
	for i, part := range k {
		if strings.TrimSpace(part) == "" {
			return fmt.Errorf("composite key %q has an empty part at position %d", k.String(), i)
		}
		if strings.Contains(part, keySeparator) {
			return fmt.Errorf("composite key part %q must not contain %q", part, keySeparator)
		}
	}
	return nil
}

// StorageKey is the flat key a collection record is filed under in key/value tiers.
func StorageKey(collection Collection, key CompositeKey) string {
	return string(collection) + keySeparator + key.String()
}

// SplitStorageKey reverses StorageKey.
func SplitStorageKey(storageKey string) (Collection, CompositeKey, bool) {
	collection, rest, ok := strings.Cut(storageKey, keySeparator)
	if !ok {
		return "", nil, false
	}
	if _, valid := ValidCollections[Collection(collection)]; !valid {
		return "", nil, false
	}
	return Collection(collection), ParseKey(rest), true
}
