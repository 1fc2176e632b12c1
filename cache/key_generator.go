package cache

import (
	"crypto/sha256"
	"fmt"
	"reflect"
	"strconv"

	"github.com/goliatone/go-cache-codec/codec"
	"github.com/tmthrgd/go-hex"
)

// KeyGenerator builds a cache key from a call-site identity.
// Equal identities must always produce equal keys.
type KeyGenerator interface {
	ComputeKey(owner, method, pkg string, args ...any) (string, error)
}

// DefaultKeyGenerator hashes the structural encoding of an ordered identity
// document {class, methodName, package, "0", "1", ...} with SHA-256.
// Arguments are encoded by value, so distinct but equal instances share a key.
type DefaultKeyGenerator struct {
	structural *codec.Codec
}

// NewKeyGenerator returns a generator that encodes identities with c.
// A nil c uses a structural codec with default settings.
func NewKeyGenerator(c *codec.Codec) (*DefaultKeyGenerator, error) {
	if c == nil {
		var err error
		if c, err = codec.NewStructural(codec.DefaultConfig()); err != nil {
			return nil, err
		}
	}
	return &DefaultKeyGenerator{structural: c}, nil
}

// ComputeKey returns the 64 character lowercase hex SHA-256 of the identity.
func (g *DefaultKeyGenerator) ComputeKey(owner, method, pkg string, args ...any) (string, error) {
	identity, err := g.Identity(owner, method, pkg, args...)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(identity)
	return hex.EncodeToString(sum[:]), nil
}

// Identity returns the canonical text that ComputeKey hashes.
func (g *DefaultKeyGenerator) Identity(owner, method, pkg string, args ...any) ([]byte, error) {
	doc := codec.NewDocument(3 + len(args)).
		Set("class", owner).
		Set("methodName", method).
		Set("package", pkg)
	for i, arg := range args {
		doc.Set(strconv.Itoa(i), arg)
	}

	out, err := g.structural.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("cache: key for %s.%s: %w", owner, method, err)
	}
	return out, nil
}

// KeyFor computes the key of a method on owner, deriving the class name and
// package from owner's Go type.
func (g *DefaultKeyGenerator) KeyFor(owner any, method string, args ...any) (string, error) {
	t := reflect.TypeOf(owner)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return g.ComputeKey(codec.TypeName(t), method, packageOf(t), args...)
}

func packageOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.PkgPath()
}
