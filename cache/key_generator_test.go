package cache

import (
	"regexp"
	"testing"

	"github.com/goliatone/go-cache-codec/codec"
	"github.com/goliatone/go-cache-codec/pkg/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyScenario is one entry of testdata/key_scenarios.json
type keyScenario struct {
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	Method      string `json:"method"`
	Package     string `json:"package"`
	Args        []any  `json:"args"`
	Identity    string `json:"identity"`
	ExpectedKey string `json:"expectedKey"`
}

type keyFixtures struct {
	Scenarios []keyScenario `json:"scenarios"`
}

var hexKey = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newTestKeyGenerator(t *testing.T) *DefaultKeyGenerator {
	t.Helper()
	gen, err := NewKeyGenerator(nil)
	require.NoError(t, err)
	return gen
}

func TestKeyGenerator_Scenarios(t *testing.T) {
	gen := newTestKeyGenerator(t)

	var fixtures keyFixtures
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("key_scenarios.json"), &fixtures)
	require.NotEmpty(t, fixtures.Scenarios)

	for _, sc := range fixtures.Scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			identity, err := gen.Identity(sc.Owner, sc.Method, sc.Package, sc.Args...)
			require.NoError(t, err)
			assert.Equal(t, sc.Identity, string(identity))

			key, err := gen.ComputeKey(sc.Owner, sc.Method, sc.Package, sc.Args...)
			require.NoError(t, err)
			assert.Equal(t, sc.ExpectedKey, key)
		})
	}
}

func TestKeyGenerator_Determinism(t *testing.T) {
	gen := newTestKeyGenerator(t)

	first, err := gen.ComputeKey("pkg.Service", "findById", "pkg", 42)
	require.NoError(t, err)
	second, err := gen.ComputeKey("pkg.Service", "findById", "pkg", 42)
	require.NoError(t, err)
	other, err := gen.ComputeKey("pkg.Service", "findById", "pkg", 43)
	require.NoError(t, err)

	assert.Regexp(t, hexKey, first)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
}

func TestKeyGenerator_StructuralEquality(t *testing.T) {
	gen := newTestKeyGenerator(t)

	type filter struct {
		Status string            `json:"status"`
		Limit  int               `json:"limit"`
		Labels map[string]string `json:"labels"`
	}

	a := &filter{Status: "active", Limit: 10, Labels: map[string]string{"x": "1", "y": "2"}}
	b := &filter{Status: "active", Limit: 10, Labels: map[string]string{"y": "2", "x": "1"}}

	keyA, err := gen.ComputeKey("pkg.Service", "list", "pkg", a)
	require.NoError(t, err)
	keyB, err := gen.ComputeKey("pkg.Service", "list", "pkg", b)
	require.NoError(t, err)
	assert.Equal(t, keyA, keyB)

	b.Limit = 11
	keyC, err := gen.ComputeKey("pkg.Service", "list", "pkg", b)
	require.NoError(t, err)
	assert.NotEqual(t, keyA, keyC)
}

func TestKeyGenerator_IdentityComponents(t *testing.T) {
	gen := newTestKeyGenerator(t)
	base, err := gen.ComputeKey("pkg.Service", "find", "pkg", "a")
	require.NoError(t, err)

	tests := []struct {
		name   string
		owner  string
		method string
		pkg    string
		args   []any
	}{
		{name: "owner", owner: "pkg.Other", method: "find", pkg: "pkg", args: []any{"a"}},
		{name: "method", owner: "pkg.Service", method: "get", pkg: "pkg", args: []any{"a"}},
		{name: "package", owner: "pkg.Service", method: "find", pkg: "other", args: []any{"a"}},
		{name: "argument count", owner: "pkg.Service", method: "find", pkg: "pkg", args: []any{"a", nil}},
		{name: "argument type", owner: "pkg.Service", method: "find", pkg: "pkg", args: []any{[]string{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := gen.ComputeKey(tt.owner, tt.method, tt.pkg, tt.args...)
			require.NoError(t, err)
			assert.NotEqual(t, base, key)
		})
	}
}

type userService struct{}

func TestKeyGenerator_KeyFor(t *testing.T) {
	gen := newTestKeyGenerator(t)

	viaOwner, err := gen.KeyFor(&userService{}, "GetByID", "42")
	require.NoError(t, err)

	explicit, err := gen.ComputeKey("github.com/goliatone/go-cache-codec/cache.userService", "GetByID", "github.com/goliatone/go-cache-codec/cache", "42")
	require.NoError(t, err)

	assert.Equal(t, explicit, viaOwner)
}

func TestKeyGenerator_UnsupportedArgument(t *testing.T) {
	gen := newTestKeyGenerator(t)

	_, err := gen.ComputeKey("pkg.Service", "find", "pkg", func() {})
	assert.ErrorIs(t, err, codec.ErrUnsupportedType)
}
