package pseudonym

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
)

func TestHash_KnownVector(t *testing.T) {
	h, err := Hash("1234567890")
	require.NoError(t, err)
	assert.Equal(t, id.IdentityHandle("c775e7b757ede630cd0aa1113bd102661ab38829ca52a6422ab782862f268646"), h)
}

func TestHash_RejectsBlank(t *testing.T) {
	for _, raw := range []string{"", " ", "\t\n"} {
		_, err := Hash(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestHash_NoNormalization(t *testing.T) {
	a, err := Hash("0102030405")
	require.NoError(t, err)
	b, err := Hash(" 0102030405")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestStaffHandle(t *testing.T) {
	staff, err := StaffHandle("analyst")
	require.NoError(t, err)
	citizen, err := Hash("analyst")
	require.NoError(t, err)
	assert.NotEqual(t, citizen, staff)

	prefixed, err := Hash("staff:analyst")
	require.NoError(t, err)
	assert.Equal(t, prefixed, staff)

	_, err = StaffHandle("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestHash_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	nonBlank := gen.Identifier()

	properties.Property("hashing is deterministic", prop.ForAll(
		func(raw string) bool {
			h1, err1 := Hash(raw)
			h2, err2 := Hash(raw)
			return err1 == nil && err2 == nil && h1 == h2
		},
		nonBlank,
	))

	properties.Property("handles are 64 lowercase hex", prop.ForAll(
		func(raw string) bool {
			h, err := Hash(raw)
			if err != nil {
				return false
			}
			_, err = id.ParseIdentityHandle(h.String())
			return err == nil
		},
		nonBlank,
	))

	properties.Property("distinct inputs give distinct handles", prop.ForAll(
		func(a, b string) bool {
			if a == b {
				return true
			}
			ha, _ := Hash(a)
			hb, _ := Hash(b)
			return ha != hb
		},
		nonBlank,
		nonBlank,
	))

	properties.TestingRun(t)
}
