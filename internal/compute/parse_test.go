package compute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "groupagg/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec       string
		wantFields []string
	}{
		{"max:lifeExp", []string{"maxLifeExp"}},
		{"MIN:lifeExp", []string{"minLifeExp"}},
		{"mean:lifeExp", []string{"meanLifeExp"}},
		{"sum:year", []string{"sumYear"}},
		{"median:lifeExp", []string{"medianLifeExp"}},
		{"sd:lifeExp", []string{"sdLifeExp"}},
		{"count", []string{"n"}},
		{"first:country", []string{"firstCountry"}},
		{"linfit:lifeExp:year", []string{"intercept", "slope"}},
		{" linfit : lifeExp : year : 1952 ", []string{"intercept", "slope"}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			fn, err := Parse(tt.spec)
			require.NoError(t, err)
			rec, err := fn(context.Background(), canada(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFields, rec.Names())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, spec := range []string{
		"",
		"max",
		"max:a:b",
		"max:",
		"count:x",
		"linfit:y",
		"linfit:y:x:soon",
		"mode:x",
	} {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestParseList(t *testing.T) {
	fn, err := ParseList([]string{"count", "max:lifeExp"})
	require.NoError(t, err)
	rec, err := fn(context.Background(), canada(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "maxLifeExp"}, rec.Names())

	_, err = ParseList(nil)
	assert.Error(t, err)

	_, err = ParseList([]string{"count", "bogus"})
	assert.Error(t, err)
}
