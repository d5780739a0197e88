package conventions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConvention(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		factor float64
	}{
		{"", "crystallographic", 1.0},
		{"crystallographic", "crystallographic", 1.0},
		{"physics", "physics", 2 * math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c, err := NewConvention(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
			assert.Equal(t, tt.factor, c.Factor())
			assert.Equal(t, tt.want, c.ToMap()["type"])
		})
	}
}

func TestNewConventionUnknown(t *testing.T) {
	_, err := NewConvention("2pi-ish")
	assert.ErrorContains(t, err, "unknown reciprocal convention")
}

func TestRegisterConvention(t *testing.T) {
	RegisterConvention("test-half", func() Convention { return half{} })
	defer delete(conventions, "test-half")

	c, err := NewConvention("test-half")
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Factor())
	assert.Contains(t, Names(), "test-half")
}

type half struct{}

func (half) Name() string                  { return "test-half" }
func (half) Factor() float64               { return 0.5 }
func (half) ToMap() map[string]interface{} { return map[string]interface{}{"type": "test-half"} }
