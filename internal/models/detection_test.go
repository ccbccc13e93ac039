package models

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetection_Centroid(t *testing.T) {
	d := Detection{Box: image.Rect(10, 20, 50, 60)}
	c := d.Centroid()
	assert.Equal(t, 30.0, c.X)
	assert.Equal(t, 40.0, c.Y)
}

func TestDetection_Validate(t *testing.T) {
	d := Detection{Score: 0.9, Box: image.Rect(10, 10, 50, 50)}
	require.NoError(t, d.Validate(640, 480))
	assert.Equal(t, image.Rect(10, 10, 50, 50), d.Box)
}

func TestDetection_ValidateClampsOverhang(t *testing.T) {
	d := Detection{Score: 0.9, Box: image.Rect(600, 10, 700, 50)}
	require.NoError(t, d.Validate(640, 480))
	assert.Equal(t, image.Rect(600, 10, 640, 50), d.Box)
}

func TestDetection_ValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		det  Detection
	}{
		{"negative score", Detection{Score: -0.1, Box: image.Rect(10, 10, 50, 50)}},
		{"score above one", Detection{Score: 1.1, Box: image.Rect(10, 10, 50, 50)}},
		{"empty box", Detection{Score: 0.5, Box: image.Rect(10, 10, 10, 50)}},
		{"entirely outside", Detection{Score: 0.5, Box: image.Rect(700, 10, 750, 50)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.det
			assert.Error(t, d.Validate(640, 480))
		})
	}
}

func TestCountLine_Endpoints(t *testing.T) {
	l := CountLine{ID: "main", X1: 0.5, Y1: 0, X2: 0.5, Y2: 1}
	a, b := l.Endpoints(1280, 720)
	assert.Equal(t, 640.0, a.X)
	assert.Equal(t, 0.0, a.Y)
	assert.Equal(t, 640.0, b.X)
	assert.Equal(t, 720.0, b.Y)
}
