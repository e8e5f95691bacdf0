package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		0:          0,
		1.005:      1.01,
		12.344:     12.34,
		12.345:     12.35,
		12.346:     12.35,
		-3.456:     -3.46,
		1031.66666: 1031.67,
	}
	for in, want := range cases {
		assert.Equal(t, want, Round2(in), "Round2(%v)", in)
	}
}
