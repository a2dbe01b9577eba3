package resource_test

import (
	"testing"

	"github.com/joeycumines/go-zerokernel/resource"
	"github.com/stretchr/testify/assert"
)

func TestObtainThenReleaseRoundTrip(t *testing.T) {
	var b resource.Bitmap

	assert.True(t, b.Obtain(resource.Spi))
	assert.True(t, b.Held(resource.Spi))

	b.Release(resource.Spi)
	assert.False(t, b.Held(resource.Spi))
}

func TestDoubleObtainFails(t *testing.T) {
	var b resource.Bitmap

	assert.True(t, b.Obtain(resource.I2c))
	assert.False(t, b.Obtain(resource.I2c), "a resource already held must fail loudly, not block")
}

func TestIndependentResourcesDoNotInterfere(t *testing.T) {
	var b resource.Bitmap

	assert.True(t, b.Obtain(resource.UsartRx0))
	assert.True(t, b.Obtain(resource.UsartTx0))
	assert.True(t, b.Held(resource.UsartRx0))
	assert.True(t, b.Held(resource.UsartTx0))
}

func TestReleaseWithoutObtainIsNoOp(t *testing.T) {
	var b resource.Bitmap
	assert.NotPanics(t, func() { b.Release(resource.Adc) })
	assert.False(t, b.Held(resource.Adc))
}
