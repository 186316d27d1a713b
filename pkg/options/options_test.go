package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iamNilotpal/bucketkv/internal/format"
)

func TestNewDefaultOptions(t *testing.T) {
	o := NewDefaultOptions()
	assert.Equal(t, DefaultFlag, o.Flag)
	assert.Equal(t, format.LayoutVariable, o.Layout)
	assert.Equal(t, DefaultWriteBufferSize, o.WriteBufferSize)
	assert.Equal(t, DefaultLockTimeout, o.LockTimeout)
}

func TestWithFixedLayout(t *testing.T) {
	o := NewDefaultOptions()
	WithFixedLayout(64)(&o)
	assert.Equal(t, format.LayoutFixed, o.Layout)
	assert.Equal(t, uint32(64), o.FixedValueLen)
}

func TestWithWriteBufferSizeIgnoresTooSmall(t *testing.T) {
	o := NewDefaultOptions()
	WithWriteBufferSize(MinWriteBufferSize - 1)(&o)
	assert.Equal(t, DefaultWriteBufferSize, o.WriteBufferSize, "below-minimum sizes are ignored, not silently applied")

	WithWriteBufferSize(MinWriteBufferSize * 2)(&o)
	assert.Equal(t, MinWriteBufferSize*2, o.WriteBufferSize)
}

func TestWithLockTimeoutIgnoresNonPositive(t *testing.T) {
	o := NewDefaultOptions()
	WithLockTimeout(-1 * time.Second)(&o)
	assert.Equal(t, DefaultLockTimeout, o.LockTimeout)

	WithLockTimeout(2 * time.Second)(&o)
	assert.Equal(t, 2*time.Second, o.LockTimeout)
}

func TestWithFlag(t *testing.T) {
	o := NewDefaultOptions()
	WithFlag(format.FlagRead)(&o)
	assert.Equal(t, format.FlagRead, o.Flag)
}

func TestWithDefaultOptionsResetsOverrides(t *testing.T) {
	o := NewDefaultOptions()
	WithFlag(format.FlagRead)(&o)
	WithDefaultOptions()(&o)
	assert.Equal(t, DefaultFlag, o.Flag, "WithDefaultOptions resets any prior override in the same chain")
}
