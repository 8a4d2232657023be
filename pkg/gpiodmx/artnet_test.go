package gpiodmx

import (
	"testing"

	"github.com/jsimonetti/go-artnet/packet"
	"github.com/stretchr/testify/assert"
)

func newArtDMX(net, subUni uint8, data ...byte) *packet.ArtDMXPacket {
	p := packet.NewArtDMXPacket()
	p.Net = net
	p.SubUni = subUni
	p.Length = uint16(len(data))
	copy(p.Data[:], data)
	return p
}

func TestApplyArtDMX(t *testing.T) {
	t.Parallel()

	u := NewUniverse(Capacity512)
	ok := ApplyArtDMX(u, newArtDMX(0, 0, 10, 20, 30), AnyPortAddress)

	assert.True(t, ok)
	assert.Equal(t, byte(10), u.Read(1))
	assert.Equal(t, byte(20), u.Read(2))
	assert.Equal(t, byte(30), u.Read(3))
	assert.Equal(t, 16, u.MaxChannel())
}

func TestApplyArtDMXFullUniverseGrowsCount(t *testing.T) {
	t.Parallel()

	data := make([]byte, 512)
	data[511] = 7
	u := NewUniverse(Capacity512)

	assert.True(t, ApplyArtDMX(u, newArtDMX(0, 0, data...), AnyPortAddress))
	assert.Equal(t, 512, u.MaxChannel())
	assert.Equal(t, byte(7), u.Read(512))
}

func TestApplyArtDMXPortFilter(t *testing.T) {
	t.Parallel()

	u := NewUniverse(Capacity512)
	p := newArtDMX(1, 0x23, 99)
	assert.Equal(t, 0x123, PortAddress(p))

	assert.False(t, ApplyArtDMX(u, p, 0))
	assert.Equal(t, byte(0), u.Read(1))

	assert.True(t, ApplyArtDMX(u, p, 0x123))
	assert.Equal(t, byte(99), u.Read(1))
}

func TestApplyArtDMXSmallUniverse(t *testing.T) {
	t.Parallel()

	u := NewUniverse(Capacity128)
	data := make([]byte, 200)
	for i := range data {
		data[i] = 1
	}

	ApplyArtDMX(u, newArtDMX(0, 0, data...), AnyPortAddress)
	assert.Equal(t, 128, u.MaxChannel())
	assert.Equal(t, byte(1), u.Read(128))
}
