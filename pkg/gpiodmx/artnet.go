package gpiodmx

import "github.com/jsimonetti/go-artnet/packet"

// AnyPortAddress makes ApplyArtDMX accept packets for every universe.
const AnyPortAddress = -1

// ApplyArtDMX copies the data of an ArtDMX packet into channels
// 1..Length of u. Packets whose port address (Net<<8 | SubUni) differs
// from portAddress are ignored, unless portAddress is AnyPortAddress.
// It reports whether the packet was applied.
func ApplyArtDMX(u *Universe, p *packet.ArtDMXPacket, portAddress int) bool {
	if portAddress != AnyPortAddress && portAddress != PortAddress(p) {
		return false
	}
	n := min(int(p.Length), len(p.Data))
	u.SetChannels(1, p.Data[:n])
	return true
}

// PortAddress returns the 15-bit Art-Net port address of p.
func PortAddress(p *packet.ArtDMXPacket) int {
	return int(p.Net&0x7f)<<8 | int(p.SubUni)
}
