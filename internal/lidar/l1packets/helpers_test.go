package l1packets

import "encoding/binary"

// rawPacket builds a packet from raw wire values. distances are millimetres.
func rawPacket(speed, start, end, timestamp uint16, distances []uint16, intensities []uint8) RawPacket {
	var p RawPacket
	p[0] = HeaderByte
	p[1] = 0x2c
	binary.LittleEndian.PutUint16(p[2:], speed)
	binary.LittleEndian.PutUint16(p[4:], start)
	for i := 0; i < PointsPerPacket; i++ {
		off := 6 + 3*i
		if i < len(distances) {
			binary.LittleEndian.PutUint16(p[off:], distances[i])
		}
		if i < len(intensities) {
			p[off+2] = intensities[i]
		}
	}
	binary.LittleEndian.PutUint16(p[42:], end)
	binary.LittleEndian.PutUint16(p[44:], timestamp)
	p[46] = 0xab
	return p
}

func anglePacket(start, end uint16) RawPacket {
	return rawPacket(3600, start, end, 1000, nil, nil)
}
