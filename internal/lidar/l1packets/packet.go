package l1packets

// Wire layout of one packet. All multi-byte fields are little-endian uint16.
const (
	HeaderByte      = 0x54
	PacketSize      = 47
	PayloadSize     = PacketSize - 1
	PointsPerPacket = 12

	offsetVerLen     = 1
	offsetSpeed      = 2
	offsetStartAngle = 4
	offsetPoints     = 6
	pointStride      = 3
	offsetEndAngle   = 42
	offsetTimestamp  = 44
	offsetCRC        = 46
)

// Fixed-point scales.
const (
	speedScale     = 100.0  // centidegrees/s -> deg/s
	angleScale     = 100.0  // centidegrees -> deg
	distanceScale  = 1000.0 // mm -> m
	timestampScale = 1000.0 // ms -> s
)

// RawPacket is one framed packet: the header byte followed by the payload.
type RawPacket [PacketSize]byte

// PointSample is one LiDAR return.
type PointSample struct {
	AngleDeg  float64 `json:"angle_deg"`
	DistanceM float64 `json:"distance_m"`
	Intensity uint8   `json:"intensity"`
}

// MeasurementFrame is the decoded content of one packet. Points are in packet
// order, which is increasing angle modulo the 0/360 wrap.
type MeasurementFrame struct {
	// VerLen is the raw version/length byte. It is not interpreted.
	VerLen         uint8                        `json:"ver_len"`
	SpeedDegPerSec float64                      `json:"speed_deg_per_s"`
	StartAngleDeg  float64                      `json:"start_angle_deg"`
	EndAngleDeg    float64                      `json:"end_angle_deg"`
	TimestampS     float64                      `json:"timestamp_s"`
	Points         [PointsPerPacket]PointSample `json:"points"`
	// CRC is the raw trailing byte. It is never verified.
	CRC uint8 `json:"crc"`
}
