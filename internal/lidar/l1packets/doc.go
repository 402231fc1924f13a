// Package l1packets owns Layer 1 (Packets) of the LiDAR data model.
//
// Responsibilities: synchronising to 0x54-headed packets in an unframed serial
// byte stream, and decoding each 47-byte packet into a MeasurementFrame of 12
// angle/distance/intensity samples. This layer produces frames consumed by L2
// (Frames).
//
// There is no length field and no checksum check. A 0x54 byte inside a payload
// is indistinguishable from a header, so a corrupted stream can frame a bogus
// packet; it is decoded as-is and the synchroniser recovers on the next header.
//
// Dependency rule: L1 has no inward dependencies on higher layers.
package l1packets
