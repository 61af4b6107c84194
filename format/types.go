package format

type (
	EncodingType    uint8
	ContainerType   uint8
	CompressionType uint8
)

const (
	EncodingRaw        EncodingType = 0x1 // EncodingRaw represents an uncompressed node payload.
	EncodingCompressed EncodingType = 0x2 // EncodingCompressed represents a codec-compressed node payload.

	ContainerNone   ContainerType = 0x1 // ContainerNone represents a node without a payload container.
	ContainerPacked ContainerType = 0x2 // ContainerPacked represents a packed-segment payload container.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (e EncodingType) String() string {
	switch e {
	case EncodingRaw:
		return "Raw"
	case EncodingCompressed:
		return "Compressed"
	default:
		return "Unknown"
	}
}

func (c ContainerType) String() string {
	switch c {
	case ContainerNone:
		return "None"
	case ContainerPacked:
		return "Packed"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
