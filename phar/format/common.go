package format

import (
	"fmt"
)

/*

Layout of a PHAR archive:

	stub ... __HALT_COMPILER(); [ ?>[\r]\n]
	manifest: u32 length, u32 entry count, 2 byte packed version,
	          u32 flags, u32 alias length, alias, u32 metadata length, metadata
	entry headers, one per entry
	entry payloads, in header order
	[signature trailer]

All integers are little endian.

*/

const (
	HALT_COMPILER_STRING = "__HALT_COMPILER();"

	// Smallest manifest that can hold its own fixed fields.
	MANIFEST_MIN_LENGTH = 10

	SIGNATURE_MAGIC_STRING = "GBMB"
)

var (
	HALT_COMPILER_BYTES   = []byte(HALT_COMPILER_STRING)
	SIGNATURE_MAGIC_BYTES = []byte(SIGNATURE_MAGIC_STRING)
)

// Wrapper containers that are recognised but never decoded.
var (
	MAGIC_ZIP   = []byte{0x50, 0x4B, 0x03, 0x04}
	MAGIC_GZIP  = []byte{0x1F, 0x8B, 0x08}
	MAGIC_BZIP2 = []byte{0x42, 0x5A, 0x68}
)

type ManifestFlags uint32

const (
	MANIFEST_FLAG_SIGNATURE ManifestFlags = 0x00010000
	MANIFEST_FLAG_GZ        ManifestFlags = 0x00001000
	MANIFEST_FLAG_BZ2       ManifestFlags = 0x00002000
)

type EntryFlags uint32

const (
	ENTRY_PERM_MASK        EntryFlags = 0x000001FF
	ENTRY_COMPRESSION_MASK EntryFlags = 0x0000F000

	// Kind bits are never read from the stream; the decoder clears both and
	// sets exactly one.
	ENTRY_KIND_FILE EntryFlags = 0x00100000
	ENTRY_KIND_DIR  EntryFlags = 0x00200000
	ENTRY_KIND_MASK EntryFlags = ENTRY_KIND_FILE | ENTRY_KIND_DIR
)

type CompressionType uint32

const (
	COMPRESSION_NONE  CompressionType = 0x0000
	COMPRESSION_GZ    CompressionType = 0x1000
	COMPRESSION_BZIP2 CompressionType = 0x2000
)

func (c CompressionType) String() string {
	switch c {
	case COMPRESSION_NONE:
		return "none"
	case COMPRESSION_GZ:
		return "deflate"
	case COMPRESSION_BZIP2:
		return "bzip2"
	default:
		return fmt.Sprintf("unknown(0x%04x)", uint32(c))
	}
}

type SignatureAlgorithm uint32

const (
	SIGNATURE_MD5         SignatureAlgorithm = 0x0001
	SIGNATURE_SHA1        SignatureAlgorithm = 0x0002
	SIGNATURE_SHA256      SignatureAlgorithm = 0x0003
	SIGNATURE_SHA512      SignatureAlgorithm = 0x0004
	SIGNATURE_OPENSSL     SignatureAlgorithm = 0x0010
	SIGNATURE_OPENSSL_256 SignatureAlgorithm = 0x0011
	SIGNATURE_OPENSSL_512 SignatureAlgorithm = 0x0012
)

// DigestSize returns the length of the trailer hash for fixed-size algorithms,
// or 0 for the OpenSSL variants which carry their own length.
func (s SignatureAlgorithm) DigestSize() int {
	switch s {
	case SIGNATURE_MD5:
		return 16
	case SIGNATURE_SHA1:
		return 20
	case SIGNATURE_SHA256:
		return 32
	case SIGNATURE_SHA512:
		return 64
	default:
		return 0
	}
}

func (s SignatureAlgorithm) IsOpenSSL() bool {
	return s == SIGNATURE_OPENSSL || s == SIGNATURE_OPENSSL_256 || s == SIGNATURE_OPENSSL_512
}

func (s SignatureAlgorithm) String() string {
	switch s {
	case SIGNATURE_MD5:
		return "MD5"
	case SIGNATURE_SHA1:
		return "SHA1"
	case SIGNATURE_SHA256:
		return "SHA256"
	case SIGNATURE_SHA512:
		return "SHA512"
	case SIGNATURE_OPENSSL:
		return "OpenSSL"
	case SIGNATURE_OPENSSL_256:
		return "OpenSSL_SHA256"
	case SIGNATURE_OPENSSL_512:
		return "OpenSSL_SHA512"
	default:
		return fmt.Sprintf("unknown(0x%04x)", uint32(s))
	}
}

// Version is the archive API version packed into the manifest.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint8
}

// Version from which trailing-slash entries are directories.
var VERSION_DIRECTORIES = Version{1, 1, 1}

// ParseVersion unpacks the two version bytes. The low nibble of the second
// byte is reserved and ignored.
func ParseVersion(b [2]byte) Version {
	word := uint16(b[0])<<8 | uint16(b[1]&0xF0)
	return Version{
		Major: uint8(word >> 12),
		Minor: uint8((word >> 8) & 0xF),
		Patch: uint8((word >> 4) & 0xF),
	}
}

// Compare orders versions lexicographically on (major, minor, patch).
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpUint8(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpUint8(v.Minor, o.Minor)
	default:
		return cmpUint8(v.Patch, o.Patch)
	}
}

func (v Version) AtLeast(o Version) bool {
	return v.Compare(o) >= 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func cmpUint8(a, b uint8) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
