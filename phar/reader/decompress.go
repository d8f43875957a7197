package reader

import (
	"github.com/indrora/phar/phar/format"
	"github.com/pkg/errors"
)

func (r *Reader) decompress(raw []byte, entry *format.Entry) ([]byte, error) {

	switch compression := entry.Compression(); compression {
	case format.COMPRESSION_NONE:
		return raw, nil // stored = passthru
	case format.COMPRESSION_GZ:
		content, err := r.inflater.Inflate(raw, entry.UncompressedSize)
		if err != nil {
			return nil, errors.Wrapf(format.ErrMalformedEntry, "%q: %v", entry.Name, err)
		}
		if uint64(len(content)) != uint64(entry.UncompressedSize) {
			return nil, errors.Wrapf(format.ErrMalformedEntry, "%q inflated to %d bytes, header says %d",
				entry.Name, len(content), entry.UncompressedSize)
		}
		return content, nil
	default:
		return nil, errors.Wrapf(format.ErrUnsupportedCompression, "%q uses %s", entry.Name, compression)
	}

}
