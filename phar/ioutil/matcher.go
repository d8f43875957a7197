package ioutil

// HasPrefix reports whether buf starts with prefix. A buffer shorter than the
// prefix never matches.
func HasPrefix(buf []byte, prefix []byte) bool {
	if buf == nil || prefix == nil || len(buf) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if buf[i] != b {
			return false
		}
	}
	return true
}

// HasSuffix reports whether buf ends with suffix. It only touches the last
// len(suffix) bytes so it can be called after every append.
func HasSuffix(buf []byte, suffix []byte) bool {
	if buf == nil || suffix == nil || len(buf) < len(suffix) {
		return false
	}
	tail := buf[len(buf)-len(suffix):]
	for i, b := range suffix {
		if tail[i] != b {
			return false
		}
	}
	return true
}
