package tobi

import (
	"strings"
)

// IndexFile is served for directory targets and for request lines without a path.
const IndexFile = "index.html"

// ResolvePath maps the request target found in firstLine to a filesystem
// path under root.
//
// Rules, in order:
//   - a target that still contains "HTTP" (no path was given) resolves to
//     the root index file
//   - every valid %XX escape in the target is decoded; malformed escapes
//     are kept as sent
//   - everything from the first "?" of the decoded target is dropped
//   - a target that ended in "/" as sent gets IndexFile appended
//
// No canonicalisation happens here: "../" segments survive and must be
// contained by whoever opens the path.
func ResolvePath(root, firstLine string) string {
	base := strings.TrimSuffix(root, "/")

	target := requestTarget(firstLine)
	if strings.Contains(target, "HTTP") {
		return base + "/" + IndexFile
	}

	decoded := unescape(target)

	if i := strings.IndexByte(decoded, '?'); i >= 0 {
		decoded = decoded[:i]
	}

	if strings.HasSuffix(target, "/") {
		return base + decoded + IndexFile
	}

	return base + decoded
}

func requestTarget(firstLine string) string {
	tokens := strings.Split(firstLine, " ")
	if len(tokens) < 2 {
		return ""
	}
	return tokens[1]
}

// unescape decodes each "%XX" with two hex digits and copies anything else
// through unchanged. Byte sequences that do not form valid UTF-8 after
// decoding are replaced with U+FFFD.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			out = append(out, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		out = append(out, s[i])
	}

	return strings.ToValidUTF8(string(out), "\uFFFD")
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
