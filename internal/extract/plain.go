package extract

import (
	"bytes"
	"unicode/utf8"
)

// extractPlain treats content as UTF-8 text, replacing any invalid byte
// sequences with the replacement character rather than rejecting the file.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		content = bytes.ToValidUTF8(content, []byte("�"))
	}
	return string(content), nil
}
