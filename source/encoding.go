package source

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Character encoding of an input file.  The current-era exports have been seen in both UTF-8 and
// Latin-1, sometimes mixed in one file.

type Encoding string

const (
	// Valid UTF-8 is kept, anything else is taken to be Latin-1.  This is the default.
	EncodingAuto   Encoding = "auto"
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin1"
)

func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8", "UTF-8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "ISO-8859-1":
		return EncodingLatin1, nil
	}
	return "", fmt.Errorf("Unknown encoding %q", s)
}

func (enc Encoding) decode(s string) string {
	switch enc {
	case EncodingUTF8:
		return s
	case EncodingAuto:
		if utf8.ValidString(s) {
			return s
		}
	}
	// ISO-8859-1 maps every byte, decoding cannot fail.
	d, _ := charmap.ISO8859_1.NewDecoder().String(s)
	return d
}
