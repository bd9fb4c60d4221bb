// internal/driver/escpos/text.go
package escpos

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"printer-bridge/internal/document"
)

var cjkEncodings = map[document.CJKCharacter]encoding.Encoding{
	document.CJKJapanese:           japanese.ShiftJIS,
	document.CJKSimplifiedChinese:  simplifiedchinese.GBK,
	document.CJKTraditionalChinese: traditionalchinese.Big5,
	document.CJKKorean:             korean.EUCKR,
}

var defaultCJKPriority = []document.CJKCharacter{
	document.CJKJapanese,
	document.CJKSimplifiedChinese,
	document.CJKTraditionalChinese,
	document.CJKKorean,
}

// textEncoder converts UTF-8 text into printer bytes. Characters are tried
// against the single byte code table first, then against the CJK double byte
// encodings in priority order; anything else prints as '?'.
type textEncoder struct {
	codePage *charmap.Charmap
	second   document.CharacterEncoding
	priority []document.CJKCharacter
}

func newTextEncoder() textEncoder {
	return textEncoder{
		codePage: charmap.CodePage858,
		second:   document.EncodingCodePage,
		priority: defaultCJKPriority,
	}
}

// order returns the CJK encodings to try, the second priority encoding first
func (t textEncoder) order() []encoding.Encoding {
	seen := make(map[document.CJKCharacter]bool, len(cjkEncodings))
	out := make([]encoding.Encoding, 0, len(cjkEncodings))

	add := func(c document.CJKCharacter) {
		if enc, ok := cjkEncodings[c]; ok && !seen[c] {
			seen[c] = true
			out = append(out, enc)
		}
	}

	if t.second != document.EncodingCodePage {
		add(document.CJKCharacter(t.second))
	}
	for _, c := range t.priority {
		add(c)
	}
	return out
}

func (t textEncoder) encode(s string) []byte {
	out := make([]byte, 0, len(s))
	cjk := t.order()
	kanji := false

	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}

		if b, ok := t.codePage.EncodeRune(r); ok {
			if kanji {
				out = append(out, codes.KanjiOff...)
				kanji = false
			}
			out = append(out, b)
			continue
		}

		if encoded := encodeCJK(cjk, r); encoded != nil {
			if !kanji {
				out = append(out, codes.KanjiOn...)
				kanji = true
			}
			out = append(out, encoded...)
			continue
		}

		out = append(out, '?')
	}

	if kanji {
		out = append(out, codes.KanjiOff...)
	}
	return out
}

func encodeCJK(encodings []encoding.Encoding, r rune) []byte {
	for _, enc := range encodings {
		b, err := enc.NewEncoder().Bytes([]byte(string(r)))
		if err == nil && len(b) > 0 {
			return b
		}
	}
	return nil
}
