package escpos

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-bridge/internal/document"
)

func newTestEncoder() *Encoder {
	return NewEncoder(NewUnits(8), 72)
}

func printBlock(cmds ...document.Command) *document.Sequence {
	return &document.Sequence{Commands: []document.Command{document.PrinterBlock{Commands: cmds}}}
}

// blockPrefix is what every printer block starts with
var blockPrefix = []byte{esc, 0x40, esc, 0x74, codeTablePC858}

func encodeBlock(t *testing.T, cmds ...document.Command) []byte {
	t.Helper()
	out, err := newTestEncoder().Encode(printBlock(cmds...))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, blockPrefix))
	return out[len(blockPrefix):]
}

func TestEncodeDrawer(t *testing.T) {
	seq := &document.Sequence{Commands: []document.Command{
		document.OpenDrawer{Channel: 2, OnTime: 0},
		document.OpenDrawer{Channel: 1, OnTime: 100},
	}}

	out, err := newTestEncoder().Encode(seq)
	require.NoError(t, err)
	assert.Equal(t, []byte{esc, 0x70, 1, 25, 25, esc, 0x70, 0, 50, 50}, out)
}

func TestEncodeStyleCommands(t *testing.T) {
	out := encodeBlock(t,
		document.SetAlignment{Alignment: document.AlignmentCenter},
		document.SetBold{Enabled: true},
		document.SetMagnification{Width: 2, Height: 3},
		document.SetFont{Font: document.FontB},
		document.SetInternationalCharacter{Character: document.CharacterGermany},
	)

	assert.Equal(t, []byte{
		esc, 0x61, 1,
		esc, 0x45, 1,
		gs, 0x21, 0x12,
		esc, 0x4D, 1,
		esc, 0x52, 2,
	}, out)
}

func TestEncodeGroupRestoresStyle(t *testing.T) {
	out := encodeBlock(t,
		document.SetAlignment{Alignment: document.AlignmentRight},
		document.Group{Commands: []document.Command{
			document.SetBold{Enabled: true},
			document.SetAlignment{Alignment: document.AlignmentCenter},
			document.Text{Text: "x"},
		}},
		document.Text{Text: "y"},
	)

	assert.Equal(t, []byte{
		esc, 0x61, 2,
		esc, 0x45, 1,
		esc, 0x61, 1,
		'x',
		esc, 0x61, 2, // alignment back to right
		esc, 0x45, 0, // bold off
		'y',
	}, out)
}

func TestEncodeGroupWithoutChangesEmitsNothing(t *testing.T) {
	out := encodeBlock(t, document.Group{Commands: []document.Command{document.Text{Text: "a"}}})
	assert.Equal(t, []byte("a"), out)
}

func TestEncodeFeedAndCut(t *testing.T) {
	out := encodeBlock(t,
		document.Feed{MM: 10},
		document.Feed{MM: 40},
		document.FeedLines{Lines: 1},
		document.Cut{Type: document.CutPartial},
		document.Cut{Type: document.CutFull},
		document.Cut{Type: document.CutFullDirect},
	)

	assert.Equal(t, []byte{
		esc, 0x4A, 80,
		esc, 0x4A, 255, esc, 0x4A, 65,
		esc, 0x64, 1,
		gs, 0x56, 66, 0,
		gs, 0x56, 65, 0,
		gs, 0x56, 0,
	}, out)
}

func TestEncodeTabsAndPositions(t *testing.T) {
	out := encodeBlock(t,
		document.SetTabPositions{Positions: []int{4, 2, 10, 300}},
		document.HorizontalPositionTo{MM: 2},
		document.HorizontalPositionBy{MM: -1},
	)

	assert.Equal(t, []byte{
		esc, 0x44, 4, 10, nul,
		esc, 0x24, 16, 0,
		esc, 0x5C, 0xF8, 0xFF,
	}, out)
}

func TestEncodeBarcode(t *testing.T) {
	out := encodeBlock(t, document.Barcode{
		Content:       "123",
		Symbology:     document.SymbologyCode128,
		PrintHRI:      true,
		BarDots:       2,
		BarRatioLevel: document.BarRatioLevelPlus1,
		HeightMM:      8,
	})

	assert.Equal(t, []byte{
		gs, 0x48, 2,
		gs, 0x77, 3,
		gs, 0x68, 64,
		gs, 0x6B, 73, 5, '{', 'B', '1', '2', '3',
	}, out)
}

func TestEncodeQRCode(t *testing.T) {
	out := encodeBlock(t, document.QRCode{
		Content:  "hi",
		Model:    document.QRModel2,
		Level:    document.QRLevelM,
		CellSize: 3,
	})

	assert.Equal(t, []byte{
		gs, 0x28, 0x6B, 4, 0, 49, 65, 50, 0,
		gs, 0x28, 0x6B, 3, 0, 49, 67, 3,
		gs, 0x28, 0x6B, 3, 0, 49, 69, 49,
		gs, 0x28, 0x6B, 5, 0, 49, 80, 48, 'h', 'i',
		gs, 0x28, 0x6B, 3, 0, 49, 81, 48,
	}, out)
}

func TestEncodeRuledLine(t *testing.T) {
	out := encodeBlock(t, document.RuledLine{WidthMM: 1, ThicknessMM: 0.125, Style: document.LineSingle})
	assert.Equal(t, []byte{gs, 0x76, 0x30, 0, 1, 0, 1, 0, 0xFF}, out)

	out = encodeBlock(t, document.RuledLine{WidthMM: 1, ThicknessMM: 0.125, Style: document.LineDouble})
	assert.Equal(t, []byte{gs, 0x76, 0x30, 0, 1, 0, 3, 0, 0xFF, 0x00, 0xFF}, out)
}

func TestEncodeLogoPadsKeyCode(t *testing.T) {
	out := encodeBlock(t, document.Logo{KeyCode: "A"})
	assert.Equal(t, []byte{gs, 0x28, 0x4C, 6, 0, 48, 69, 'A', ' ', 1, 1}, out)
}

func TestEncodeImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 2))
	for x := 0; x < 16; x++ {
		img.SetGray(x, 0, color.Gray{Y: 0})
		img.SetGray(x, 1, color.Gray{Y: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out := encodeBlock(t, document.Image{Data: buf.Bytes(), Width: 16})
	assert.Equal(t, []byte{gs, 0x76, 0x30, 0, 2, 0, 2, 0, 0xFF, 0xFF, 0x00, 0x00}, out)
}

func TestEncodeImageRejectsGarbage(t *testing.T) {
	_, err := newTestEncoder().Encode(printBlock(document.Image{Data: []byte("nope"), Width: 10}))
	assert.Error(t, err)
}

func TestEncodeText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []byte
	}{
		{"ascii", "abc\n", []byte("abc\n")},
		{"code page", "café", []byte{'c', 'a', 'f', 0x82}},
		{"euro", "€", []byte{0xD5}},
		{"kanji", "日本", []byte{fs, 0x26, 0x93, 0xFA, 0x96, 0x7B, fs, 0x2E}},
		{"unencodable", "🙂", []byte{'?'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeBlock(t, document.Text{Text: tt.text}))
		})
	}
}

func TestEncodeSecondPriorityEncoding(t *testing.T) {
	out := encodeBlock(t,
		document.SetSecondPriorityEncoding{Encoding: document.EncodingKorean},
		document.Text{Text: "한"},
	)
	// EUC-KR for U+D55C
	assert.Equal(t, []byte{fs, 0x26, 0xC7, 0xD1, fs, 0x2E}, out)
}

func TestEncodeDisplayBlock(t *testing.T) {
	seq := &document.Sequence{Commands: []document.Command{document.DisplayBlock{Commands: []document.Command{
		document.DisplayClearAll{},
		document.DisplayText{Text: "Hi"},
		document.DisplayContrast{Contrast: document.ContrastPlus1},
		document.DisplayClearLine{},
	}}}}

	out, err := newTestEncoder().Encode(seq)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		esc, 0x3D, 2,
		0x0C, 'H', 'i', us, 0x58, 5, 0x18,
		esc, 0x3D, 1,
	}, out)
}

func TestEncodeIsDeterministic(t *testing.T) {
	seq := printBlock(
		document.SetBold{Enabled: true},
		document.Text{Text: "total"},
		document.Group{Commands: []document.Command{document.SetUnderline{Enabled: true}}},
		document.Cut{Type: document.CutPartial},
	)

	first, err := newTestEncoder().Encode(seq)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := newTestEncoder().Encode(seq)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestUnits(t *testing.T) {
	u := NewUnits(8)
	assert.Equal(t, 1, u.Dots(0.125))
	assert.Equal(t, 80, u.Dots(10))
	assert.Equal(t, 4, u.Dots(0.5))
	assert.Equal(t, byte(255), u.ByteDots(100))
	assert.Equal(t, byte(0), u.ByteDots(-1))
	assert.Equal(t, 576, u.PaperDots(72))

	assert.Equal(t, 8, NewUnits(0).Dots(1))
}
