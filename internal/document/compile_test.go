package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-bridge/internal/apperror"
)

func build(t *testing.T, raw interface{}) *Sequence {
	t.Helper()
	seq, err := NewBuilder(DefaultMaxAddDepth).Build(raw)
	require.NoError(t, err)
	return seq
}

func TestCompileDrawerChannelTwo(t *testing.T) {
	seq := build(t, map[string]interface{}{
		"contents": []interface{}{
			map[string]interface{}{"type": "drawer", "data": map[string]interface{}{"channel": "no2"}},
		},
	})

	require.Equal(t, 1, seq.Len())
	assert.Equal(t, OpenDrawer{Channel: 2, OnTime: 0}, seq.Commands[0])
}

func TestCompileFeedLineDefault(t *testing.T) {
	seq := build(t, printDoc(act("feedLine")))

	require.Equal(t, 1, seq.Len())
	block := seq.Commands[0].(PrinterBlock)
	assert.Equal(t, []Command{FeedLines{Lines: 1}}, block.Commands)
}

func TestCompilePreservesOrderAndGroups(t *testing.T) {
	seq := build(t, printDoc(
		act("style", "alignment", "center"),
		act("add", "data", map[string]interface{}{"actions": []interface{}{
			act("style", "bold", true, "magnification", map[string]interface{}{"width": 2.0, "height": 2.0}),
			act("printText", "text", "TOTAL"),
		}}),
		act("printText", "text", "thanks"),
		act("cut", "type", "full"),
	))

	block := seq.Commands[0].(PrinterBlock)
	assert.Equal(t, []Command{
		SetAlignment{Alignment: AlignmentCenter},
		Group{Commands: []Command{
			SetBold{Enabled: true},
			SetMagnification{Width: 2, Height: 2},
			Text{Text: "TOTAL"},
		}},
		Text{Text: "thanks"},
		Cut{Type: CutFull},
	}, block.Commands)
}

func TestCompileResolvesParameterDefaults(t *testing.T) {
	seq := build(t, printDoc(
		act("printBarcode", "content", "0123456789", "symbology", "code128"),
		act("printPdf417", "content", "pdf"),
		act("printQRCode", "content", "https://example.com"),
		act("printRuledLine", "width", 72.0),
	))

	block := seq.Commands[0].(PrinterBlock)
	assert.Equal(t, Barcode{
		Content:       "0123456789",
		Symbology:     SymbologyCode128,
		BarDots:       DefaultBarcodeBarDots,
		BarRatioLevel: BarRatioLevel0,
		HeightMM:      DefaultBarcodeHeightMM,
	}, block.Commands[0])
	assert.Equal(t, PDF417{Content: "pdf", Module: 3, Aspect: 2, Level: PDF417ECC0}, block.Commands[1])
	assert.Equal(t, QRCode{Content: "https://example.com", Model: QRModel2, Level: QRLevelL, CellSize: 3}, block.Commands[2])
	assert.Equal(t, RuledLine{WidthMM: 72, ThicknessMM: DefaultRuledThicknessMM, Style: LineSingle}, block.Commands[3])
}

func TestCompileDisplay(t *testing.T) {
	seq := build(t, map[string]interface{}{
		"contents": []interface{}{map[string]interface{}{
			"type": "display",
			"data": map[string]interface{}{"actions": []interface{}{
				act("clearAll"),
				act("setContrast", "data", "plus1"),
				act("showText", "data", "Hello"),
			}},
		}},
	})

	assert.Equal(t, DisplayBlock{Commands: []Command{
		DisplayClearAll{},
		DisplayContrast{Contrast: ContrastPlus1},
		DisplayText{Text: "Hello"},
	}}, seq.Commands[0])
}

func TestCompileIsDeterministic(t *testing.T) {
	raw := map[string]interface{}{
		"contents": []interface{}{
			map[string]interface{}{"type": "drawer", "data": map[string]interface{}{}},
			printDoc(
				act("style", "horizontalTabPosition", []interface{}{8.0, 16.0}, "cjkCharacterPriority", []interface{}{"japanese"}),
				nestAdds(5, act("printText", "text", "x")),
				act("feed", "height", 3.5),
			)["contents"].([]interface{})[0],
		},
	}

	first := build(t, raw)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, build(t, raw))
	}
}

func TestCompileDepthBoundOnTypedDocuments(t *testing.T) {
	var node Action = PrintTextAction{Text: "x"}
	for i := 0; i < 3; i++ {
		node = AddAction{Actions: []Action{node}}
	}
	doc := &Document{Contents: []Content{PrintContent{Actions: []Action{node}}}}

	_, err := NewBuilder(2).Compile(doc)
	assert.ErrorIs(t, err, apperror.ErrCommandCompileFailure)

	seq, err := NewBuilder(3).Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Len())
}

func TestCompileNilDocument(t *testing.T) {
	_, err := Compile(nil)
	assert.ErrorIs(t, err, apperror.ErrCommandCompileFailure)
}

func TestCompileFailureEmitsNothing(t *testing.T) {
	seq, err := NewBuilder(DefaultMaxAddDepth).Build(printDoc(
		act("printText", "text", "ok"),
		act("printText"),
	))
	assert.Nil(t, seq)
	assert.Error(t, err)
}

func TestDrawerChannelNumberAndContrastLevel(t *testing.T) {
	assert.Equal(t, 1, DrawerNo1.Number())
	assert.Equal(t, 2, DrawerNo2.Number())
	assert.Equal(t, -3, ContrastMinus3.Level())
	assert.Equal(t, 0, ContrastDefault.Level())
	assert.Equal(t, 3, ContrastPlus3.Level())
}
