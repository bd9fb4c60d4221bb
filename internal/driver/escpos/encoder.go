// internal/driver/escpos/encoder.go
package escpos

import (
	"bytes"
	"fmt"

	"printer-bridge/internal/document"
)

// Defaults that apply when a document does not set them
const (
	DefaultPaperWidthMM = 72
	defaultDrawerPulse  = 25 // 50ms, in 2ms units
	displayWidthDots    = 160
	maxTabPositions     = 32
)

// style is the printer's formatting state as far as the encoder has changed
// it. Groups snapshot it and restore the differences when they end.
type style struct {
	alignment     document.Alignment
	font          document.FontType
	bold          bool
	invert        bool
	underline     bool
	magWidth      int
	magHeight     int
	charSpace     byte
	lineSpace     int // -1 is the printer default
	international document.InternationalCharacter
	tabs          []int // nil is the printer default
	text          textEncoder
}

func defaultStyle() style {
	return style{
		alignment:     document.AlignmentLeft,
		font:          document.FontA,
		magWidth:      1,
		magHeight:     1,
		lineSpace:     -1,
		international: document.CharacterUSA,
		text:          newTextEncoder(),
	}
}

// Encoder turns compiled command sequences into ESC/POS bytes
type Encoder struct {
	units     Units
	paperDots int
}

// NewEncoder creates an encoder for the given paper width
func NewEncoder(units Units, paperWidthMM int) *Encoder {
	if paperWidthMM <= 0 {
		paperWidthMM = DefaultPaperWidthMM
	}
	return &Encoder{
		units:     units,
		paperDots: units.PaperDots(paperWidthMM),
	}
}

// Encode renders seq. It fails only on content that cannot be rendered, such
// as an undecodable image.
func (e *Encoder) Encode(seq *document.Sequence) ([]byte, error) {
	if seq == nil {
		return nil, nil
	}

	w := &writer{enc: e, style: defaultStyle()}
	for i, cmd := range seq.Commands {
		if err := w.top(cmd); err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", i, cmd.Kind(), err)
		}
	}
	return w.buf.Bytes(), nil
}

type writer struct {
	enc   *Encoder
	buf   bytes.Buffer
	style style
}

func (w *writer) emit(prefix []byte, params ...byte) {
	w.buf.Write(prefix)
	w.buf.Write(params)
}

func (w *writer) top(cmd document.Command) error {
	switch c := cmd.(type) {
	case document.OpenDrawer:
		w.drawer(c)
	case document.PrinterBlock:
		w.emit(codes.Initialize)
		w.emit(codes.CodeTable, codeTablePC858)
		w.style = defaultStyle()
		return w.printCommands(c.Commands)
	case document.DisplayBlock:
		w.emit(codes.SelectDisplay)
		err := w.displayCommands(c.Commands)
		w.emit(codes.SelectPrinter)
		return err
	default:
		return fmt.Errorf("unexpected top level command %s", cmd.Kind())
	}
	return nil
}

func (w *writer) drawer(c document.OpenDrawer) {
	pin := byte(0)
	if c.Channel == 2 {
		pin = 1
	}
	pulse := byte(defaultDrawerPulse)
	if c.OnTime > 0 {
		pulse = clampByte(c.OnTime / 2)
	}
	w.emit(codes.DrawerKick, pin, pulse, pulse)
}

func (w *writer) printCommands(cmds []document.Command) error {
	for _, cmd := range cmds {
		if err := w.printCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) printCommand(cmd document.Command) error {
	u := w.enc.units

	switch c := cmd.(type) {
	case document.Group:
		saved := w.style
		if err := w.printCommands(c.Commands); err != nil {
			return err
		}
		w.restore(saved)

	case document.SetAlignment:
		w.setAlignment(c.Alignment)
	case document.SetFont:
		w.setFont(c.Font)
	case document.SetBold:
		w.setBold(c.Enabled)
	case document.SetInvert:
		w.setInvert(c.Enabled)
	case document.SetUnderline:
		w.setUnderline(c.Enabled)
	case document.SetMagnification:
		w.setMagnification(c.Width, c.Height)
	case document.SetCharacterSpace:
		w.setCharSpace(u.ByteDots(c.MM))
	case document.SetLineSpace:
		w.setLineSpace(int(u.ByteDots(c.MM)))
	case document.HorizontalPositionTo:
		w.emit(codes.AbsolutePosition, le16(clamp(u.Dots(c.MM), 0, 0xFFFF))...)
	case document.HorizontalPositionBy:
		w.emit(codes.RelativePosition, le16(clamp(u.Dots(c.MM), -0x8000, 0x7FFF))...)
	case document.SetTabPositions:
		w.setTabs(c.Positions)
	case document.SetInternationalCharacter:
		w.setInternational(c.Character)
	case document.SetSecondPriorityEncoding:
		w.style.text.second = c.Encoding
		if c.Encoding == document.EncodingJapanese {
			w.emit(codes.KanjiCode, 1) // Shift JIS
		}
	case document.SetCJKPriority:
		w.style.text.priority = append([]document.CJKCharacter(nil), c.Priority...)

	case document.Cut:
		w.cut(c.Type)
	case document.Feed:
		w.feedDots(u.Dots(c.MM))
	case document.FeedLines:
		w.feedLines(c.Lines)
	case document.Text:
		w.buf.Write(w.style.text.encode(c.Text))

	case document.Barcode:
		w.barcode(c)
	case document.PDF417:
		w.pdf417(c)
	case document.QRCode:
		w.qrCode(c)
	case document.Image:
		width := c.Width
		if width > w.enc.paperDots {
			width = w.enc.paperDots
		}
		r, err := decodeRaster(c.Data, width)
		if err != nil {
			return err
		}
		w.buf.Write(r.command())
	case document.Logo:
		w.logo(c.KeyCode)
	case document.RuledLine:
		w.ruledLine(c)

	default:
		return fmt.Errorf("unexpected print command %s", cmd.Kind())
	}
	return nil
}

func (w *writer) setAlignment(a document.Alignment) {
	n := byte(0)
	switch a {
	case document.AlignmentCenter:
		n = 1
	case document.AlignmentRight:
		n = 2
	}
	w.emit(codes.Alignment, n)
	w.style.alignment = a
}

func (w *writer) setFont(f document.FontType) {
	n := byte(0)
	if f == document.FontB {
		n = 1
	}
	w.emit(codes.Font, n)
	w.style.font = f
}

func (w *writer) setBold(on bool) {
	w.emit(codes.Bold, flag(on))
	w.style.bold = on
}

func (w *writer) setInvert(on bool) {
	w.emit(codes.Invert, flag(on))
	w.style.invert = on
}

func (w *writer) setUnderline(on bool) {
	w.emit(codes.Underline, flag(on))
	w.style.underline = on
}

func (w *writer) setMagnification(width, height int) {
	width = clamp(width, 1, 8)
	height = clamp(height, 1, 8)
	w.emit(codes.CharacterSize, byte((width-1)<<4|(height-1)))
	w.style.magWidth, w.style.magHeight = width, height
}

func (w *writer) setCharSpace(dots byte) {
	w.emit(codes.CharSpace, dots)
	w.style.charSpace = dots
}

func (w *writer) setLineSpace(dots int) {
	if dots < 0 {
		w.emit(codes.LineSpaceStd)
	} else {
		w.emit(codes.LineSpace, clampByte(dots))
	}
	w.style.lineSpace = dots
}

// setTabs keeps positions that are within 1..255 and strictly ascending
func (w *writer) setTabs(positions []int) {
	valid := make([]int, 0, len(positions))
	last := 0
	for _, p := range positions {
		if p <= last || p > 255 || len(valid) == maxTabPositions {
			continue
		}
		valid = append(valid, p)
		last = p
	}

	w.buf.Write(codes.TabPositions)
	for _, p := range valid {
		w.buf.WriteByte(byte(p))
	}
	w.buf.WriteByte(nul)
	w.style.tabs = valid
}

func (w *writer) setInternational(c document.InternationalCharacter) {
	w.emit(codes.International, internationalSets[string(c)])
	w.style.international = c
}

// restore emits the commands that bring the printer back to saved
func (w *writer) restore(saved style) {
	cur := w.style
	if cur.alignment != saved.alignment {
		w.setAlignment(saved.alignment)
	}
	if cur.font != saved.font {
		w.setFont(saved.font)
	}
	if cur.bold != saved.bold {
		w.setBold(saved.bold)
	}
	if cur.invert != saved.invert {
		w.setInvert(saved.invert)
	}
	if cur.underline != saved.underline {
		w.setUnderline(saved.underline)
	}
	if cur.magWidth != saved.magWidth || cur.magHeight != saved.magHeight {
		w.setMagnification(saved.magWidth, saved.magHeight)
	}
	if cur.charSpace != saved.charSpace {
		w.setCharSpace(saved.charSpace)
	}
	if cur.lineSpace != saved.lineSpace {
		w.setLineSpace(saved.lineSpace)
	}
	if cur.international != saved.international {
		w.setInternational(saved.international)
	}
	if !equalInts(cur.tabs, saved.tabs) || (cur.tabs == nil) != (saved.tabs == nil) {
		if saved.tabs == nil {
			w.setTabs(defaultTabs())
			w.style.tabs = nil
		} else {
			w.setTabs(saved.tabs)
		}
	}
	w.style.text = saved.text
}

func (w *writer) cut(t document.CutType) {
	switch t {
	case document.CutFull:
		w.emit(codes.CutFeed, cutModeFull, 0)
	case document.CutFullDirect:
		w.emit(codes.CutFeed, cutDirectFull)
	case document.CutPartialDirect:
		w.emit(codes.CutFeed, cutDirectPart)
	default:
		w.emit(codes.CutFeed, cutModePartial, 0)
	}
}

func (w *writer) feedDots(dots int) {
	for dots > 0 {
		step := dots
		if step > 255 {
			step = 255
		}
		w.emit(codes.FeedDots, byte(step))
		dots -= step
	}
}

func (w *writer) feedLines(lines int) {
	for lines > 0 {
		step := lines
		if step > 255 {
			step = 255
		}
		w.emit(codes.FeedLines, byte(step))
		lines -= step
	}
}

func (w *writer) barcode(c document.Barcode) {
	u := w.enc.units

	hri := byte(0)
	if c.PrintHRI {
		hri = 2 // below the bars
	}
	w.emit(codes.BarcodeHRI, hri)

	width := c.BarDots
	switch c.BarRatioLevel {
	case document.BarRatioLevelPlus1:
		width++
	case document.BarRatioLevelMinus1:
		width--
	}
	w.emit(codes.BarcodeWidth, byte(clamp(width, 2, 6)))

	height := u.Dots(c.HeightMM)
	w.emit(codes.BarcodeHeight, byte(clamp(height, 1, 255)))

	data := []byte(c.Content)
	if c.Symbology == document.SymbologyCode128 && (len(data) < 2 || data[0] != '{') {
		data = append([]byte("{B"), data...)
	}
	if len(data) > 255 {
		data = data[:255]
	}

	system, ok := barcodeSystems[string(c.Symbology)]
	if !ok {
		system = barcodeSystems[string(document.SymbologyUPCE)]
	}
	w.emit(codes.BarcodePrint, system, byte(len(data)))
	w.buf.Write(data)
}

// twoD writes one GS ( k function with a length prefixed parameter block
func (w *writer) twoD(params ...byte) {
	w.buf.Write(codes.TwoDimensional)
	w.buf.Write(le16(len(params)))
	w.buf.Write(params)
}

func (w *writer) pdf417(c document.PDF417) {
	const cn = 48
	w.twoD(cn, 65, byte(clamp(c.Column, 0, 30)))
	w.twoD(cn, 66, rowsParam(c.Line))
	w.twoD(cn, 67, byte(clamp(c.Module, 2, 8)))
	w.twoD(cn, 68, byte(clamp(c.Aspect, 2, 8)))
	w.twoD(cn, 69, 48, 48+pdf417Level(c.Level))

	store := append([]byte{cn, 80, 48}, c.Content...)
	w.twoD(store...)
	w.twoD(cn, 81, 48)
}

// rowsParam maps 0 (automatic) through and clamps explicit row counts
func rowsParam(lines int) byte {
	if lines <= 0 {
		return 0
	}
	return byte(clamp(lines, 3, 90))
}

func pdf417Level(l document.PDF417Level) byte {
	if len(l) == 4 && l[:3] == "ecc" && l[3] >= '0' && l[3] <= '8' {
		return l[3] - '0'
	}
	return 0
}

func (w *writer) qrCode(c document.QRCode) {
	const cn = 49
	model := byte(49)
	if c.Model == document.QRModel2 {
		model = 50
	}
	w.twoD(cn, 65, model, 0)
	w.twoD(cn, 67, byte(clamp(c.CellSize, 1, 16)))

	level := byte(48)
	switch c.Level {
	case document.QRLevelM:
		level = 49
	case document.QRLevelQ:
		level = 50
	case document.QRLevelH:
		level = 51
	}
	w.twoD(cn, 69, level)

	store := append([]byte{cn, 80, 48}, c.Content...)
	w.twoD(store...)
	w.twoD(cn, 81, 48)
}

// logo prints an NV graphic by its two character key code
func (w *writer) logo(keyCode string) {
	kc := []byte(keyCode + "  ")[:2]
	w.buf.Write(codes.NVLogo)
	w.buf.Write(le16(6))
	w.buf.Write([]byte{48, 69, kc[0], kc[1], 1, 1})
}

// ruledLine draws the line as a raster of the requested width and thickness
func (w *writer) ruledLine(c document.RuledLine) {
	u := w.enc.units
	width := clamp(u.Dots(c.WidthMM), 1, w.enc.paperDots)
	thickness := u.Dots(c.ThicknessMM)
	if thickness < 1 {
		thickness = 1
	}

	height := thickness
	if c.Style == document.LineDouble {
		height = thickness * 3
	}

	r := &raster{widthBytes: (width + 7) / 8, height: height}
	r.data = make([]byte, r.widthBytes*height)
	for y := 0; y < height; y++ {
		if c.Style == document.LineDouble && y >= thickness && y < 2*thickness {
			continue
		}
		for x := 0; x < width; x++ {
			r.data[y*r.widthBytes+x/8] |= 0x80 >> uint(x%8)
		}
	}
	w.buf.Write(r.command())
}

func (w *writer) displayCommands(cmds []document.Command) error {
	text := newTextEncoder()
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case document.DisplayText:
			w.buf.Write(text.encode(c.Text))
		case document.DisplayClearAll:
			w.emit(codes.DisplayClear)
		case document.DisplayClearLine:
			w.emit(codes.DisplayClearLine)
		case document.DisplayContrast:
			w.emit(codes.DisplayContrast, byte(c.Contrast.Level()+4))
		case document.DisplayImage:
			r, err := decodeRaster(c.Data, displayWidthDots)
			if err != nil {
				return err
			}
			w.buf.Write(codes.DisplayImage)
			w.buf.Write(le16(r.widthBytes))
			w.buf.Write(le16(r.height))
			w.buf.Write(r.data)
		default:
			return fmt.Errorf("unexpected display command %s", cmd.Kind())
		}
	}
	return nil
}

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}

func defaultTabs() []int {
	tabs := make([]int, 0, maxTabPositions)
	for p := 8; p <= 248; p += 8 {
		tabs = append(tabs, p)
	}
	return tabs
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
