// internal/document/command.go
package document

// Command is one compiled instruction. Commands carry fully resolved values
// so a driver never has to apply defaults.
type Command interface {
	Kind() string
}

// Sequence is the compiled form of a Document
type Sequence struct {
	Commands []Command
}

// Len returns the number of top level commands
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Commands)
}

// OpenDrawer pulses a drawer kick-out channel
type OpenDrawer struct {
	Channel int
	OnTime  int
}

// PrinterBlock is the command list of one print content entry
type PrinterBlock struct {
	Commands []Command
}

// DisplayBlock is the command list of one display content entry
type DisplayBlock struct {
	Commands []Command
}

// Group scopes style changes to its commands
type Group struct {
	Commands []Command
}

type SetAlignment struct{ Alignment Alignment }
type SetFont struct{ Font FontType }
type SetBold struct{ Enabled bool }
type SetInvert struct{ Enabled bool }
type SetUnderline struct{ Enabled bool }
type SetMagnification struct{ Width, Height int }
type SetCharacterSpace struct{ MM float64 }
type SetLineSpace struct{ MM float64 }
type HorizontalPositionTo struct{ MM float64 }
type HorizontalPositionBy struct{ MM float64 }
type SetTabPositions struct{ Positions []int }
type SetInternationalCharacter struct{ Character InternationalCharacter }
type SetSecondPriorityEncoding struct{ Encoding CharacterEncoding }
type SetCJKPriority struct{ Priority []CJKCharacter }

type Cut struct{ Type CutType }
type Feed struct{ MM float64 }
type FeedLines struct{ Lines int }
type Text struct{ Text string }

type Barcode struct {
	Content       string
	Symbology     BarcodeSymbology
	PrintHRI      bool
	BarDots       int
	BarRatioLevel BarRatioLevel
	HeightMM      float64
}

type PDF417 struct {
	Content string
	Column  int
	Line    int
	Module  int
	Aspect  int
	Level   PDF417Level
}

type QRCode struct {
	Content  string
	Model    QRModel
	Level    QRLevel
	CellSize int
}

type Image struct {
	Data  []byte
	Width int
}

type Logo struct{ KeyCode string }

type RuledLine struct {
	WidthMM     float64
	ThicknessMM float64
	Style       LineStyle
}

type DisplayText struct{ Text string }
type DisplayClearAll struct{}
type DisplayClearLine struct{}
type DisplayContrast struct{ Contrast Contrast }
type DisplayImage struct{ Data []byte }

func (OpenDrawer) Kind() string                { return "openDrawer" }
func (PrinterBlock) Kind() string              { return "printer" }
func (DisplayBlock) Kind() string              { return "display" }
func (Group) Kind() string                     { return "group" }
func (SetAlignment) Kind() string              { return "alignment" }
func (SetFont) Kind() string                   { return "font" }
func (SetBold) Kind() string                   { return "bold" }
func (SetInvert) Kind() string                 { return "invert" }
func (SetUnderline) Kind() string              { return "underline" }
func (SetMagnification) Kind() string          { return "magnification" }
func (SetCharacterSpace) Kind() string         { return "characterSpace" }
func (SetLineSpace) Kind() string              { return "lineSpace" }
func (HorizontalPositionTo) Kind() string      { return "horizontalPositionTo" }
func (HorizontalPositionBy) Kind() string      { return "horizontalPositionBy" }
func (SetTabPositions) Kind() string           { return "tabPositions" }
func (SetInternationalCharacter) Kind() string { return "internationalCharacter" }
func (SetSecondPriorityEncoding) Kind() string { return "secondPriorityEncoding" }
func (SetCJKPriority) Kind() string            { return "cjkPriority" }
func (Cut) Kind() string                       { return "cut" }
func (Feed) Kind() string                      { return "feed" }
func (FeedLines) Kind() string                 { return "feedLine" }
func (Text) Kind() string                      { return "text" }
func (Barcode) Kind() string                   { return "barcode" }
func (PDF417) Kind() string                    { return "pdf417" }
func (QRCode) Kind() string                    { return "qrCode" }
func (Image) Kind() string                     { return "image" }
func (Logo) Kind() string                      { return "logo" }
func (RuledLine) Kind() string                 { return "ruledLine" }
func (DisplayText) Kind() string               { return "displayText" }
func (DisplayClearAll) Kind() string           { return "displayClearAll" }
func (DisplayClearLine) Kind() string          { return "displayClearLine" }
func (DisplayContrast) Kind() string           { return "displayContrast" }
func (DisplayImage) Kind() string              { return "displayImage" }
