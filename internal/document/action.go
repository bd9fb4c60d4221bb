// internal/document/action.go
package document

// ContentType names the kind of a top level document entry
type ContentType string

const (
	ContentDrawer  ContentType = "drawer"
	ContentPrint   ContentType = "print"
	ContentDisplay ContentType = "display"
)

// Document is an ordered list of content entries
type Document struct {
	Contents []Content
}

// Content is one of DrawerContent, PrintContent or DisplayContent
type Content interface {
	ContentType() ContentType
}

type DrawerContent struct {
	Channel DrawerChannel
}

type PrintContent struct {
	Actions []Action
}

type DisplayContent struct {
	Actions []DisplayAction
}

func (DrawerContent) ContentType() ContentType  { return ContentDrawer }
func (PrintContent) ContentType() ContentType   { return ContentPrint }
func (DisplayContent) ContentType() ContentType { return ContentDisplay }

// Action is one printer action. The set of implementations is closed.
type Action interface {
	ActionName() string
}

type Magnification struct {
	Width  int
	Height int
}

// StyleAction changes one or more style properties. Nil fields are left untouched.
type StyleAction struct {
	Alignment                       *Alignment
	FontType                        *FontType
	Bold                            *bool
	Invert                          *bool
	UnderLine                       *bool
	Magnification                   *Magnification
	CharacterSpace                  *float64
	LineSpace                       *float64
	HorizontalPositionTo            *float64
	HorizontalPositionBy            *float64
	HorizontalTabPositions          []int
	InternationalCharacter          *InternationalCharacter
	SecondPriorityCharacterEncoding *CharacterEncoding
	CJKCharacterPriority            []CJKCharacter
}

type CutAction struct {
	Type CutType
}

// FeedAction feeds paper by Height millimetres
type FeedAction struct {
	Height float64
}

type FeedLineAction struct {
	Lines int
}

type PrintTextAction struct {
	Text string
}

type PrintBarcodeAction struct {
	Content       string
	Symbology     BarcodeSymbology
	PrintHRI      *bool
	BarDots       *int
	BarRatioLevel *BarRatioLevel
	Height        *float64
}

type PrintPDF417Action struct {
	Content string
	Column  *int
	Line    *int
	Module  *int
	Aspect  *int
	Level   *PDF417Level
}

type PrintQRCodeAction struct {
	Content  string
	Model    *QRModel
	Level    *QRLevel
	CellSize *int
}

// PrintImageAction prints an encoded PNG or JPEG scaled to Width dots
type PrintImageAction struct {
	Image []byte
	Width int
}

type PrintLogoAction struct {
	KeyCode string
}

type PrintRuledLineAction struct {
	Width     float64
	Thickness *float64
	LineStyle *LineStyle
}

// AddAction nests a sub-list whose style changes are scoped to it
type AddAction struct {
	Actions []Action
}

func (StyleAction) ActionName() string          { return "style" }
func (CutAction) ActionName() string            { return "cut" }
func (FeedAction) ActionName() string           { return "feed" }
func (FeedLineAction) ActionName() string       { return "feedLine" }
func (PrintTextAction) ActionName() string      { return "printText" }
func (PrintBarcodeAction) ActionName() string   { return "printBarcode" }
func (PrintPDF417Action) ActionName() string    { return "printPdf417" }
func (PrintQRCodeAction) ActionName() string    { return "printQRCode" }
func (PrintImageAction) ActionName() string     { return "printImage" }
func (PrintLogoAction) ActionName() string      { return "printLogo" }
func (PrintRuledLineAction) ActionName() string { return "printRuledLine" }
func (AddAction) ActionName() string            { return "add" }

// DisplayAction is one customer display action
type DisplayAction interface {
	DisplayActionName() string
}

type ShowTextAction struct {
	Text string
}

type ClearAllAction struct{}

type ClearLineAction struct{}

type SetContrastAction struct {
	Contrast Contrast
}

type ShowImageAction struct {
	Image []byte
}

func (ShowTextAction) DisplayActionName() string    { return "showText" }
func (ClearAllAction) DisplayActionName() string    { return "clearAll" }
func (ClearLineAction) DisplayActionName() string   { return "clearLine" }
func (SetContrastAction) DisplayActionName() string { return "setContrast" }
func (ShowImageAction) DisplayActionName() string   { return "showImage" }
