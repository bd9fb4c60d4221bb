// internal/driver/escpos/commands.go
package escpos

// Control bytes
const (
	esc = 0x1B
	gs  = 0x1D
	dle = 0x10
	eot = 0x04
	fs  = 0x1C
	lf  = 0x0A
	nul = 0x00
	us  = 0x1F
)

// codes contains the fixed ESC/POS byte sequences. Commands taking parameters
// hold only their prefix.
var codes = struct {
	// Basic commands
	Initialize    []byte
	LineFeed      []byte
	SelectPrinter []byte
	SelectDisplay []byte

	// Status (DLE EOT n)
	StatusPrinter     []byte
	StatusOffline     []byte
	StatusError       []byte
	StatusPaperSensor []byte

	// Text formatting, prefix + n
	Bold          []byte
	Underline     []byte
	Invert        []byte
	Alignment     []byte
	Font          []byte
	CharacterSize []byte
	CharSpace     []byte
	LineSpace     []byte
	LineSpaceStd  []byte
	International []byte
	CodeTable     []byte
	KanjiOn       []byte
	KanjiOff      []byte
	KanjiCode     []byte

	// Positioning
	AbsolutePosition []byte
	RelativePosition []byte
	TabPositions     []byte

	// Paper handling
	FeedDots  []byte
	FeedLines []byte

	// Cutting, GS V m n
	CutFeed []byte

	// Cash drawer, ESC p m t1 t2
	DrawerKick []byte

	// Graphics and barcodes
	RasterImage    []byte
	NVLogo         []byte
	BarcodeHRI     []byte
	BarcodeWidth   []byte
	BarcodeHeight  []byte
	BarcodePrint   []byte
	TwoDimensional []byte

	// Customer display (ESC/POS display command set, US prefix)
	DisplayClear     []byte
	DisplayClearLine []byte
	DisplayHome      []byte
	DisplayContrast  []byte
	DisplayImage     []byte
}{
	Initialize:    []byte{esc, 0x40},       // ESC @
	LineFeed:      []byte{lf},              // LF
	SelectPrinter: []byte{esc, 0x3D, 0x01}, // ESC = 1
	SelectDisplay: []byte{esc, 0x3D, 0x02}, // ESC = 2

	StatusPrinter:     []byte{dle, eot, 0x01}, // DLE EOT 1
	StatusOffline:     []byte{dle, eot, 0x02}, // DLE EOT 2
	StatusError:       []byte{dle, eot, 0x03}, // DLE EOT 3
	StatusPaperSensor: []byte{dle, eot, 0x04}, // DLE EOT 4

	Bold:          []byte{esc, 0x45}, // ESC E
	Underline:     []byte{esc, 0x2D}, // ESC -
	Invert:        []byte{gs, 0x42},  // GS B
	Alignment:     []byte{esc, 0x61}, // ESC a
	Font:          []byte{esc, 0x4D}, // ESC M
	CharacterSize: []byte{gs, 0x21},  // GS !
	CharSpace:     []byte{esc, 0x20}, // ESC SP
	LineSpace:     []byte{esc, 0x33}, // ESC 3
	LineSpaceStd:  []byte{esc, 0x32}, // ESC 2
	International: []byte{esc, 0x52}, // ESC R
	CodeTable:     []byte{esc, 0x74}, // ESC t
	KanjiOn:       []byte{fs, 0x26},  // FS &
	KanjiOff:      []byte{fs, 0x2E},  // FS .
	KanjiCode:     []byte{fs, 0x43},  // FS C

	AbsolutePosition: []byte{esc, 0x24}, // ESC $
	RelativePosition: []byte{esc, 0x5C}, // ESC \
	TabPositions:     []byte{esc, 0x44}, // ESC D

	FeedDots:  []byte{esc, 0x4A}, // ESC J
	FeedLines: []byte{esc, 0x64}, // ESC d

	CutFeed: []byte{gs, 0x56}, // GS V

	DrawerKick: []byte{esc, 0x70}, // ESC p

	RasterImage:    []byte{gs, 0x76, 0x30, 0x00}, // GS v 0 0
	NVLogo:         []byte{gs, 0x28, 0x4C},       // GS ( L
	BarcodeHRI:     []byte{gs, 0x48},             // GS H
	BarcodeWidth:   []byte{gs, 0x77},             // GS w
	BarcodeHeight:  []byte{gs, 0x68},             // GS h
	BarcodePrint:   []byte{gs, 0x6B},             // GS k
	TwoDimensional: []byte{gs, 0x28, 0x6B},       // GS ( k

	DisplayClear:     []byte{0x0C},           // CLR
	DisplayClearLine: []byte{0x18},           // CAN
	DisplayHome:      []byte{0x0B},           // HOM
	DisplayContrast:  []byte{us, 0x58},       // US X
	DisplayImage:     []byte{us, 0x28, 0x66}, // US ( f
}

// Code table ESC t 19 (PC858, Latin-1 with euro) is selected at initialisation
const codeTablePC858 = 19

// Cut modes for GS V 65/66 n (feed to cut position, then cut)
const (
	cutModeFull    = 65
	cutModePartial = 66
	cutDirectFull  = 0
	cutDirectPart  = 1
)

// Barcode system numbers for GS k m (format B, length prefixed)
var barcodeSystems = map[string]byte{
	"upcA":    65,
	"upcE":    66,
	"ean13":   67,
	"jan13":   67,
	"ean8":    68,
	"jan8":    68,
	"code39":  69,
	"itf":     70,
	"nw7":     71,
	"code93":  72,
	"code128": 73,
}

// International character sets for ESC R n
var internationalSets = map[string]byte{
	"usa":          0,
	"france":       1,
	"germany":      2,
	"uk":           3,
	"denmark":      4,
	"sweden":       5,
	"italy":        6,
	"spain":        7,
	"japan":        8,
	"norway":       9,
	"denmark2":     10,
	"spain2":       11,
	"latinAmerica": 12,
	"korea":        13,
	"ireland":      14,
	"slovenia":     15,
	"croatia":      16,
	"china":        17,
	"vietnam":      18,
	"arabic":       19,
	"legal":        64,
}
