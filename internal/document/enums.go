// internal/document/enums.go
package document

// Every enum below parses with a fallback: an unrecognised value maps to the
// documented default instead of failing.

type Alignment string

const (
	AlignmentLeft   Alignment = "left"
	AlignmentCenter Alignment = "center"
	AlignmentRight  Alignment = "right"
)

type FontType string

const (
	FontA FontType = "a"
	FontB FontType = "b"
)

type InternationalCharacter string

const (
	CharacterUSA          InternationalCharacter = "usa"
	CharacterFrance       InternationalCharacter = "france"
	CharacterGermany      InternationalCharacter = "germany"
	CharacterUK           InternationalCharacter = "uk"
	CharacterDenmark      InternationalCharacter = "denmark"
	CharacterSweden       InternationalCharacter = "sweden"
	CharacterItaly        InternationalCharacter = "italy"
	CharacterSpain        InternationalCharacter = "spain"
	CharacterJapan        InternationalCharacter = "japan"
	CharacterNorway       InternationalCharacter = "norway"
	CharacterDenmark2     InternationalCharacter = "denmark2"
	CharacterSpain2       InternationalCharacter = "spain2"
	CharacterLatinAmerica InternationalCharacter = "latinAmerica"
	CharacterKorea        InternationalCharacter = "korea"
	CharacterIreland      InternationalCharacter = "ireland"
	CharacterSlovenia     InternationalCharacter = "slovenia"
	CharacterCroatia      InternationalCharacter = "croatia"
	CharacterChina        InternationalCharacter = "china"
	CharacterVietnam      InternationalCharacter = "vietnam"
	CharacterArabic       InternationalCharacter = "arabic"
	CharacterLegal        InternationalCharacter = "legal"
)

type CharacterEncoding string

const (
	EncodingJapanese           CharacterEncoding = "japanese"
	EncodingSimplifiedChinese  CharacterEncoding = "simplifiedChinese"
	EncodingTraditionalChinese CharacterEncoding = "traditionalChinese"
	EncodingKorean             CharacterEncoding = "korean"
	EncodingCodePage           CharacterEncoding = "codePage"
)

type CJKCharacter string

const (
	CJKJapanese           CJKCharacter = "japanese"
	CJKSimplifiedChinese  CJKCharacter = "simplifiedChinese"
	CJKTraditionalChinese CJKCharacter = "traditionalChinese"
	CJKKorean             CJKCharacter = "korean"
)

type CutType string

const (
	CutFull          CutType = "full"
	CutPartial       CutType = "partial"
	CutFullDirect    CutType = "fullDirect"
	CutPartialDirect CutType = "partialDirect"
)

type BarcodeSymbology string

const (
	SymbologyUPCE    BarcodeSymbology = "upcE"
	SymbologyUPCA    BarcodeSymbology = "upcA"
	SymbologyJAN8    BarcodeSymbology = "jan8"
	SymbologyEAN8    BarcodeSymbology = "ean8"
	SymbologyJAN13   BarcodeSymbology = "jan13"
	SymbologyEAN13   BarcodeSymbology = "ean13"
	SymbologyCode39  BarcodeSymbology = "code39"
	SymbologyITF     BarcodeSymbology = "itf"
	SymbologyCode128 BarcodeSymbology = "code128"
	SymbologyCode93  BarcodeSymbology = "code93"
	SymbologyNW7     BarcodeSymbology = "nw7"
)

type BarRatioLevel string

const (
	BarRatioLevelPlus1  BarRatioLevel = "levelPlus1"
	BarRatioLevel0      BarRatioLevel = "level0"
	BarRatioLevelMinus1 BarRatioLevel = "levelMinus1"
)

type PDF417Level string

const (
	PDF417ECC0 PDF417Level = "ecc0"
	PDF417ECC1 PDF417Level = "ecc1"
	PDF417ECC2 PDF417Level = "ecc2"
	PDF417ECC3 PDF417Level = "ecc3"
	PDF417ECC4 PDF417Level = "ecc4"
	PDF417ECC5 PDF417Level = "ecc5"
	PDF417ECC6 PDF417Level = "ecc6"
	PDF417ECC7 PDF417Level = "ecc7"
	PDF417ECC8 PDF417Level = "ecc8"
)

type QRModel string

const (
	QRModel1 QRModel = "model1"
	QRModel2 QRModel = "model2"
)

type QRLevel string

const (
	QRLevelL QRLevel = "l"
	QRLevelM QRLevel = "m"
	QRLevelQ QRLevel = "q"
	QRLevelH QRLevel = "h"
)

type LineStyle string

const (
	LineSingle LineStyle = "single"
	LineDouble LineStyle = "double"
)

type DrawerChannel string

const (
	DrawerNo1 DrawerChannel = "no1"
	DrawerNo2 DrawerChannel = "no2"
)

// Number returns the physical channel number, 1 or 2
func (c DrawerChannel) Number() int {
	if c == DrawerNo2 {
		return 2
	}
	return 1
}

type Contrast string

const (
	ContrastMinus3  Contrast = "minus3"
	ContrastMinus2  Contrast = "minus2"
	ContrastMinus1  Contrast = "minus1"
	ContrastDefault Contrast = "default"
	ContrastPlus1   Contrast = "plus1"
	ContrastPlus2   Contrast = "plus2"
	ContrastPlus3   Contrast = "plus3"
)

// Level returns the contrast as an offset from neutral, -3 to +3
func (c Contrast) Level() int {
	switch c {
	case ContrastMinus3:
		return -3
	case ContrastMinus2:
		return -2
	case ContrastMinus1:
		return -1
	case ContrastPlus1:
		return 1
	case ContrastPlus2:
		return 2
	case ContrastPlus3:
		return 3
	default:
		return 0
	}
}

var (
	alignments = []Alignment{AlignmentLeft, AlignmentCenter, AlignmentRight}
	fontTypes  = []FontType{FontA, FontB}

	internationalCharacters = []InternationalCharacter{
		CharacterUSA, CharacterFrance, CharacterGermany, CharacterUK, CharacterDenmark,
		CharacterSweden, CharacterItaly, CharacterSpain, CharacterJapan, CharacterNorway,
		CharacterDenmark2, CharacterSpain2, CharacterLatinAmerica, CharacterKorea,
		CharacterIreland, CharacterSlovenia, CharacterCroatia, CharacterChina,
		CharacterVietnam, CharacterArabic, CharacterLegal,
	}

	characterEncodings = []CharacterEncoding{
		EncodingJapanese, EncodingSimplifiedChinese, EncodingTraditionalChinese,
		EncodingKorean, EncodingCodePage,
	}

	cjkCharacters = []CJKCharacter{CJKJapanese, CJKSimplifiedChinese, CJKTraditionalChinese, CJKKorean}
	cutTypes      = []CutType{CutFull, CutPartial, CutFullDirect, CutPartialDirect}

	symbologies = []BarcodeSymbology{
		SymbologyUPCE, SymbologyUPCA, SymbologyJAN8, SymbologyEAN8, SymbologyJAN13,
		SymbologyEAN13, SymbologyCode39, SymbologyITF, SymbologyCode128, SymbologyCode93,
		SymbologyNW7,
	}

	barRatioLevels = []BarRatioLevel{BarRatioLevelPlus1, BarRatioLevel0, BarRatioLevelMinus1}

	pdf417Levels = []PDF417Level{
		PDF417ECC0, PDF417ECC1, PDF417ECC2, PDF417ECC3, PDF417ECC4,
		PDF417ECC5, PDF417ECC6, PDF417ECC7, PDF417ECC8,
	}

	qrModels       = []QRModel{QRModel1, QRModel2}
	qrLevels       = []QRLevel{QRLevelL, QRLevelM, QRLevelQ, QRLevelH}
	lineStyles     = []LineStyle{LineSingle, LineDouble}
	drawerChannels = []DrawerChannel{DrawerNo1, DrawerNo2}

	contrasts = []Contrast{
		ContrastMinus3, ContrastMinus2, ContrastMinus1, ContrastDefault,
		ContrastPlus1, ContrastPlus2, ContrastPlus3,
	}
)

func parseEnum[T ~string](value string, known []T, fallback T) T {
	for _, k := range known {
		if string(k) == value {
			return k
		}
	}
	return fallback
}

func ParseAlignment(v string) Alignment { return parseEnum(v, alignments, AlignmentLeft) }
func ParseFontType(v string) FontType   { return parseEnum(v, fontTypes, FontA) }
func ParseCutType(v string) CutType     { return parseEnum(v, cutTypes, CutPartial) }
func ParseQRModel(v string) QRModel     { return parseEnum(v, qrModels, QRModel1) }
func ParseQRLevel(v string) QRLevel     { return parseEnum(v, qrLevels, QRLevelL) }
func ParseLineStyle(v string) LineStyle { return parseEnum(v, lineStyles, LineSingle) }
func ParseContrast(v string) Contrast   { return parseEnum(v, contrasts, ContrastDefault) }

func ParseInternationalCharacter(v string) InternationalCharacter {
	return parseEnum(v, internationalCharacters, CharacterUSA)
}

func ParseCharacterEncoding(v string) CharacterEncoding {
	return parseEnum(v, characterEncodings, EncodingCodePage)
}

func ParseCJKCharacter(v string) CJKCharacter {
	return parseEnum(v, cjkCharacters, CJKJapanese)
}

func ParseBarcodeSymbology(v string) BarcodeSymbology {
	return parseEnum(v, symbologies, SymbologyUPCE)
}

func ParseBarRatioLevel(v string) BarRatioLevel {
	return parseEnum(v, barRatioLevels, BarRatioLevel0)
}

func ParsePDF417Level(v string) PDF417Level {
	return parseEnum(v, pdf417Levels, PDF417ECC0)
}

func ParseDrawerChannel(v string) DrawerChannel {
	return parseEnum(v, drawerChannels, DrawerNo1)
}
