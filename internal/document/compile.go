// internal/document/compile.go
package document

import (
	"fmt"

	"printer-bridge/internal/apperror"
)

// Defaults applied when an optional parameter is absent
const (
	DefaultBarcodeBarDots   = 2
	DefaultBarcodeHeightMM  = 8.0
	DefaultPDF417Module     = 3
	DefaultPDF417Aspect     = 2
	DefaultQRCellSize       = 3
	DefaultRuledThicknessMM = 0.125
	DefaultDrawerOnTime     = 0
)

// Builder decodes and compiles documents with one add depth bound
type Builder struct {
	decoder *Decoder
}

// NewBuilder creates a builder; maxDepth <= 0 selects DefaultMaxAddDepth
func NewBuilder(maxDepth int) *Builder {
	return &Builder{decoder: NewDecoder(maxDepth)}
}

// Build decodes raw document input and compiles it
func (b *Builder) Build(raw interface{}) (*Sequence, error) {
	doc, err := b.decoder.Decode(raw)
	if err != nil {
		return nil, err
	}
	return b.Compile(doc)
}

// Compile translates doc into a command sequence. It performs no I/O and
// identical documents always compile to identical sequences.
func (b *Builder) Compile(doc *Document) (*Sequence, error) {
	if doc == nil {
		return nil, apperror.CommandCompileFailure("invalid document: document is required", nil)
	}

	c := compiler{maxDepth: b.decoder.MaxDepth()}
	seq := &Sequence{Commands: make([]Command, 0, len(doc.Contents))}

	for i, content := range doc.Contents {
		path := fmt.Sprintf("contents[%d]", i)
		switch v := content.(type) {
		case DrawerContent:
			seq.Commands = append(seq.Commands, OpenDrawer{
				Channel: v.Channel.Number(),
				OnTime:  DefaultDrawerOnTime,
			})
		case PrintContent:
			commands, err := c.actions(path+".data", v.Actions, 0)
			if err != nil {
				return nil, err
			}
			seq.Commands = append(seq.Commands, PrinterBlock{Commands: commands})
		case DisplayContent:
			commands, err := c.display(path+".data", v.Actions)
			if err != nil {
				return nil, err
			}
			seq.Commands = append(seq.Commands, DisplayBlock{Commands: commands})
		default:
			return nil, compileError(path, fmt.Sprintf("unsupported content %T", content))
		}
	}
	return seq, nil
}

// Compile compiles doc with the default depth bound
func Compile(doc *Document) (*Sequence, error) {
	return NewBuilder(DefaultMaxAddDepth).Compile(doc)
}

type compiler struct {
	maxDepth int
}

func (c compiler) actions(path string, actions []Action, depth int) ([]Command, error) {
	out := make([]Command, 0, len(actions))
	for i, action := range actions {
		at := fmt.Sprintf("%s.actions[%d]", path, i)

		switch a := action.(type) {
		case AddAction:
			if depth+1 > c.maxDepth {
				return nil, compileError(at, fmt.Sprintf("add nesting exceeds maximum depth %d", c.maxDepth))
			}
			nested, err := c.actions(at+".data", a.Actions, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, Group{Commands: nested})
		case StyleAction:
			out = append(out, styleCommands(a)...)
		case CutAction:
			out = append(out, Cut{Type: a.Type})
		case FeedAction:
			out = append(out, Feed{MM: a.Height})
		case FeedLineAction:
			out = append(out, FeedLines{Lines: a.Lines})
		case PrintTextAction:
			out = append(out, Text{Text: a.Text})
		case PrintBarcodeAction:
			out = append(out, barcodeCommand(a))
		case PrintPDF417Action:
			out = append(out, pdf417Command(a))
		case PrintQRCodeAction:
			out = append(out, qrCodeCommand(a))
		case PrintImageAction:
			if len(a.Image) == 0 {
				return nil, compileError(at+".image", "required")
			}
			out = append(out, Image{Data: a.Image, Width: a.Width})
		case PrintLogoAction:
			out = append(out, Logo{KeyCode: a.KeyCode})
		case PrintRuledLineAction:
			out = append(out, ruledLineCommand(a))
		default:
			return nil, compileError(at, fmt.Sprintf("unsupported action %T", action))
		}
	}
	return out, nil
}

func (c compiler) display(path string, actions []DisplayAction) ([]Command, error) {
	out := make([]Command, 0, len(actions))
	for i, action := range actions {
		switch a := action.(type) {
		case ShowTextAction:
			out = append(out, DisplayText{Text: a.Text})
		case ClearAllAction:
			out = append(out, DisplayClearAll{})
		case ClearLineAction:
			out = append(out, DisplayClearLine{})
		case SetContrastAction:
			out = append(out, DisplayContrast{Contrast: a.Contrast})
		case ShowImageAction:
			if len(a.Image) == 0 {
				return nil, compileError(fmt.Sprintf("%s.actions[%d].image", path, i), "required")
			}
			out = append(out, DisplayImage{Data: a.Image})
		default:
			return nil, compileError(fmt.Sprintf("%s.actions[%d]", path, i), fmt.Sprintf("unsupported display action %T", action))
		}
	}
	return out, nil
}

// styleCommands emits one command per property, in a fixed order
func styleCommands(s StyleAction) []Command {
	var out []Command
	if s.Alignment != nil {
		out = append(out, SetAlignment{Alignment: *s.Alignment})
	}
	if s.FontType != nil {
		out = append(out, SetFont{Font: *s.FontType})
	}
	if s.Bold != nil {
		out = append(out, SetBold{Enabled: *s.Bold})
	}
	if s.Invert != nil {
		out = append(out, SetInvert{Enabled: *s.Invert})
	}
	if s.UnderLine != nil {
		out = append(out, SetUnderline{Enabled: *s.UnderLine})
	}
	if s.Magnification != nil {
		out = append(out, SetMagnification{Width: s.Magnification.Width, Height: s.Magnification.Height})
	}
	if s.CharacterSpace != nil {
		out = append(out, SetCharacterSpace{MM: *s.CharacterSpace})
	}
	if s.LineSpace != nil {
		out = append(out, SetLineSpace{MM: *s.LineSpace})
	}
	if s.HorizontalPositionTo != nil {
		out = append(out, HorizontalPositionTo{MM: *s.HorizontalPositionTo})
	}
	if s.HorizontalPositionBy != nil {
		out = append(out, HorizontalPositionBy{MM: *s.HorizontalPositionBy})
	}
	if s.HorizontalTabPositions != nil {
		out = append(out, SetTabPositions{Positions: append([]int(nil), s.HorizontalTabPositions...)})
	}
	if s.InternationalCharacter != nil {
		out = append(out, SetInternationalCharacter{Character: *s.InternationalCharacter})
	}
	if s.SecondPriorityCharacterEncoding != nil {
		out = append(out, SetSecondPriorityEncoding{Encoding: *s.SecondPriorityCharacterEncoding})
	}
	if s.CJKCharacterPriority != nil {
		out = append(out, SetCJKPriority{Priority: append([]CJKCharacter(nil), s.CJKCharacterPriority...)})
	}
	return out
}

func barcodeCommand(a PrintBarcodeAction) Barcode {
	cmd := Barcode{
		Content:       a.Content,
		Symbology:     a.Symbology,
		BarDots:       DefaultBarcodeBarDots,
		BarRatioLevel: BarRatioLevel0,
		HeightMM:      DefaultBarcodeHeightMM,
	}
	if cmd.Symbology == "" {
		cmd.Symbology = SymbologyUPCE
	}
	if a.PrintHRI != nil {
		cmd.PrintHRI = *a.PrintHRI
	}
	if a.BarDots != nil {
		cmd.BarDots = *a.BarDots
	}
	if a.BarRatioLevel != nil {
		cmd.BarRatioLevel = *a.BarRatioLevel
	}
	if a.Height != nil {
		cmd.HeightMM = *a.Height
	}
	return cmd
}

func pdf417Command(a PrintPDF417Action) PDF417 {
	cmd := PDF417{
		Content: a.Content,
		Module:  DefaultPDF417Module,
		Aspect:  DefaultPDF417Aspect,
		Level:   PDF417ECC0,
	}
	if a.Column != nil {
		cmd.Column = *a.Column
	}
	if a.Line != nil {
		cmd.Line = *a.Line
	}
	if a.Module != nil {
		cmd.Module = *a.Module
	}
	if a.Aspect != nil {
		cmd.Aspect = *a.Aspect
	}
	if a.Level != nil {
		cmd.Level = *a.Level
	}
	return cmd
}

func qrCodeCommand(a PrintQRCodeAction) QRCode {
	cmd := QRCode{
		Content:  a.Content,
		Model:    QRModel2,
		Level:    QRLevelL,
		CellSize: DefaultQRCellSize,
	}
	if a.Model != nil {
		cmd.Model = *a.Model
	}
	if a.Level != nil {
		cmd.Level = *a.Level
	}
	if a.CellSize != nil {
		cmd.CellSize = *a.CellSize
	}
	return cmd
}

func ruledLineCommand(a PrintRuledLineAction) RuledLine {
	cmd := RuledLine{
		WidthMM:     a.Width,
		ThicknessMM: DefaultRuledThicknessMM,
		Style:       LineSingle,
	}
	if a.Thickness != nil {
		cmd.ThicknessMM = *a.Thickness
	}
	if a.LineStyle != nil {
		cmd.Style = *a.LineStyle
	}
	return cmd
}

func compileError(path, reason string) error {
	err := &DecodeError{Path: path, Reason: reason}
	return apperror.CommandCompileFailure("invalid document: "+err.Error(), err)
}
