// internal/document/decode.go
package document

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"printer-bridge/internal/apperror"
)

// DefaultMaxAddDepth bounds how deeply "add" actions may nest
const DefaultMaxAddDepth = 16

// DecodeError reports the location and reason of a malformed document
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Decoder validates loosely typed document input into a Document
type Decoder struct {
	maxDepth int
}

// NewDecoder creates a decoder; maxDepth <= 0 selects DefaultMaxAddDepth
func NewDecoder(maxDepth int) *Decoder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxAddDepth
	}
	return &Decoder{maxDepth: maxDepth}
}

// MaxDepth returns the configured add nesting bound
func (d *Decoder) MaxDepth() int {
	return d.maxDepth
}

// Decode decodes raw, which is either a JSON object already unmarshalled into
// map[string]interface{} or raw JSON bytes. Any failure is a
// COMMAND_COMPILE_FAILURE and no partial document is returned.
func (d *Decoder) Decode(raw interface{}) (*Document, error) {
	doc, err := d.decode(raw)
	if err != nil {
		return nil, apperror.CommandCompileFailure("invalid document: "+err.Error(), err)
	}
	return doc, nil
}

// Decode decodes raw with the default depth bound
func Decode(raw interface{}) (*Document, error) {
	return NewDecoder(DefaultMaxAddDepth).Decode(raw)
}

func (d *Decoder) decode(raw interface{}) (*Document, error) {
	switch v := raw.(type) {
	case []byte:
		var parsed interface{}
		if err := json.Unmarshal(v, &parsed); err != nil {
			return nil, &DecodeError{Path: "document", Reason: "invalid JSON: " + err.Error()}
		}
		raw = parsed
	case json.RawMessage:
		var parsed interface{}
		if err := json.Unmarshal(v, &parsed); err != nil {
			return nil, &DecodeError{Path: "document", Reason: "invalid JSON: " + err.Error()}
		}
		raw = parsed
	}

	root, err := asObject("document", raw)
	if err != nil {
		return nil, err
	}

	items, err := root.reqList("contents")
	if err != nil {
		return nil, err
	}

	doc := &Document{Contents: make([]Content, 0, len(items))}
	for i, item := range items {
		path := fmt.Sprintf("contents[%d]", i)
		content, err := d.decodeContent(path, item)
		if err != nil {
			return nil, err
		}
		doc.Contents = append(doc.Contents, content)
	}
	return doc, nil
}

func (d *Decoder) decodeContent(path string, raw interface{}) (Content, error) {
	entry, err := asObject(path, raw)
	if err != nil {
		return nil, err
	}

	contentType, err := entry.reqString("type")
	if err != nil {
		return nil, err
	}

	data, err := entry.reqObject("data")
	if err != nil {
		return nil, err
	}

	switch ContentType(contentType) {
	case ContentDrawer:
		channel, err := data.optString("channel")
		if err != nil {
			return nil, err
		}
		c := DrawerContent{Channel: DrawerNo1}
		if channel != nil {
			c.Channel = ParseDrawerChannel(*channel)
		}
		return c, nil

	case ContentPrint:
		actions, err := d.decodeActions(data, 0)
		if err != nil {
			return nil, err
		}
		return PrintContent{Actions: actions}, nil

	case ContentDisplay:
		actions, err := decodeDisplayActions(data)
		if err != nil {
			return nil, err
		}
		return DisplayContent{Actions: actions}, nil

	default:
		return nil, entry.fail("type", fmt.Sprintf("unknown content type %q", contentType))
	}
}

func (d *Decoder) decodeActions(data object, depth int) ([]Action, error) {
	items, err := data.reqList("actions")
	if err != nil {
		return nil, err
	}

	actions := make([]Action, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s.actions[%d]", data.path, i)
		a, err := d.decodeAction(path, item, depth)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func (d *Decoder) decodeAction(path string, raw interface{}, depth int) (Action, error) {
	a, err := asObject(path, raw)
	if err != nil {
		return nil, err
	}

	name, err := a.reqString("action")
	if err != nil {
		return nil, err
	}

	switch name {
	case "add":
		if depth+1 > d.maxDepth {
			return nil, a.fail("data", fmt.Sprintf("add nesting exceeds maximum depth %d", d.maxDepth))
		}
		sub, err := a.reqObject("data")
		if err != nil {
			return nil, err
		}
		actions, err := d.decodeActions(sub, depth+1)
		if err != nil {
			return nil, err
		}
		return AddAction{Actions: actions}, nil

	case "style":
		return decodeStyle(a)

	case "cut":
		t, err := a.optString("type")
		if err != nil {
			return nil, err
		}
		c := CutAction{Type: CutPartial}
		if t != nil {
			c.Type = ParseCutType(*t)
		}
		return c, nil

	case "feed":
		height, err := a.optFloat("height")
		if err != nil {
			return nil, err
		}
		f := FeedAction{Height: 10.0}
		if height != nil {
			if *height < 0 {
				return nil, a.fail("height", "must not be negative")
			}
			f.Height = *height
		}
		return f, nil

	case "feedLine":
		lines, err := a.optInt("lines")
		if err != nil {
			return nil, err
		}
		f := FeedLineAction{Lines: 1}
		if lines != nil {
			if *lines < 0 {
				return nil, a.fail("lines", "must not be negative")
			}
			f.Lines = *lines
		}
		return f, nil

	case "printText":
		text, err := a.reqString("text")
		if err != nil {
			return nil, err
		}
		return PrintTextAction{Text: text}, nil

	case "printRuledLine":
		return decodeRuledLine(a)

	case "printLogo":
		keyCode, err := a.reqString("keyCode")
		if err != nil {
			return nil, err
		}
		return PrintLogoAction{KeyCode: keyCode}, nil

	case "printBarcode":
		return decodeBarcode(a)

	case "printPdf417":
		return decodePDF417(a)

	case "printQRCode":
		return decodeQRCode(a)

	case "printImage":
		image, err := a.reqBytes("image")
		if err != nil {
			return nil, err
		}
		width, err := a.reqInt("width")
		if err != nil {
			return nil, err
		}
		if width <= 0 {
			return nil, a.fail("width", "must be positive")
		}
		return PrintImageAction{Image: image, Width: width}, nil

	default:
		return nil, a.fail("action", fmt.Sprintf("unknown action %q", name))
	}
}

func decodeStyle(a object) (Action, error) {
	var s StyleAction

	if v, err := a.optString("alignment"); err != nil {
		return nil, err
	} else if v != nil {
		al := ParseAlignment(*v)
		s.Alignment = &al
	}

	if v, err := a.optString("fontType"); err != nil {
		return nil, err
	} else if v != nil {
		ft := ParseFontType(*v)
		s.FontType = &ft
	}

	var err error
	if s.Bold, err = a.optBool("bold"); err != nil {
		return nil, err
	}
	if s.Invert, err = a.optBool("invert"); err != nil {
		return nil, err
	}
	if s.UnderLine, err = a.optBool("underLine"); err != nil {
		return nil, err
	}

	mag, err := a.optObject("magnification")
	if err != nil {
		return nil, err
	}
	if mag != nil {
		width, err := mag.reqInt("width")
		if err != nil {
			return nil, err
		}
		height, err := mag.reqInt("height")
		if err != nil {
			return nil, err
		}
		if width < 1 || height < 1 {
			return nil, a.fail("magnification", "width and height must be at least 1")
		}
		s.Magnification = &Magnification{Width: width, Height: height}
	}

	if s.CharacterSpace, err = a.optFloat("characterSpace"); err != nil {
		return nil, err
	}
	if s.LineSpace, err = a.optFloat("lineSpace"); err != nil {
		return nil, err
	}
	if s.HorizontalPositionTo, err = a.optFloat("horizontalPositionTo"); err != nil {
		return nil, err
	}
	if s.HorizontalPositionBy, err = a.optFloat("horizontalPositionBy"); err != nil {
		return nil, err
	}
	if s.HorizontalTabPositions, err = a.optIntList("horizontalTabPosition"); err != nil {
		return nil, err
	}

	if v, err := a.optString("internationalCharacter"); err != nil {
		return nil, err
	} else if v != nil {
		ic := ParseInternationalCharacter(*v)
		s.InternationalCharacter = &ic
	}

	if v, err := a.optString("secondPriorityCharacterEncoding"); err != nil {
		return nil, err
	} else if v != nil {
		enc := ParseCharacterEncoding(*v)
		s.SecondPriorityCharacterEncoding = &enc
	}

	priorities, err := a.optStringList("cjkCharacterPriority")
	if err != nil {
		return nil, err
	}
	if priorities != nil {
		s.CJKCharacterPriority = make([]CJKCharacter, len(priorities))
		for i, p := range priorities {
			s.CJKCharacterPriority[i] = ParseCJKCharacter(p)
		}
	}

	return s, nil
}

func decodeRuledLine(a object) (Action, error) {
	width, err := a.reqFloat("width")
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, a.fail("width", "must be positive")
	}

	r := PrintRuledLineAction{Width: width}
	if r.Thickness, err = a.optFloat("thickness"); err != nil {
		return nil, err
	}
	if v, err := a.optString("lineStyle"); err != nil {
		return nil, err
	} else if v != nil {
		ls := ParseLineStyle(*v)
		r.LineStyle = &ls
	}
	return r, nil
}

func decodeBarcode(a object) (Action, error) {
	content, err := a.reqString("content")
	if err != nil {
		return nil, err
	}

	b := PrintBarcodeAction{Content: content, Symbology: SymbologyUPCE}
	if v, err := a.optString("symbology"); err != nil {
		return nil, err
	} else if v != nil {
		b.Symbology = ParseBarcodeSymbology(*v)
	}
	if b.PrintHRI, err = a.optBool("printHri"); err != nil {
		return nil, err
	}
	if b.BarDots, err = a.optInt("barDots"); err != nil {
		return nil, err
	}
	if v, err := a.optString("barRatioLevel"); err != nil {
		return nil, err
	} else if v != nil {
		level := ParseBarRatioLevel(*v)
		b.BarRatioLevel = &level
	}
	if b.Height, err = a.optFloat("height"); err != nil {
		return nil, err
	}
	return b, nil
}

func decodePDF417(a object) (Action, error) {
	content, err := a.reqString("content")
	if err != nil {
		return nil, err
	}

	p := PrintPDF417Action{Content: content}
	if p.Column, err = a.optInt("column"); err != nil {
		return nil, err
	}
	if p.Line, err = a.optInt("line"); err != nil {
		return nil, err
	}
	if p.Module, err = a.optInt("module"); err != nil {
		return nil, err
	}
	if p.Aspect, err = a.optInt("aspect"); err != nil {
		return nil, err
	}
	if v, err := a.optString("level"); err != nil {
		return nil, err
	} else if v != nil {
		level := ParsePDF417Level(*v)
		p.Level = &level
	}
	return p, nil
}

func decodeQRCode(a object) (Action, error) {
	content, err := a.reqString("content")
	if err != nil {
		return nil, err
	}

	q := PrintQRCodeAction{Content: content}
	if v, err := a.optString("model"); err != nil {
		return nil, err
	} else if v != nil {
		model := ParseQRModel(*v)
		q.Model = &model
	}
	if v, err := a.optString("level"); err != nil {
		return nil, err
	} else if v != nil {
		level := ParseQRLevel(*v)
		q.Level = &level
	}
	if q.CellSize, err = a.optInt("cellSize"); err != nil {
		return nil, err
	}
	return q, nil
}

func decodeDisplayActions(data object) ([]DisplayAction, error) {
	items, err := data.reqList("actions")
	if err != nil {
		return nil, err
	}

	actions := make([]DisplayAction, 0, len(items))
	for i, item := range items {
		a, err := asObject(fmt.Sprintf("%s.actions[%d]", data.path, i), item)
		if err != nil {
			return nil, err
		}

		name, err := a.reqString("action")
		if err != nil {
			return nil, err
		}

		switch name {
		case "showText":
			text, err := a.reqString("data")
			if err != nil {
				return nil, err
			}
			actions = append(actions, ShowTextAction{Text: text})
		case "clearAll":
			actions = append(actions, ClearAllAction{})
		case "clearLine":
			actions = append(actions, ClearLineAction{})
		case "setContrast":
			v, err := a.optString("data")
			if err != nil {
				return nil, err
			}
			c := SetContrastAction{Contrast: ContrastDefault}
			if v != nil {
				c.Contrast = ParseContrast(*v)
			}
			actions = append(actions, c)
		case "showImage":
			image, err := a.reqBytes("image")
			if err != nil {
				return nil, err
			}
			actions = append(actions, ShowImageAction{Image: image})
		default:
			return nil, a.fail("action", fmt.Sprintf("unknown display action %q", name))
		}
	}
	return actions, nil
}

// object is a JSON object with the path it was found at
type object struct {
	path string
	m    map[string]interface{}
}

func asObject(path string, raw interface{}) (object, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return object{}, &DecodeError{Path: path, Reason: fmt.Sprintf("expected object, got %s", kindOf(raw))}
	}
	return object{path: path, m: m}, nil
}

func (o object) at(key string) string {
	return o.path + "." + key
}

func (o object) fail(key, reason string) error {
	return &DecodeError{Path: o.at(key), Reason: reason}
}

// lookup treats an explicit null like an absent key
func (o object) lookup(key string) (interface{}, bool) {
	v, ok := o.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (o object) reqString(key string) (string, error) {
	v, err := o.optString(key)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", o.fail(key, "required")
	}
	return *v, nil
}

func (o object) optString(key string) (*string, error) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, o.fail(key, fmt.Sprintf("expected string, got %s", kindOf(v)))
	}
	return &s, nil
}

func (o object) optBool(key string) (*bool, error) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, o.fail(key, fmt.Sprintf("expected boolean, got %s", kindOf(v)))
	}
	return &b, nil
}

func (o object) reqFloat(key string) (float64, error) {
	v, err := o.optFloat(key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, o.fail(key, "required")
	}
	return *v, nil
}

func (o object) optFloat(key string) (*float64, error) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, o.fail(key, fmt.Sprintf("expected number, got %s", kindOf(v)))
	}
	return &f, nil
}

func (o object) reqInt(key string) (int, error) {
	v, err := o.optInt(key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, o.fail(key, "required")
	}
	return *v, nil
}

func (o object) optInt(key string) (*int, error) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}
	n, ok := toInt(v)
	if !ok {
		return nil, o.fail(key, fmt.Sprintf("expected integer, got %s", kindOf(v)))
	}
	return &n, nil
}

func (o object) reqObject(key string) (object, error) {
	v, ok := o.lookup(key)
	if !ok {
		return object{}, o.fail(key, "required")
	}
	return asObject(o.at(key), v)
}

func (o object) optObject(key string) (*object, error) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}
	obj, err := asObject(o.at(key), v)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (o object) reqList(key string) ([]interface{}, error) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, o.fail(key, "required")
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, o.fail(key, fmt.Sprintf("expected array, got %s", kindOf(v)))
	}
	return list, nil
}

func (o object) optIntList(key string) ([]int, error) {
	if _, ok := o.lookup(key); !ok {
		return nil, nil
	}
	list, err := o.reqList(key)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(list))
	for i, item := range list {
		n, ok := toInt(item)
		if !ok {
			return nil, &DecodeError{Path: fmt.Sprintf("%s[%d]", o.at(key), i), Reason: "expected integer"}
		}
		out[i] = n
	}
	return out, nil
}

func (o object) optStringList(key string) ([]string, error) {
	if _, ok := o.lookup(key); !ok {
		return nil, nil
	}
	list, err := o.reqList(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &DecodeError{Path: fmt.Sprintf("%s[%d]", o.at(key), i), Reason: "expected string"}
		}
		out[i] = s
	}
	return out, nil
}

// reqBytes accepts a base64 string or an array of byte values
func (o object) reqBytes(key string) ([]byte, error) {
	v, ok := o.lookup(key)
	if !ok {
		return nil, o.fail(key, "required")
	}

	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		data, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, o.fail(key, "invalid base64: "+err.Error())
		}
		return data, nil
	case []interface{}:
		data := make([]byte, len(b))
		for i, item := range b {
			n, ok := toInt(item)
			if !ok || n < 0 || n > math.MaxUint8 {
				return nil, &DecodeError{Path: fmt.Sprintf("%s[%d]", o.at(key), i), Reason: "expected byte value 0-255"}
			}
			data[i] = byte(n)
		}
		return data, nil
	default:
		return nil, o.fail(key, fmt.Sprintf("expected bytes, got %s", kindOf(v)))
	}
}

// DecodeBytes decodes a byte argument given as a base64 string or an array
// of byte values
func DecodeBytes(name string, raw interface{}) ([]byte, error) {
	if msg, ok := raw.(json.RawMessage); ok {
		var parsed interface{}
		if err := json.Unmarshal(msg, &parsed); err != nil {
			return nil, &DecodeError{Path: name, Reason: "invalid JSON: " + err.Error()}
		}
		raw = parsed
	}
	o := object{path: "args", m: map[string]interface{}{name: raw}}
	return o.reqBytes(name)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
