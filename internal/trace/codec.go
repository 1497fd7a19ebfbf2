package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"mimble/internal/source"
	"mimble/internal/value"
)

// Wire shapes shared by the JSON, NDJSON and msgpack encodings. They follow
// the host's TraceEvent/Value/Type/DataSource unions: every variant carries
// a "kind" tag and only its own fields. An Init event stores its target
// under "location".

type wireSource struct {
	Kind  string  `json:"kind" msgpack:"kind"`
	Name  string  `json:"name,omitempty" msgpack:"name,omitempty"`
	ID    *uint64 `json:"id,omitempty" msgpack:"id,omitempty"`
	Index *int    `json:"index,omitempty" msgpack:"index,omitempty"`
}

type wireType struct {
	Kind        string    `json:"kind" msgpack:"kind"`
	ElementType *wireType `json:"element_type,omitempty" msgpack:"element_type,omitempty"`
}

type wireFunc struct {
	Kind string `json:"kind" msgpack:"kind"`
	Name string `json:"name" msgpack:"name"`
}

// wireValue: scalars keep their payload in "value"; arrays are flattened
// into id/elements/element_type; builtins carry func_type.
type wireValue struct {
	Kind        string         `json:"kind" msgpack:"kind"`
	Value       any            `json:"value,omitempty" msgpack:"value,omitempty"`
	ID          *uint64        `json:"id,omitempty" msgpack:"id,omitempty"`
	Elements    *[]wireTracked `json:"elements,omitempty" msgpack:"elements,omitempty"`
	ElementType *wireType      `json:"element_type,omitempty" msgpack:"element_type,omitempty"`
	FuncType    *wireFunc      `json:"func_type,omitempty" msgpack:"func_type,omitempty"`
}

type wireTracked struct {
	Value  wireValue  `json:"value" msgpack:"value"`
	Source wireSource `json:"source" msgpack:"source"`
}

type wireSpan struct {
	File  uint32 `json:"file" msgpack:"file"`
	Start uint32 `json:"start" msgpack:"start"`
	End   uint32 `json:"end" msgpack:"end"`
}

type wireEvent struct {
	Kind     string       `json:"kind" msgpack:"kind"`
	Step     uint64       `json:"step" msgpack:"step"`
	Line     uint32       `json:"line,omitempty" msgpack:"line,omitempty"`
	Col      uint32       `json:"col,omitempty" msgpack:"col,omitempty"`
	Span     wireSpan     `json:"span" msgpack:"span"`
	Location *wireSource  `json:"location,omitempty" msgpack:"location,omitempty"`
	From     *wireSource  `json:"from,omitempty" msgpack:"from,omitempty"`
	To       *wireSource  `json:"to,omitempty" msgpack:"to,omitempty"`
	Value    *wireTracked `json:"value,omitempty" msgpack:"value,omitempty"`
	Left     *wireTracked `json:"left,omitempty" msgpack:"left,omitempty"`
	Right    *wireTracked `json:"right,omitempty" msgpack:"right,omitempty"`
	Result   *bool        `json:"result,omitempty" msgpack:"result,omitempty"`
	Label    string       `json:"label,omitempty" msgpack:"label,omitempty"`
}

// Encode writes events in the given format. FormatAuto is treated as NDJSON.
func Encode(w io.Writer, events []Event, format Format) error {
	switch format {
	case FormatJSON:
		wire := make([]wireEvent, len(events))
		for i, ev := range events {
			wire[i] = toWire(ev)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(wire)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		for _, ev := range events {
			if err := enc.Encode(toWire(ev)); err != nil {
				return err
			}
		}
		return nil
	case FormatText:
		for _, ev := range events {
			if _, err := w.Write(formatText(ev)); err != nil {
				return err
			}
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		for _, ev := range events {
			if err := enc.Encode(toWire(ev)); err != nil {
				return err
			}
		}
		return nil
	}
}

// ErrNotDecodable is returned by Decode for output-only formats.
var ErrNotDecodable = errors.New("trace: format cannot be decoded")

// Decode reads events written by Encode or by a StreamTracer.
func Decode(r io.Reader, format Format) ([]Event, error) {
	var wire []wireEvent
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&wire); err != nil {
			return nil, fmt.Errorf("decode json trace: %w", err)
		}
	case FormatNDJSON, FormatAuto:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		for {
			var we wireEvent
			if err := dec.Decode(&we); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("decode ndjson trace: record %d: %w", len(wire)+1, err)
			}
			wire = append(wire, we)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		for {
			var we wireEvent
			if err := dec.Decode(&we); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("decode msgpack trace: record %d: %w", len(wire)+1, err)
			}
			wire = append(wire, we)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotDecodable, format)
	}

	events := make([]Event, 0, len(wire))
	for i, we := range wire {
		ev, err := fromWire(we)
		if err != nil {
			return nil, fmt.Errorf("trace record %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func toWire(ev Event) wireEvent {
	we := wireEvent{
		Kind:  ev.Kind.String(),
		Step:  ev.Step,
		Line:  ev.Pos.Line,
		Col:   ev.Pos.Col,
		Span:  wireSpan{File: uint32(ev.Span.File), Start: ev.Span.Start, End: ev.Span.End},
		Label: ev.Label,
	}
	switch ev.Kind {
	case KindInit:
		loc := sourceToWire(ev.To)
		val := trackedToWire(ev.Value)
		we.Location, we.Value = &loc, &val
	case KindAssign:
		from, to := sourceToWire(ev.From), sourceToWire(ev.To)
		val := trackedToWire(ev.Value)
		we.From, we.To, we.Value = &from, &to, &val
	case KindCompare:
		left, right := trackedToWire(ev.Left), trackedToWire(ev.Right)
		result := ev.Result
		we.Left, we.Right, we.Result = &left, &right, &result
	case KindValue:
		val := trackedToWire(ev.Value)
		we.Value = &val
	}
	return we
}

func fromWire(we wireEvent) (Event, error) {
	kind, ok := ParseKind(we.Kind)
	if !ok {
		return Event{}, fmt.Errorf("unknown event kind %q", we.Kind)
	}
	ev := Event{
		Kind:  kind,
		Step:  we.Step,
		Pos:   source.LineCol{Line: we.Line, Col: we.Col},
		Span:  source.Span{File: source.FileID(we.Span.File), Start: we.Span.Start, End: we.Span.End},
		Label: we.Label,
	}
	var err error
	if we.Location != nil {
		if ev.To, err = sourceFromWire(*we.Location); err != nil {
			return Event{}, err
		}
	}
	if we.From != nil {
		if ev.From, err = sourceFromWire(*we.From); err != nil {
			return Event{}, err
		}
	}
	if we.To != nil {
		if ev.To, err = sourceFromWire(*we.To); err != nil {
			return Event{}, err
		}
	}
	if we.Value != nil {
		if ev.Value, err = trackedFromWire(*we.Value); err != nil {
			return Event{}, err
		}
	}
	if we.Left != nil {
		if ev.Left, err = trackedFromWire(*we.Left); err != nil {
			return Event{}, err
		}
	}
	if we.Right != nil {
		if ev.Right, err = trackedFromWire(*we.Right); err != nil {
			return Event{}, err
		}
	}
	if we.Result != nil {
		ev.Result = *we.Result
	}
	return ev, nil
}

func sourceToWire(s value.Source) wireSource {
	ws := wireSource{Kind: s.Kind.String(), Name: s.Name}
	if s.Kind == value.SourceArraySlot {
		id, index := s.ArrayID, s.Index
		ws.ID, ws.Index = &id, &index
	}
	return ws
}

func sourceFromWire(ws wireSource) (value.Source, error) {
	kind, ok := value.ParseSourceKind(ws.Kind)
	if !ok {
		return value.Source{}, fmt.Errorf("unknown data source %q", ws.Kind)
	}
	src := value.Source{Kind: kind, Name: ws.Name}
	if ws.ID != nil {
		src.ArrayID = *ws.ID
	}
	if ws.Index != nil {
		src.Index = *ws.Index
	}
	return src, nil
}

func trackedToWire(t value.Tracked) wireTracked {
	return wireTracked{Value: valueToWire(t.Value), Source: sourceToWire(t.Source)}
}

func trackedFromWire(wt wireTracked) (value.Tracked, error) {
	v, err := valueFromWire(wt.Value)
	if err != nil {
		return value.Tracked{}, err
	}
	src, err := sourceFromWire(wt.Source)
	if err != nil {
		return value.Tracked{}, err
	}
	return value.Tracked{Value: v, Source: src}, nil
}

func valueToWire(v value.Value) wireValue {
	wv := wireValue{Kind: v.Kind.String()}
	switch v.Kind {
	case value.KindInt:
		wv.Value = v.Int
	case value.KindFloat:
		wv.Value = v.Float
	case value.KindString:
		wv.Value = v.Str
	case value.KindBool:
		wv.Value = v.Bool
	case value.KindFunc:
		wv.FuncType = &wireFunc{Kind: "Native", Name: v.Str}
	case value.KindArray:
		var id uint64
		elems := []wireTracked{}
		elemType := typeToWire(value.TypeNil)
		if v.Arr != nil {
			id = v.Arr.ID
			elemType = typeToWire(v.Arr.Elem)
			for _, el := range v.Arr.Elems {
				elems = append(elems, trackedToWire(el))
			}
		}
		wv.ID, wv.Elements, wv.ElementType = &id, &elems, &elemType
	}
	return wv
}

func valueFromWire(wv wireValue) (value.Value, error) {
	kind, ok := parseValueKind(wv.Kind)
	if !ok {
		return value.Nil, fmt.Errorf("unknown value kind %q", wv.Kind)
	}
	switch kind {
	case value.KindInt:
		n, err := wireInt(wv.Value)
		if err != nil {
			return value.Nil, err
		}
		return value.Int(n), nil
	case value.KindFloat:
		f, err := wireFloat(wv.Value)
		if err != nil {
			return value.Nil, err
		}
		return value.Float(f), nil
	case value.KindString:
		s, ok := wv.Value.(string)
		if !ok {
			return value.Nil, fmt.Errorf("string value: unexpected %T", wv.Value)
		}
		return value.String(s), nil
	case value.KindBool:
		b, ok := wv.Value.(bool)
		if !ok {
			return value.Nil, fmt.Errorf("boolean value: unexpected %T", wv.Value)
		}
		return value.Bool(b), nil
	case value.KindFunc:
		if wv.FuncType == nil {
			return value.Nil, errors.New("function value without func_type")
		}
		return value.Func(wv.FuncType.Name), nil
	case value.KindArray:
		arr := &value.Array{Elem: value.TypeNil}
		if wv.ID != nil {
			arr.ID = *wv.ID
		}
		if wv.ElementType != nil {
			elem, err := typeFromWire(*wv.ElementType)
			if err != nil {
				return value.Nil, err
			}
			arr.Elem = elem
		}
		if wv.Elements != nil {
			for _, we := range *wv.Elements {
				el, err := trackedFromWire(we)
				if err != nil {
					return value.Nil, err
				}
				arr.Elems = append(arr.Elems, el)
			}
		}
		return value.FromArray(arr), nil
	default:
		return value.Nil, nil
	}
}

// wireInt принимает то, во что декодер положил число: json.Number
// (UseNumber) или один из целых типов msgpack.
func wireInt(x any) (int64, error) {
	switch n := x.(type) {
	case json.Number:
		return n.Int64()
	case int64:
		return n, nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return safecast.Conv[int64](n)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("integer value: unexpected %T", x)
	}
}

func wireFloat(x any) (float64, error) {
	switch n := x.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case nil:
		return 0, nil
	default:
		i, err := wireInt(x)
		if err != nil {
			return 0, fmt.Errorf("float value: unexpected %T", x)
		}
		return float64(i), nil
	}
}

func typeToWire(t value.Type) wireType {
	wt := wireType{Kind: t.Kind.String()}
	if t.Kind == value.KindArray {
		elem := typeToWire(value.TypeNil)
		if t.Elem != nil {
			elem = typeToWire(*t.Elem)
		}
		wt.ElementType = &elem
	}
	return wt
}

func typeFromWire(wt wireType) (value.Type, error) {
	kind, ok := parseValueKind(wt.Kind)
	if !ok {
		return value.Type{}, fmt.Errorf("unknown type %q", wt.Kind)
	}
	if kind != value.KindArray {
		return value.Type{Kind: kind}, nil
	}
	elem := value.TypeNil
	if wt.ElementType != nil {
		var err error
		if elem, err = typeFromWire(*wt.ElementType); err != nil {
			return value.Type{}, err
		}
	}
	return value.ArrayOf(elem), nil
}

func parseValueKind(s string) (value.Kind, bool) {
	for k := value.KindNil; k <= value.KindFunc; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return value.KindNil, false
}
