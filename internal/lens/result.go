package lens

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// textRegionTag prefixes the tag of detected objects that are text regions.
const textRegionTag = "text:"

// errShape marks a structural miss: the decoded data does not have the layout
// a strategy expects, and the next strategy should be tried.
var errShape = errors.New("unexpected structure")

// Segment is one recognized run of text.
type Segment struct {
	Text        string      `json:"text"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// Result is the outcome of one scan. Segments are in the order the service
// returned them.
type Result struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Text joins the segment texts with newlines.
func (r *Result) Text() string {
	lines := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n")
}

// extraction is what a strategy recovers: parallel texts and
// [centerX, centerY, width, height] regions.
type extraction struct {
	texts   []string
	regions [][]float64
}

type strategy struct {
	name    string
	extract func(data, textPart []any) (extraction, error)
}

// strategies are tried in order; a strategy returning errShape hands over to
// the next one. Any other error ends the parse.
var strategies = []strategy{
	{name: "direct", extract: extractDirect},
	{name: "parts", extract: extractParts},
}

// ParseResult builds a Result from a decoded detection blob.
//
// The blob's "data" array holds the language at data[3][3]. Text and regions
// are read by the first strategy whose layout matches. Each region is placed
// in an image of size dims.
func ParseResult(decoded any, dims Dimensions) (*Result, error) {
	root, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: blob root is %T, want object", ErrBlobParse, decoded)
	}
	data, ok := root["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: blob has no data array", ErrBlobParse)
	}
	textPart, err := arrayAt(data, 3)
	if err != nil {
		return nil, fmt.Errorf("%w: text section: %w", ErrBlobParse, err)
	}
	langValue, err := at(textPart, 3)
	if err != nil {
		return nil, fmt.Errorf("%w: language: %w", ErrBlobParse, err)
	}
	language, _ := langValue.(string)

	var misses []error
	for _, s := range strategies {
		ex, err := s.extract(data, textPart)
		if errors.Is(err, errShape) {
			log.Printf("lens: %s extraction did not match: %v", s.name, err)
			misses = append(misses, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(ex.texts) != len(ex.regions) {
			return nil, fmt.Errorf("%w: %s extraction found %d texts but %d regions",
				ErrBlobParse, s.name, len(ex.texts), len(ex.regions))
		}

		segments := make([]Segment, len(ex.texts))
		for i, text := range ex.texts {
			box, err := NewBoundingBox(ex.regions[i], dims)
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			segments[i] = Segment{Text: text, BoundingBox: box}
		}
		return &Result{Language: language, Segments: segments}, nil
	}

	return nil, fmt.Errorf("%w: no extraction matched: %w", ErrBlobParse, errors.Join(misses...))
}

// extractDirect reads the flat text list at data[3][4][0][0] and pairs it by
// position with the regions of the text-tagged objects in data[2][3][0].
func extractDirect(data, textPart []any) (extraction, error) {
	rawTexts, err := arrayAt(textPart, 4, 0, 0)
	if err != nil {
		return extraction{}, fmt.Errorf("texts: %w", err)
	}
	texts := make([]string, len(rawTexts))
	for i, t := range rawTexts {
		s, ok := t.(string)
		if !ok {
			return extraction{}, fmt.Errorf("%w: text %d is %T", errShape, i, t)
		}
		texts[i] = s
	}

	objects, err := arrayAt(data, 2, 3, 0)
	if err != nil {
		return extraction{}, fmt.Errorf("objects: %w", err)
	}
	var regions [][]float64
	for i, obj := range objects {
		tagValue, err := at(obj, 11)
		if err != nil {
			return extraction{}, fmt.Errorf("object %d: %w", i, err)
		}
		tag, _ := tagValue.(string)
		if !strings.HasPrefix(tag, textRegionTag) {
			continue
		}
		region, err := numbersAt(obj, 1)
		if err != nil {
			return extraction{}, fmt.Errorf("object %d region: %w", i, err)
		}
		regions = append(regions, region)
	}

	return extraction{texts: texts, regions: regions}, nil
}

// extractParts walks the grouped layout at data[3][2][0]. Each part is a list
// of tokens plus a [topLeftY, topLeftX, width, height] region; a token's text
// is token[0] followed by its optional separator token[3].
func extractParts(_, textPart []any) (extraction, error) {
	groups, err := arrayAt(textPart, 2, 0)
	if err != nil {
		return extraction{}, fmt.Errorf("groups: %w", err)
	}

	var ex extraction
	for gi, group := range groups {
		parts, err := arrayAt(group, 0)
		if err != nil {
			return extraction{}, fmt.Errorf("group %d: %w", gi, err)
		}
		for pi, part := range parts {
			tokens, err := arrayAt(part, 0)
			if err != nil {
				return extraction{}, fmt.Errorf("group %d part %d: %w", gi, pi, err)
			}

			var text strings.Builder
			for ti, tok := range tokens {
				word, err := at(tok, 0)
				if err != nil {
					return extraction{}, fmt.Errorf("group %d part %d token %d: %w", gi, pi, ti, err)
				}
				s, ok := word.(string)
				if !ok {
					return extraction{}, fmt.Errorf("%w: token %d text is %T", errShape, ti, word)
				}
				text.WriteString(s)
				if sep, err := at(tok, 3); err == nil {
					if s, ok := sep.(string); ok {
						text.WriteString(s)
					}
				}
			}

			topLeft, err := numbersAt(part, 1)
			if err != nil {
				return extraction{}, fmt.Errorf("group %d part %d region: %w", gi, pi, err)
			}
			region, err := CenterFromTopLeft(topLeft)
			if err != nil {
				return extraction{}, fmt.Errorf("group %d part %d: %w", gi, pi, err)
			}

			ex.texts = append(ex.texts, text.String())
			ex.regions = append(ex.regions, region)
		}
	}
	return ex, nil
}

// at walks nested arrays by index.
func at(v any, path ...int) (any, error) {
	for _, i := range path {
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an array", errShape, v)
		}
		if i >= len(arr) {
			return nil, fmt.Errorf("%w: index %d out of range (len %d)", errShape, i, len(arr))
		}
		v = arr[i]
	}
	return v, nil
}

func arrayAt(v any, path ...int) ([]any, error) {
	v, err := at(v, path...)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an array", errShape, v)
	}
	return arr, nil
}

func numbersAt(v any, path ...int) ([]float64, error) {
	arr, err := arrayAt(v, path...)
	if err != nil {
		return nil, err
	}
	nums := make([]float64, len(arr))
	for i, n := range arr {
		f, ok := n.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: component %d is %T", errShape, i, n)
		}
		nums[i] = f
	}
	return nums, nil
}
