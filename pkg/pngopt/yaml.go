package pngopt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOptionsFile reads a YAML option document. See ParseOptions.
func LoadOptionsFile(path string) ([]Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Category: CategoryOther, Message: fmt.Sprintf("read options file %s: %v", path, err), Err: err}
	}
	return ParseOptions(data)
}

// ParseOptions turns a YAML mapping of option names into overrides, in document
// order. A "level" entry is returned as an override and seeds the preset when the
// result is passed to Resolve with a nil level.
//
//	level: 4
//	filter: [Sub, Up]
//	interlace: Adam7
//	strip: {keep: [sRGB, pHYs]}
//	deflate: {zlib: {compression: [8, 9], strategies: [0], window: 15}}
//	timeout: 1.5
func ParseOptions(data []byte) ([]Override, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Category: CategoryInvalidOption, Message: fmt.Sprintf("parse options: %v", err), Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &Error{Category: CategoryInvalidOption, Message: fmt.Sprintf("line %d: options must be a mapping", root.Line)}
	}

	overrides := make([]Override, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		v, err := yamlValue(key, value)
		if err != nil {
			if _, ok := err.(*Error); ok {
				return nil, optionError(key, err)
			}
			return nil, &Error{
				Category: CategoryInvalidValue,
				Key:      key,
				Message:  fmt.Sprintf("line %d: %v", value.Line, err),
				Err:      err,
			}
		}
		overrides = append(overrides, Override{Key: key, Value: v})
	}
	return overrides, nil
}

func yamlValue(key string, node *yaml.Node) (any, error) {
	if _, ok := boolFields[key]; ok {
		var b bool
		err := node.Decode(&b)
		return b, err
	}

	switch key {
	case keyLevel:
		var n int
		err := node.Decode(&n)
		return n, err
	case "filter":
		var names []string
		err := node.Decode(&names)
		return names, err
	case "interlace":
		if isNull(node) {
			return nil, nil
		}
		var name string
		if err := node.Decode(&name); err != nil {
			return nil, err
		}
		return ParseInterlacing(name)
	case "strip":
		return yamlStrip(node)
	case "deflate":
		return yamlDeflate(node)
	case "timeout":
		if isNull(node) {
			return nil, nil
		}
		var seconds float64
		err := node.Decode(&seconds)
		return seconds, err
	}
	return nil, &Error{
		Category: CategoryUnsupportedOption,
		Key:      key,
		Message:  fmt.Sprintf("line %d: unsupported option %q", node.Line, key),
	}
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// yamlStrip accepts none, safe, all, {strip: [...]} or {keep: [...]}.
func yamlStrip(node *yaml.Node) (StripChunks, error) {
	if node.Kind == yaml.ScalarNode {
		return ParseStripChunks(node.Value)
	}
	var m map[string][]string
	if err := node.Decode(&m); err != nil {
		return StripChunks{}, err
	}
	if len(m) != 1 {
		return StripChunks{}, fmt.Errorf("strip mapping must have exactly one of strip or keep")
	}
	for kind, names := range m {
		switch kind {
		case "strip":
			return StripList(Seq[string](names))
		case "keep":
			return KeepList(Seq[string](names))
		}
		return StripChunks{}, fmt.Errorf("unknown strip policy %q", kind)
	}
	return StripChunks{}, nil
}

type yamlZlib struct {
	Compression []int `yaml:"compression"`
	Strategies  []int `yaml:"strategies"`
	Window      *int  `yaml:"window"`
}

type yamlZopfli struct {
	Iterations int `yaml:"iterations"`
}

type yamlLibdeflater struct {
	Compression int `yaml:"compression"`
}

type yamlDeflaters struct {
	Zlib        *yamlZlib        `yaml:"zlib"`
	Zopfli      *yamlZopfli      `yaml:"zopfli"`
	Libdeflater *yamlLibdeflater `yaml:"libdeflater"`
}

// yamlDeflate accepts {zlib: {...}}, {zopfli: {iterations: n}},
// {libdeflater: {compression: n}} or the compact string form.
func yamlDeflate(node *yaml.Node) (Deflaters, error) {
	if node.Kind == yaml.ScalarNode {
		return ParseDeflaters(node.Value)
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return Deflaters{}, fmt.Errorf("deflate mapping must have exactly one of zlib, zopfli or libdeflater")
	}
	var d yamlDeflaters
	if err := node.Decode(&d); err != nil {
		return Deflaters{}, err
	}
	switch {
	case d.Zlib != nil:
		var opts []ZlibOption
		if d.Zlib.Compression != nil {
			opts = append(opts, ZlibCompression(Seq[int](d.Zlib.Compression)))
		}
		if d.Zlib.Strategies != nil {
			opts = append(opts, ZlibStrategies(Seq[int](d.Zlib.Strategies)))
		}
		if d.Zlib.Window != nil {
			opts = append(opts, ZlibWindow(*d.Zlib.Window))
		}
		return Zlib(opts...)
	case d.Zopfli != nil:
		return Zopfli(d.Zopfli.Iterations)
	case d.Libdeflater != nil:
		return Libdeflater(d.Libdeflater.Compression)
	}
	return Deflaters{}, fmt.Errorf("unknown deflater %q", node.Content[0].Value)
}
