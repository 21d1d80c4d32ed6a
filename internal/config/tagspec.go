package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cipdip/enipsim/internal/cip"
)

// TagSpec describes one tag to create at startup: its name, element type,
// and array size (1 for a scalar).
type TagSpec struct {
	Name string
	Type cip.DataType
	Size int
}

// ParseTagSpec parses the CLI positional-argument grammar: "NAME=TYPE[SIZE]"
// where TYPE defaults to INT and SIZE defaults to 1 when omitted ("NAME"
// alone, or "NAME=TYPE" alone, are both valid).
func ParseTagSpec(s string) (TagSpec, error) {
	name, rest, hasType := strings.Cut(s, "=")
	if name == "" {
		return TagSpec{}, fmt.Errorf("config: empty tag name in %q", s)
	}
	spec := TagSpec{Name: name, Type: cip.TypeINT, Size: 1}
	if !hasType {
		return spec, nil
	}

	typeName := rest
	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return TagSpec{}, fmt.Errorf("config: unterminated size in %q", s)
		}
		typeName = rest[:i]
		sizeStr := rest[i+1 : len(rest)-1]
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			return TagSpec{}, fmt.Errorf("config: invalid size %q in %q", sizeStr, s)
		}
		spec.Size = size
	}

	t, err := cip.ParseDataType(strings.ToUpper(typeName))
	if err != nil {
		return TagSpec{}, fmt.Errorf("config: %w (in %q)", err, s)
	}
	spec.Type = t
	return spec, nil
}

// ParseTagSpecs parses a slice of "NAME=TYPE[SIZE]" positional arguments.
func ParseTagSpecs(args []string) ([]TagSpec, error) {
	specs := make([]TagSpec, 0, len(args))
	for _, a := range args {
		s, err := ParseTagSpec(a)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}
