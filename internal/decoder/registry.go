package decoder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry holds all available decoders and provides auto-detection.
type Registry struct {
	decoders []Decoder
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: []Decoder{
			NewXLSXDecoder(),
			NewXLSDecoder(),
			NewCSVDecoder(),
		},
	}
}

// Register adds a new decoder to the registry.
func (r *Registry) Register(d Decoder) {
	r.decoders = append(r.decoders, d)
}

// Find detects the decoder for a file. Content sniffing wins over the
// extension so a renamed workbook still opens.
func (r *Registry) Find(filename string, head []byte) (Decoder, error) {
	for _, d := range r.decoders {
		if d.Sniff(head) {
			return d, nil
		}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, d := range r.decoders {
		for _, e := range d.Extensions() {
			if e == ext {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// GetDecoderByName returns a decoder by its name, ignoring case.
func (r *Registry) GetDecoderByName(name string) (Decoder, error) {
	name = strings.ToLower(name)
	for _, d := range r.decoders {
		if strings.ToLower(d.Name()) == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: no decoder named %q", ErrUnsupportedFormat, name)
}

// Extensions returns every extension some decoder handles.
func (r *Registry) Extensions() []string {
	var out []string
	for _, d := range r.decoders {
		out = append(out, d.Extensions()...)
	}
	return out
}
