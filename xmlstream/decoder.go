package xmlstream

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrMalformedStream kennzeichnet kaputtes Container-XML. Der Lauf muss abbrechen.
var ErrMalformedStream = errors.New("malformed xml stream")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// OpenEnvelope erkennt gzip- oder zstd-Kompression anhand der ersten Bytes
// und entpackt transparent. Unkomprimierte Eingaben werden durchgereicht.
// Close schließt nur den Dekompressor, nicht r.
func OpenEnvelope(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("peek envelope: %w", err)
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip envelope: %w", err)
		}
		return zr, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open zstd envelope: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

// Decoder liefert nacheinander alle Elemente mit dem Record-Tag.
// Es wird immer nur ein Teilbaum im Speicher gehalten.
type Decoder struct {
	dec *xml.Decoder
	tag string
}

// NewDecoder erstellt einen Decoder für Elemente mit dem lokalen Namen tag.
func NewDecoder(r io.Reader, tag string) *Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &Decoder{dec: dec, tag: tag}
}

// Next gibt den nächsten Record zurück, io.EOF am Ende des Streams.
// Alle anderen Fehler wrappen ErrMalformedStream.
func (d *Decoder) Next() (*Node, error) {
	for {
		tok, err := d.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedStream, err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == d.tag {
			return d.subtree(se)
		}
	}
}

// InputOffset gibt die aktuelle Byte-Position im (entpackten) Stream zurück.
func (d *Decoder) InputOffset() int64 {
	return d.dec.InputOffset()
}

func (d *Decoder) subtree(start xml.StartElement) (*Node, error) {
	root := newNode(start)
	stack := []*Node{root}
	for len(stack) > 0 {
		tok, err := d.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("%w: inside <%s>: %w", ErrMalformedStream, root.Name, err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := newNode(t)
			top.Children = append(top.Children, n)
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if k := len(top.Children); k > 0 {
				top.Children[k-1].Tail += string(t)
			} else {
				top.Text += string(t)
			}
		}
	}
	return root, nil
}

func newNode(se xml.StartElement) *Node {
	n := &Node{Name: se.Name.Local}
	if len(se.Attr) > 0 {
		n.Attrs = make(map[string]string, len(se.Attr))
		for _, a := range se.Attr {
			n.Attrs[a.Name.Local] = a.Value
		}
	}
	return n
}
