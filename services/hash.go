package services

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
)

// ContentHash berechnet die Identität aus den natürlichen Schlüsselfeldern.
// Felder werden NFC-normalisiert und Leerraum wird zusammengefasst; nil und
// "" ergeben unterschiedliche Hashes. Ergebnis: 64 Hex-Zeichen (BLAKE3-256).
func ContentHash(fields ...*string) string {
	h := blake3.New()
	var lenBuf [binary.MaxVarintLen64]byte
	for _, f := range fields {
		if f == nil {
			_, _ = h.Write([]byte{0})
			continue
		}
		v := canonical(*f)
		n := binary.PutUvarint(lenBuf[:], uint64(len(v)))
		_, _ = h.Write([]byte{1})
		_, _ = h.Write(lenBuf[:n])
		_, _ = h.Write([]byte(v))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonical(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// linkHash hasht das Schlüsseltupel einer Verknüpfungszeile.
func linkHash(table string, parts ...any) string {
	fields := make([]*string, 0, len(parts)+1)
	fields = append(fields, &table)
	for _, p := range parts {
		fields = append(fields, keyString(p))
	}
	return ContentHash(fields...)
}

func keyString(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case *uint:
		if t == nil {
			return nil
		}
		s = strconv.FormatUint(uint64(*t), 10)
	case *string:
		return t
	case uint:
		s = strconv.FormatUint(uint64(t), 10)
	case int:
		s = strconv.Itoa(t)
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

func intString(v *int) *string {
	if v == nil {
		return nil
	}
	s := strconv.Itoa(*v)
	return &s
}
