// SPDX-License-Identifier: MIT

// Package output serialises feature matrices for the CLI and the
// feature server.
package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"fbank/pkg/fbank"
)

// Format selects an encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
	FormatText // Kaldi text archive
)

var ErrUnknownFormat = errors.New("unknown output format")

// String returns the flag value for the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	case FormatText:
		return "text"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a name (case-insensitive) to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "text", "txt", "ark":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Features is one utterance's feature matrix plus its identity.
type Features struct {
	ID     string       `json:"id" msgpack:"id"`
	Frames int          `json:"frames" msgpack:"frames"`
	Bins   int          `json:"bins" msgpack:"bins"`
	Data   fbank.Matrix `json:"data" msgpack:"data"`
}

// NewFeatures wraps m with its shape.
func NewFeatures(id string, m fbank.Matrix) Features {
	return Features{ID: id, Frames: m.Rows(), Bins: m.Cols(), Data: m}
}

// Encode writes feats to w in format f.
func Encode(w io.Writer, f Format, feats Features) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(feats)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(&feats)
	case FormatText:
		return encodeText(w, feats)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// Decode reads one Features value in format f. Text archives are
// write-only.
func Decode(r io.Reader, f Format) (Features, error) {
	var feats Features
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&feats)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&feats)
	default:
		return feats, fmt.Errorf("%w: cannot decode %v", ErrUnknownFormat, f)
	}
	if err != nil {
		return feats, fmt.Errorf("decoding %v features: %w", f, err)
	}
	return feats, nil
}

// encodeText writes the Kaldi text layout:
//
//	id  [
//	  v v v
//	  v v v ]
func encodeText(w io.Writer, feats Features) error {
	bw := bufio.NewWriter(w)
	id := feats.ID
	if id == "" {
		id = "utt"
	}
	bw.WriteString(id)
	bw.WriteString("  [")
	if feats.Data.Rows() == 0 {
		bw.WriteString(" ]\n")
		return bw.Flush()
	}

	buf := make([]byte, 0, 16)
	for i, row := range feats.Data {
		bw.WriteString("\n ")
		for _, v := range row {
			buf = strconv.AppendFloat(buf[:0], float64(v), 'g', -1, 32)
			bw.WriteByte(' ')
			bw.Write(buf)
		}
		if i == feats.Data.Rows()-1 {
			bw.WriteString(" ]")
		}
	}
	bw.WriteByte('\n')
	return bw.Flush()
}
