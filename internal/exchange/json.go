// Package exchange converts mind map documents to and from portable files
package exchange

import (
	"bytes"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

const (
	// DefaultFilename is the name suggested for exported documents.
	DefaultFilename = "mindmap.json"

	// MIMEType of exported documents.
	MIMEType = "application/json"
)

// Encode returns the compact JSON form of doc, as written by the stores.
func Encode(doc *model.Document) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal document")
	}
	return data, nil
}

// Marshal returns the pretty-printed JSON form of doc.
func Marshal(doc *model.Document) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal document")
	}
	return append(data, '\n'), nil
}

// Export writes the pretty-printed document to w.
func Export(doc *model.Document, w io.Writer) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write export")
	}
	return nil
}

// ExportFile writes the pretty-printed document to a file.
func ExportFile(doc *model.Document, filePath string) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write export file")
	}
	return nil
}

// docProbe reads just enough of a payload to check its shape before the full
// decode.
type docProbe struct {
	Version *string `json:"version"`
	Root    *struct {
		ID *string `json:"id"`
	} `json:"root"`
}

// Decode parses and validates a serialized document. Every failure is a
// *model.MalformedInputError.
func Decode(data []byte) (*model.Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, model.Malformed("empty input", nil)
	}

	var probe docProbe
	if err := sonic.ConfigStd.Unmarshal(data, &probe); err != nil {
		return nil, model.Malformed("not a JSON document", err)
	}
	if probe.Root == nil {
		return nil, model.Malformed("missing root", nil)
	}
	if probe.Root.ID == nil || *probe.Root.ID == "" {
		return nil, model.Malformed("root has no id", nil)
	}
	if probe.Version != nil && *probe.Version != model.FormatVersion {
		return nil, model.Malformed("unsupported version "+*probe.Version, nil)
	}

	var doc model.Document
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		return nil, model.Malformed("invalid document", err)
	}
	if doc.Version == "" {
		doc.Version = model.FormatVersion
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate applies the import checks to an already decoded document: tree
// invariants and parseable colors.
func Validate(doc *model.Document) error {
	if err := doc.Validate(); err != nil {
		return model.Malformed("invalid tree", err)
	}
	var err error
	doc.Walk(func(n *model.Node, _ int) bool {
		if _, cerr := model.NormalizeColor(n.BaseColor); cerr != nil {
			err = model.Malformed("node "+n.ID+" has an invalid baseColor", cerr)
			return false
		}
		return true
	})
	return err
}

// Import reads a whole document from r.
func Import(r io.Reader) (*model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read import")
	}
	return Decode(data)
}

// ImportFile reads a document from a file.
func ImportFile(filePath string) (*model.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read import file")
	}
	return Decode(data)
}
