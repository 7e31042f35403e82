package report

import (
	"io"

	"github.com/goccy/go-json"
)

// JSONOutput is the JSON structure written to output files.
type JSONOutput struct {
	Document     string    `json:"document,omitempty"`
	Revision     string    `json:"revision,omitempty"`
	Valid        bool      `json:"valid"`
	Messages     []Message `json:"messages"`
	FatalCount   int       `json:"fatal_count"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
	InfoCount    int       `json:"info_count"`
}

// Output builds the JSON structure for the report.
func (r *Report) Output() JSONOutput {
	out := JSONOutput{
		Document:     r.Document,
		Revision:     r.Revision,
		Valid:        r.IsValid(),
		Messages:     r.Messages,
		FatalCount:   r.FatalCount(),
		ErrorCount:   r.ErrorCount(),
		WarningCount: r.WarningCount(),
		InfoCount:    r.InfoCount(),
	}
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return out
}

// WriteJSON writes the report in JSON format to w.
func (r *Report) WriteJSON(w io.Writer) error {
	return WriteJSON(w, r.Output())
}

// WriteJSON encodes any report output value with indentation.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ReadJSON decodes a report previously written by WriteJSON.
func ReadJSON(r io.Reader) (*JSONOutput, error) {
	var out JSONOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
