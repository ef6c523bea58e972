package loader

import (
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// structuredEnhanced understands CSV as a Table element and JSON/YAML as a
// pretty-printed NarrativeText element, so an ingested config or dataset
// file remains searchable without losing its shape entirely.
type structuredEnhanced struct{}

func (structuredEnhanced) Method() Method { return MethodEnhanced }

func (structuredEnhanced) Extract(path string, raw []byte, _ Options) ([]Element, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		r := csv.NewReader(strings.NewReader(string(raw)))
		rows, err := r.ReadAll()
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		return []Element{{Kind: Table, Text: renderTable(rows), TableRows: rows}}, nil
	case ".json":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return []Element{{Kind: NarrativeText, Text: string(pretty)}}, nil
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		pretty, err := yaml.Marshal(v)
		if err != nil {
			return nil, err
		}
		return []Element{{Kind: NarrativeText, Text: string(pretty)}}, nil
	}
	return nil, nil
}

// structuredBasic treats the file as opaque text, useful when the payload is
// not valid JSON/YAML/CSV but still worth indexing verbatim.
type structuredBasic struct{}

func (structuredBasic) Method() Method { return MethodBasic }

func (structuredBasic) Extract(_ string, raw []byte, _ Options) ([]Element, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	return []Element{{Kind: NarrativeText, Text: text}}, nil
}
