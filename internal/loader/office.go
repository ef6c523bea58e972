package loader

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// officeEnhanced renders each worksheet as a Title (the sheet name) followed
// by a Table element built from its rows.
type officeEnhanced struct{}

func (officeEnhanced) Method() Method { return MethodEnhanced }

func (officeEnhanced) Extract(path string, _ []byte, _ Options) ([]Element, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var elements []Element
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		elements = append(elements, Element{Kind: Title, Text: sheet})
		elements = append(elements, Element{Kind: Table, Text: renderTable(rows), TableRows: rows})
	}
	return elements, nil
}

// officeBasic flattens every sheet's cells into plain narrative text, one
// row per line, without preserving a table structure.
type officeBasic struct{}

func (officeBasic) Method() Method { return MethodBasic }

func (officeBasic) Extract(path string, _ []byte, _ Options) ([]Element, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			lines = append(lines, strings.Join(row, ", "))
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return []Element{{Kind: NarrativeText, Text: strings.Join(lines, "\n")}}, nil
}
