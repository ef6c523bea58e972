package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// docxEnhanced parses Word's word/document.xml by hand (encoding/xml against
// the OOXML schema), turning heading-styled paragraphs into Title elements,
// table rows into Table elements, and everything else into NarrativeText.
type docxEnhanced struct{}

func (docxEnhanced) Method() Method { return MethodEnhanced }

func (docxEnhanced) Extract(path string, _ []byte, _ Options) ([]Element, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return nil, err
	}

	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var elements []Element
	for _, para := range doc.Body.Paras {
		text := docxParaText(para)
		if text == "" {
			continue
		}
		if docxParaIsHeading(para) {
			elements = append(elements, Element{Kind: Title, Text: text})
			continue
		}
		elements = append(elements, Element{Kind: NarrativeText, Text: text})
	}
	for _, tbl := range doc.Body.Tables {
		rows := docxTableRows(tbl)
		if len(rows) == 0 {
			continue
		}
		elements = append(elements, Element{Kind: Table, Text: renderTable(rows), TableRows: rows})
	}
	return elements, nil
}

// docxBasic flattens every paragraph and table cell into plain narrative
// text, discarding heading/table structure.
type docxBasic struct{}

func (docxBasic) Method() Method { return MethodBasic }

func (docxBasic) Extract(path string, _ []byte, _ Options) ([]Element, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return nil, err
	}

	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var lines []string
	for _, para := range doc.Body.Paras {
		if t := docxParaText(para); t != "" {
			lines = append(lines, t)
		}
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range docxTableRows(tbl) {
			lines = append(lines, strings.Join(row, ", "))
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return []Element{{Kind: NarrativeText, Text: strings.Join(lines, "\n")}}, nil
}

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Paras  []docxPara  `xml:"p"`
	Tables []docxTable `xml:"tbl"`
}

type docxPara struct {
	PPr  *docxParaPr `xml:"pPr"`
	Runs []docxRun   `xml:"r"`
}

type docxParaPr struct {
	PStyle *docxPStyle `xml:"pStyle"`
}

type docxPStyle struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paras []docxPara `xml:"p"`
}

func docxParaText(p docxPara) string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

func docxParaIsHeading(p docxPara) bool {
	if p.PPr == nil || p.PPr.PStyle == nil {
		return false
	}
	style := strings.ToLower(p.PPr.PStyle.Val)
	return strings.HasPrefix(style, "heading") || strings.HasPrefix(style, "title")
}

func docxTableRows(tbl docxTable) [][]string {
	var rows [][]string
	for _, row := range tbl.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			var b strings.Builder
			for i, p := range cell.Paras {
				if i > 0 {
					b.WriteString(" ")
				}
				b.WriteString(docxParaText(p))
			}
			cells = append(cells, b.String())
		}
		rows = append(rows, cells)
	}
	return rows
}

// pptxEnhanced parses each ppt/slides/slideN.xml in order, producing one
// Title (the slide number) followed by a NarrativeText element per slide.
type pptxEnhanced struct{}

func (pptxEnhanced) Method() Method { return MethodEnhanced }

func (pptxEnhanced) Extract(path string, _ []byte, _ Options) ([]Element, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var elements []Element
	for _, num := range pptxSlideNumbers(zr) {
		data, err := readZipFile(zr, fmt.Sprintf("ppt/slides/slide%d.xml", num))
		if err != nil {
			continue
		}
		text := pptxSlideText(data)
		if text == "" {
			continue
		}
		elements = append(elements, Element{Kind: Title, Text: fmt.Sprintf("Slide %d", num)})
		elements = append(elements, Element{Kind: NarrativeText, Text: text})
	}
	return elements, nil
}

// pptxBasic flattens every slide's text into one block, dropping slide
// boundaries.
type pptxBasic struct{}

func (pptxBasic) Method() Method { return MethodBasic }

func (pptxBasic) Extract(path string, _ []byte, _ Options) ([]Element, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var lines []string
	for _, num := range pptxSlideNumbers(zr) {
		data, err := readZipFile(zr, fmt.Sprintf("ppt/slides/slide%d.xml", num))
		if err != nil {
			continue
		}
		if t := pptxSlideText(data); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return []Element{{Kind: NarrativeText, Text: strings.Join(lines, "\n")}}, nil
}

type pptxSlide struct {
	CSld struct {
		SpTree struct {
			SPs []pptxSP `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type pptxSP struct {
	TxBody *pptxTxBody `xml:"txBody"`
}

type pptxTxBody struct {
	Paras []pptxAPara `xml:"p"`
}

type pptxAPara struct {
	Runs []pptxARun `xml:"r"`
}

type pptxARun struct {
	Text string `xml:"t"`
}

func pptxSlideText(data []byte) string {
	var slide pptxSlide
	if err := xml.Unmarshal(data, &slide); err != nil {
		return ""
	}
	var parts []string
	for _, sp := range slide.CSld.SpTree.SPs {
		if sp.TxBody == nil {
			continue
		}
		for _, para := range sp.TxBody.Paras {
			var line strings.Builder
			for _, run := range para.Runs {
				line.WriteString(run.Text)
			}
			if t := strings.TrimSpace(line.String()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func pptxSlideNumbers(zr *zip.ReadCloser) []int {
	var nums []int
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml")
		n, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

func readZipFile(zr *zip.ReadCloser, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
