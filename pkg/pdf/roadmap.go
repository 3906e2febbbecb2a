// Package pdf 负责把结构化的学习路线图渲染为 PDF 字节流。
package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// RoadmapSection 是路线图文档中的一个小节。
type RoadmapSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// RoadmapDoc 是模型生成的结构化路线图内容。
type RoadmapDoc struct {
	Title    string           `json:"title"`
	Summary  string           `json:"summary"`
	Sections []RoadmapSection `json:"sections"`
}

// RenderRoadmap 将路线图渲染为 PDF。渲染失败与内容生成失败相互独立，
// 调用方需要把这里的错误显式写入工具调用结果而不是吞掉。
func RenderRoadmap(doc RoadmapDoc) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("roadmap title is empty")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 10, doc.Title, "", "L", false)
	pdf.Ln(2)

	if doc.Summary != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, doc.Summary, "", "L", false)
		pdf.Ln(4)
	}

	for _, sec := range doc.Sections {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 8, sec.Title, "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		for _, item := range sec.Items {
			pdf.MultiCell(0, 6, "- "+item, "", "L", false)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("渲染路线图 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}
