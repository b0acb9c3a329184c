package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Semana"

// planHeaderRow is the row of the column headers; cards start right below
const planHeaderRow = 3

var planHeaders = []string{"CARD", "DIA", "VENCIMENTO", "ETIQUETAS", "DESCRIÇÃO", "CHECKLISTS", "ITENS"}

// ExcelGenerator gera a planilha com o plano da semana
type ExcelGenerator struct{}

// NewExcelGenerator cria um novo gerador de Excel
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Generate writes the plan of a run to an xlsx workbook
func (g *ExcelGenerator) Generate(plan *RunResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Renomeia a sheet padrão
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}

	if err := g.writeSummary(f, plan); err != nil {
		return nil, fmt.Errorf("escrever resumo: %w", err)
	}

	if err := g.writeHeaders(f); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}

	if err := g.writeData(f, plan.Planned); err != nil {
		return nil, fmt.Errorf("escrever dados: %w", err)
	}

	if err := g.autoFitColumns(f, len(planHeaders)); err != nil {
		return nil, fmt.Errorf("ajustar colunas: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}

	return buf, nil
}

// writeSummary escreve lista, semana, posição e início na primeira linha
func (g *ExcelGenerator) writeSummary(f *excelize.File, plan *RunResult) error {
	summary := []interface{}{
		"LISTA", plan.ListName,
		"SEMANA", plan.Week,
		"POSIÇÃO", plan.Position,
		"INÍCIO", plan.WeekStart.Format("2006-01-02"),
	}
	return f.SetSheetRow(sheetName, "A1", &summary)
}

// writeHeaders escreve os cabeçalhos no Excel
func (g *ExcelGenerator) writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	for col, header := range planHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, planHeaderRow)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
	}

	return nil
}

// writeData escreve um card por linha, na ordem de criação
func (g *ExcelGenerator) writeData(f *excelize.File, cards []PlannedCard) error {
	border := []excelize.Border{
		{Type: "left", Color: "D9D9D9", Style: 1},
		{Type: "top", Color: "D9D9D9", Style: 1},
		{Type: "bottom", Color: "D9D9D9", Style: 1},
		{Type: "right", Color: "D9D9D9", Style: 1},
	}
	styleOdd, _ := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"F2F2F2"}, Pattern: 1},
		Border: border,
	})
	styleEven, _ := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFFFFF"}, Pattern: 1},
		Border: border,
	})

	for i, card := range cards {
		excelRow := planHeaderRow + 1 + i

		style := styleEven
		if i%2 == 1 {
			style = styleOdd
		}

		names := make([]string, 0, len(card.Checklists))
		items := make([]string, 0, len(card.Checklists))
		for _, cl := range card.Checklists {
			names = append(names, cl.Name)
			items = append(items, fmt.Sprintf("%s: %s", cl.Name, strings.Join(cl.Items, ", ")))
		}

		values := []interface{}{
			card.Title,
			card.Weekday,
			card.Due.Format("2006-01-02 15:04"),
			strings.Join(card.Labels, ", "),
			card.Description,
			strings.Join(names, ", "),
			strings.Join(items, "; "),
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, excelRow)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return err
			}
		}
	}

	return nil
}

// autoFitColumns ajusta a largura das colunas
func (g *ExcelGenerator) autoFitColumns(f *excelize.File, numCols int) error {
	for col := 1; col <= numCols; col++ {
		colName, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheetName, colName, colName, 20); err != nil {
			return err
		}
	}
	return nil
}
