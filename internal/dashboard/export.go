package dashboard

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Agreements"

var exportHeaders = []string{
	"ID", "Agreement", "Name", "Program", "Modality", "Organ", "Start", "End",
	"Value", "Execution processes", "Contracts", "Accountability status", "Accountability limit", "Warnings",
}

// WriteXLSX writes the agreements of res as a spreadsheet, one row each.
func WriteXLSX(w io.Writer, res *Result) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return err
		}
	}

	labels := warningLabels(res)
	for i, a := range res.Agreements {
		var status, limit string
		if a.Accountability != nil {
			status = a.Accountability.Data.Status
			limit = a.Accountability.Data.LimitDate.Display()
		}
		row := []interface{}{
			a.ID,
			a.AgreementID,
			a.Name,
			a.Program,
			a.ProposalData.Data.Modality,
			a.ProposalData.Data.Organ,
			a.Start.Display(),
			a.End.Display(),
			a.TotalValue(),
			len(a.ExecutionProcesses()),
			len(a.Contracts()),
			status,
			limit,
			strings.Join(labels[a.ID], ", "),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func warningLabels(res *Result) map[string][]string {
	labels := make(map[string][]string)
	for _, id := range res.Warnings.BiddingRejected {
		labels[id] = append(labels[id], "rejected bidding")
	}
	for _, id := range res.Warnings.AccountabilityOverdue {
		labels[id] = append(labels[id], "accountability overdue")
	}
	names := make([]string, 0, len(res.Warnings.Custom))
	for name := range res.Warnings.Custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, id := range res.Warnings.Custom[name] {
			labels[id] = append(labels[id], name)
		}
	}
	return labels
}
