package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type InvoiceData struct {
	BusinessName    string
	BusinessAddress []string
	BusinessContact string
	BusinessTRN     string
	LogoPath        string
	SignaturePath   string

	InvoiceNumber string
	IssueDate     string
	DueDate       string
	Status        string
	Notes         string

	BillToName    string
	BillToContact string
	BillToTRN     string

	Items []InvoiceItem

	Subtotal string
	Tax      string
	TaxLabel string
	Total    string
}

type InvoiceItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error) {
	return render("Tax Invoice", data, nil)
}

func render(title string, invoice InvoiceData, extra func(m core.Maroto)) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	header := []core.Col{col.New(8).Add(
		text.New(invoice.BusinessName, props.Text{Size: 14, Style: fontstyle.Bold}),
		text.New(strings.Join(nonEmpty(invoice.BusinessAddress), ", "), props.Text{Top: 7, Size: 9}),
		text.New(invoice.BusinessContact, props.Text{Top: 12, Size: 9}),
		text.New(labelled("TRN", invoice.BusinessTRN), props.Text{Top: 17, Size: 9}),
	)}
	if fileExists(invoice.LogoPath) {
		header = append(header, image.NewFromFileCol(4, invoice.LogoPath, props.Rect{Center: true, Percent: 80}))
	} else {
		header = append(header, col.New(4))
	}
	m.AddRow(30, header...)

	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
			Top:   2,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Size: 9}),
			text.New("Date of issue: "+invoice.IssueDate, props.Text{Top: 5, Size: 9}),
			text.New("Date due: "+orDash(invoice.DueDate), props.Text{Top: 10, Size: 9}),
			text.New("Status: "+invoice.Status, props.Text{Top: 15, Size: 9}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(orDash(invoice.BillToName), props.Text{Top: 5, Size: 9}),
			text.New(invoice.BillToContact, props.Text{Top: 10, Size: 9}),
			text.New(labelled("TRN", invoice.BillToTRN), props.Text{Top: 15, Size: 9}),
		),
	)

	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range invoice.Items {
		m.AddRow(7,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))

	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, invoice.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, invoice.TaxLabel, props.Text{Size: 9}),
		text.NewCol(2, invoice.Tax, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, invoice.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if extra != nil {
		extra(m)
	}

	if notes := strings.TrimSpace(invoice.Notes); notes != "" {
		m.AddRow(14, text.NewCol(12, "Notes: "+notes, props.Text{Size: 9, Top: 4}))
	}

	if fileExists(invoice.SignaturePath) {
		m.AddRow(25,
			col.New(8),
			image.NewFromFileCol(4, invoice.SignaturePath, props.Rect{Center: true, Percent: 70}),
		)
		m.AddRow(6,
			col.New(8),
			text.NewCol(4, "Authorised signature", props.Text{Size: 8, Align: align.Center}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func labelled(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return label + ": " + value
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
