package pdf

import (
	"context"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData is an invoice that has been settled.
type ReceiptData struct {
	InvoiceData
	DatePaid string
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	return render("Receipt", receipt.InvoiceData, func(m core.Maroto) {
		paid := "PAID"
		if receipt.DatePaid != "" {
			paid += " " + receipt.DatePaid
		}
		m.AddRow(12,
			text.NewCol(12, paid, props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Right,
				Top:   3,
			}),
		)
	})
}
