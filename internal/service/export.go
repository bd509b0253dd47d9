package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mmeshcher/order-fulfillment/internal/model"
)

var exportHeader = []string{
	"orderNumber", "customerName", "customerEmail", "totalAmount",
	"orderStatus", "paymentStatus", "createdAt", "itemCount",
}

// WriteCSV записывает строки выгрузки в формате CSV с заголовком.
func WriteCSV(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.OrderNumber,
			r.CustomerName,
			r.CustomerEmail,
			strconv.FormatFloat(r.TotalAmount, 'f', 2, 64),
			string(r.OrderStatus),
			string(r.PaymentStatus),
			r.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(r.ItemCount, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
