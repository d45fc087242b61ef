package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	line := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	line(header)
	dashes := make([]string, len(header))
	for i, h := range header {
		dashes[i] = strings.Repeat("-", len(h))
	}
	line(dashes)
	for _, r := range rows {
		line(r)
	}
	return tw.Flush()
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func onOff(f models.Flag, on, off string) string {
	if f {
		return on
	}
	return off
}

// pageRows lays out a LIST_SUCCESS payload as a table. ok is false for a
// payload it does not know.
func pageRows(payload any) (header []string, rows [][]string, ok bool) {
	switch p := payload.(type) {
	case api.Page[models.Category]:
		header = []string{"ID", "NAME", "STATUS"}
		for _, c := range p.Items {
			rows = append(rows, []string{c.ID, c.Name, onOff(c.Status, "active", "inactive")})
		}
	case api.Page[models.Product]:
		header = []string{"ID", "NAME", "CATEGORY", "PRICE", "STOCK", "STATUS"}
		for _, x := range p.Items {
			rows = append(rows, []string{x.ID, x.Name, x.CategoryName(), money(x.Price),
				strconv.Itoa(x.StockQuantity), onOff(x.Status, "active", "inactive")})
		}
	case api.Page[models.Order]:
		header = []string{"ID", "NUMBER", "RECEIVER", "TOTAL", "STATUS"}
		for _, o := range p.Items {
			rows = append(rows, []string{o.ID, o.OrderNumber, o.ReceiverName, money(o.TotalPrice), o.Status()})
		}
	case api.Page[models.News]:
		header = []string{"ID", "TITLE", "STATUS"}
		for _, n := range p.Items {
			rows = append(rows, []string{n.ID, n.Title, n.Status})
		}
	case api.Page[models.Review]:
		header = []string{"ID", "PRODUCT", "RATING", "STATUS"}
		for _, r := range p.Items {
			rows = append(rows, []string{r.ID, r.Product.Label(), strconv.Itoa(r.Rating), onOff(r.Status, "visible", "hidden")})
		}
	case api.Page[models.RepairService]:
		header = []string{"ID", "NAME", "BASE PRICE"}
		for _, s := range p.Items {
			rows = append(rows, []string{s.ID, s.Name, money(s.BasePrice)})
		}
	case api.Page[models.RepairRequest]:
		header = []string{"ID", "DEVICE", "TECHNICIAN", "COST", "STATUS"}
		for _, r := range p.Items {
			rows = append(rows, []string{r.ID, r.Device.Brand + " " + r.Device.Model,
				r.AssignedTechnician.Label(), money(r.EstimatedCost), r.Status})
		}
	case api.Page[models.Staff]:
		header = []string{"ID", "USER", "EMAIL", "ROLE", "STATUS"}
		for _, s := range p.Items {
			rows = append(rows, []string{s.ID, s.UserName, s.Email, s.Role, s.Status})
		}
	default:
		return nil, nil, false
	}
	return header, rows, true
}

// pagination extracts the pagination block of a LIST_SUCCESS payload.
func pagination(payload any) (page, pages, total int) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, 0
	}
	var p struct {
		Pagination struct {
			Page       int `json:"page"`
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	_ = json.Unmarshal(raw, &p)
	return p.Pagination.Page, p.Pagination.TotalPages, p.Pagination.Total
}
