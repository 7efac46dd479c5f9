package receipt

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/salesdesk/backend/internal/domain/billing"
	"github.com/salesdesk/backend/internal/domain/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
	infraconfig "github.com/salesdesk/backend/internal/infrastructure/config"
)

//go:embed templates/bill.html
var billTemplateHTML string

const (
	billTemplateName = "bill_receipt"
	defaultCurrency  = "USD"
)

// Line is one rendered row on a receipt.
type Line struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// BillData is the data bound into the receipt template.
type BillData struct {
	CompanyName   string
	BillID        uint
	IssuedAt      time.Time
	CustomerName  string
	CustomerEmail string
	Lines         []Line
	TotalAmount   decimal.Decimal
	GeneratedAt   time.Time
}

// Engine renders receipt HTML from bills.
//
// It uses Go's html/template package with custom formatting functions; money
// values are formatted for the configured ISO 4217 currency. The bill
// template is embedded and parsed once at construction.
type Engine struct {
	companyName string
	funcMap     template.FuncMap
	billTmpl    *template.Template
}

// NewEngine creates a template engine for the configured company and
// currency.
func NewEngine(cfg infraconfig.ReceiptConfig) (*Engine, error) {
	code := cfg.Currency
	if code == "" {
		code = defaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, shared.Wrap(shared.KindApplication, "unknown receipt currency", err).
			WithMeta("currency", code)
	}

	printer := message.NewPrinter(language.English)

	e := &Engine{companyName: cfg.CompanyName}
	e.funcMap = template.FuncMap{
		"formatMoney": func(v any) string {
			d := toDecimal(v).Round(2)
			return printer.Sprintf("%v", currency.Symbol(unit.Amount(d.InexactFloat64())))
		},
		"formatNumber": func(v any) string {
			d := toDecimal(v).Round(2)
			return printer.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
		},
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"upper":          strings.ToUpper,
		"lower":          strings.ToLower,
		"trim":           strings.TrimSpace,
		"default":        defaultFunc,
		"safeHTML":       safeHTML,
	}

	tmpl, err := template.New(billTemplateName).Funcs(e.funcMap).Parse(billTemplateHTML)
	if err != nil {
		return nil, shared.Wrap(shared.KindApplication, "failed to parse receipt template", err)
	}
	e.billTmpl = tmpl

	return e, nil
}

// CompanyName returns the configured company name, for callers composing
// receipt subjects around the rendered body.
func (e *Engine) CompanyName() string {
	return e.companyName
}

// RenderBill renders the receipt document for a bill. Product names are
// resolved through the provided map; lines whose product is missing from it
// fall back to a generic label so a renamed or deleted product never blocks
// the receipt.
func (e *Engine) RenderBill(ctx context.Context, bill *billing.Bill, customer *partner.Customer, productNames map[uint]string) (string, error) {
	if bill == nil {
		return "", shared.NewApplication("cannot render a receipt without a bill")
	}
	if customer == nil {
		return "", shared.NewApplication("cannot render a receipt without a customer")
	}

	var buf bytes.Buffer
	if err := e.billTmpl.Execute(&buf, e.billData(bill, customer, productNames)); err != nil {
		return "", shared.Wrap(shared.KindApplication, "failed to render receipt", err).
			WithMeta("billId", bill.ID)
	}
	return buf.String(), nil
}

// RenderString renders an ad-hoc template string with the engine's function
// map.
func (e *Engine) RenderString(ctx context.Context, name, content string, data any) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", shared.NewApplication("template content is empty")
	}

	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", shared.Wrap(shared.KindApplication, "failed to parse template", err).
			WithMeta("template", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", shared.Wrap(shared.KindApplication, "failed to execute template", err).
			WithMeta("template", name)
	}
	return buf.String(), nil
}

func (e *Engine) billData(bill *billing.Bill, customer *partner.Customer, productNames map[uint]string) BillData {
	lines := make([]Line, 0, len(bill.Lines))
	for _, l := range bill.Lines {
		name := productNames[l.ProductID]
		if name == "" {
			name = fmt.Sprintf("Product #%d", l.ProductID)
		}
		lines = append(lines, Line{
			ProductName: name,
			Quantity:    l.Quantity,
			UnitPrice:   l.SalePrice,
			Amount:      l.Amount(),
		})
	}

	return BillData{
		CompanyName:   e.companyName,
		BillID:        bill.ID,
		IssuedAt:      bill.CreatedAt,
		CustomerName:  customer.FullName(),
		CustomerEmail: customer.Email,
		Lines:         lines,
		TotalAmount:   bill.TotalAmount,
		GeneratedAt:   time.Now(),
	}
}

func formatDate(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// defaultFunc returns def when v is nil or a blank string, which lets
// templates write {{.Field | default "—"}}.
func defaultFunc(def, v any) any {
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return def
	}
	return v
}

func safeHTML(s string) template.HTML {
	return template.HTML(s)
}

func toDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x != nil {
			return *x
		}
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return decimal.NewFromUint64(uint64(x))
	case string:
		if d, err := decimal.NewFromString(x); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func toTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case *time.Time:
		if x != nil {
			return *x
		}
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t
		}
	}
	return time.Time{}
}
