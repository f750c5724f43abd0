// internal/pkg/report/service.go
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/domain/company"
	"github.com/your-org/factory-backend/internal/domain/machine"
	"github.com/your-org/factory-backend/internal/domain/production"
	"github.com/your-org/factory-backend/internal/pkg/simulation"
	"gorm.io/gorm"
)

// Service renders company operations reports to PDF
type Service struct {
	config *config.Config
	db     *gorm.DB
	clock  *simulation.Clock
}

// NewService creates a new report service
func NewService(cfg *config.Config, db *gorm.DB, clock *simulation.Clock) *Service {
	if cfg.Report.WkhtmltopdfPath != "" {
		wkhtmltopdf.SetPath(cfg.Report.WkhtmltopdfPath)
	}
	return &Service{
		config: cfg,
		db:     db,
		clock:  clock,
	}
}

// GenerateOperationsReport renders a snapshot of the company's machines,
// stock and recent production orders
func (s *Service) GenerateOperationsReport(companyID uint) (*bytes.Buffer, error) {
	data, err := s.collectData(companyID)
	if err != nil {
		return nil, err
	}

	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	// Set PDF options
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func (s *Service) collectData(companyID uint) (*OperationsData, error) {
	var comp company.Company
	if err := s.db.First(&comp, companyID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}

	var machines []machine.CompanyMachine
	if err := s.db.Preload("Template").
		Where("company_id = ? AND status <> ?", companyID, machine.StatusSold).
		Order("id ASC").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch machines: %w", err)
	}

	machineRows := make([]MachineRow, 0, len(machines))
	for _, m := range machines {
		machineRows = append(machineRows, MachineRow{
			ID:          m.ID,
			Template:    m.Template.Name,
			Status:      string(m.Status),
			Reliability: fmt.Sprintf("%.0f%%", m.CurrentReliability*100),
			Speed:       fmt.Sprintf("%.1f/h", m.Speed),
		})
	}

	var balances []struct {
		ProductName string
		Quantity    int
	}
	if err := s.db.Table("stock_balances").
		Select("products.name AS product_name, stock_balances.quantity").
		Joins("JOIN products ON products.id = stock_balances.product_id").
		Where("stock_balances.company_id = ?", companyID).
		Order("products.name ASC").
		Scan(&balances).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch stock balances: %w", err)
	}

	stockRows := make([]StockRow, 0, len(balances))
	for _, b := range balances {
		stockRows = append(stockRows, StockRow{Product: b.ProductName, Quantity: b.Quantity})
	}

	var orders []production.ProductionOrder
	if err := s.db.Where("company_id = ?", companyID).
		Order("id DESC").Limit(20).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	now := s.clock.Now()
	orderRows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		orderRows = append(orderRows, OrderRow{
			ID:       o.ID,
			Status:   string(o.Status),
			Quantity: o.Quantity,
			Started:  o.StartedAt.Format("2006-01-02 15:04"),
			Progress: fmt.Sprintf("%.0f%%", o.ProgressAt(now)),
		})
	}

	return &OperationsData{
		CompanyName:   comp.Name,
		Funds:         fmt.Sprintf("$%.2f", float64(comp.Funds)/100),
		Carbon:        fmt.Sprintf("%.1f kg", comp.CarbonFootprint),
		GeneratedAt:   time.Now().Format("January 2, 2006 15:04"),
		SimulatedTime: now.Format("January 2, 2006 15:04"),
		Machines:      machineRows,
		Stock:         stockRows,
		Orders:        orderRows,
	}, nil
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data *OperationsData) (string, error) {
	tmpl := template.Must(template.New("operations").Parse(operationsTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// OperationsData represents the data passed to the report template
type OperationsData struct {
	CompanyName   string
	Funds         string
	Carbon        string
	GeneratedAt   string
	SimulatedTime string
	Machines      []MachineRow
	Stock         []StockRow
	Orders        []OrderRow
}

// MachineRow is one machine line of the report
type MachineRow struct {
	ID          uint
	Template    string
	Status      string
	Reliability string
	Speed       string
}

// StockRow is one stock line of the report
type StockRow struct {
	Product  string
	Quantity int
}

// OrderRow is one production order line of the report
type OrderRow struct {
	ID       uint
	Status   string
	Quantity int
	Started  string
	Progress string
}

// Operations report HTML template
const operationsTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Operations Report - {{.CompanyName}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .report-title {
            font-size: 28px;
            font-weight: bold;
            color: #2563eb;
            margin-bottom: 10px;
        }
        .meta {
            color: #666;
            font-size: 13px;
        }
        .summary {
            margin-bottom: 30px;
        }
        .summary td {
            padding: 5px 20px 5px 0;
        }
        .summary .label {
            font-weight: bold;
        }
        .section-title {
            font-size: 16px;
            font-weight: bold;
            margin: 25px 0 10px;
            color: #374151;
        }
        .data-table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 20px;
        }
        .data-table th,
        .data-table td {
            border: 1px solid #ddd;
            padding: 8px;
            text-align: left;
        }
        .data-table th {
            background-color: #f8f9fa;
            font-weight: bold;
        }
        .num-col {
            text-align: right;
            width: 80px;
        }
    </style>
</head>
<body>
    <div class="header">
        <div class="report-title">Operations Report</div>
        <p><strong>{{.CompanyName}}</strong></p>
        <p class="meta">Generated {{.GeneratedAt}} · Simulated time {{.SimulatedTime}}</p>
    </div>

    <div class="summary">
        <table>
            <tr>
                <td class="label">Funds:</td>
                <td>{{.Funds}}</td>
                <td class="label">Carbon footprint:</td>
                <td>{{.Carbon}}</td>
            </tr>
        </table>
    </div>

    <div class="section-title">Machines</div>
    <table class="data-table">
        <thead>
            <tr>
                <th>ID</th>
                <th>Template</th>
                <th>Status</th>
                <th class="num-col">Reliability</th>
                <th class="num-col">Speed</th>
            </tr>
        </thead>
        <tbody>
            {{range .Machines}}
            <tr>
                <td>{{.ID}}</td>
                <td>{{.Template}}</td>
                <td>{{.Status}}</td>
                <td class="num-col">{{.Reliability}}</td>
                <td class="num-col">{{.Speed}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="section-title">Stock</div>
    <table class="data-table">
        <thead>
            <tr>
                <th>Product</th>
                <th class="num-col">Quantity</th>
            </tr>
        </thead>
        <tbody>
            {{range .Stock}}
            <tr>
                <td>{{.Product}}</td>
                <td class="num-col">{{.Quantity}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="section-title">Recent Production Orders</div>
    <table class="data-table">
        <thead>
            <tr>
                <th>ID</th>
                <th>Status</th>
                <th class="num-col">Quantity</th>
                <th>Started</th>
                <th class="num-col">Progress</th>
            </tr>
        </thead>
        <tbody>
            {{range .Orders}}
            <tr>
                <td>{{.ID}}</td>
                <td>{{.Status}}</td>
                <td class="num-col">{{.Quantity}}</td>
                <td>{{.Started}}</td>
                <td class="num-col">{{.Progress}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>
</body>
</html>
`
