package service

import (
	"context"
	"fmt"
	"sort"

	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/repository"

	"github.com/google/uuid"
)

const (
	topProductsLimit = 10
	unknownProduct   = "Unknown product"
	unknownBrand     = "Unknown brand"
)

type ReportSummary struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalCost         float64 `json:"total_cost"`
	TotalProfit       float64 `json:"total_profit"`
	ProfitMargin      float64 `json:"profit_margin"`
}

type ProductProfit struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	BrandName    string    `json:"brand_name"`
	QuantitySold int       `json:"quantity_sold"`
	Revenue      float64   `json:"revenue"`
	Cost         float64   `json:"cost"`
	Profit       float64   `json:"profit"`
}

type BrandProfit struct {
	Brand        string  `json:"brand"`
	QuantitySold int     `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
	Cost         float64 `json:"cost"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

type ProfitReport struct {
	Summary          ReportSummary      `json:"summary"`
	ProfitByDay      map[string]float64 `json:"profit_by_day"`
	RevenueByDay     map[string]float64 `json:"revenue_by_day"`
	CostByDay        map[string]float64 `json:"cost_by_day"`
	TopProducts      []ProductProfit    `json:"top_products"`
	BrandPerformance []BrandProfit      `json:"brand_performance"`
}

type ReportService interface {
	ProfitReport(ctx context.Context, period repository.DateRange) (*ProfitReport, error)
}

type reportService struct {
	txRepo repository.TransactionRepository
}

func NewReportService(txRepo repository.TransactionRepository) ReportService {
	return &reportService{txRepo: txRepo}
}

func (s *reportService) ProfitReport(ctx context.Context, period repository.DateRange) (*ProfitReport, error) {
	transactions, err := s.txRepo.FindForReport(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("load transactions for report: %w", err)
	}
	return AggregateProfit(transactions), nil
}

func margin(profit, revenue float64) float64 {
	if revenue == 0 {
		return 0
	}
	return profit / revenue * 100
}

// AggregateProfit summarizes transactions by day, product and brand. Days
// are UTC calendar dates of the transaction time.
func AggregateProfit(transactions []model.Transaction) *ProfitReport {
	report := &ProfitReport{
		ProfitByDay:      map[string]float64{},
		RevenueByDay:     map[string]float64{},
		CostByDay:        map[string]float64{},
		TopProducts:      []ProductProfit{},
		BrandPerformance: []BrandProfit{},
	}

	byProduct := map[uuid.UUID]*ProductProfit{}
	for _, t := range transactions {
		day := t.CreatedAt.UTC().Format("2006-01-02")
		report.ProfitByDay[day] += t.Profit
		report.RevenueByDay[day] += t.TotalAmount
		report.Summary.TotalRevenue += t.TotalAmount
		report.Summary.TotalProfit += t.Profit

		var cost float64
		for _, item := range t.Items {
			lineCost := item.CostPrice * float64(item.Quantity)
			cost += lineCost

			pp, ok := byProduct[item.ProductID]
			if !ok {
				pp = &ProductProfit{ProductID: item.ProductID, ProductName: unknownProduct, BrandName: unknownBrand}
				if item.Product != nil {
					pp.ProductName = item.Product.Name
					if item.Product.Brand != nil {
						pp.BrandName = item.Product.Brand.Name
					}
				}
				byProduct[item.ProductID] = pp
			}
			pp.QuantitySold += item.Quantity
			pp.Revenue += item.SellPrice * float64(item.Quantity)
			pp.Cost += lineCost
		}
		report.CostByDay[day] += cost
		report.Summary.TotalCost += cost
	}
	report.Summary.TotalTransactions = len(transactions)
	report.Summary.ProfitMargin = margin(report.Summary.TotalProfit, report.Summary.TotalRevenue)

	products := make([]ProductProfit, 0, len(byProduct))
	for _, pp := range byProduct {
		pp.Profit = pp.Revenue - pp.Cost
		products = append(products, *pp)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Profit != products[j].Profit {
			return products[i].Profit > products[j].Profit
		}
		return products[i].ProductName < products[j].ProductName
	})

	byBrand := map[string]*BrandProfit{}
	for _, pp := range products {
		bp, ok := byBrand[pp.BrandName]
		if !ok {
			bp = &BrandProfit{Brand: pp.BrandName}
			byBrand[pp.BrandName] = bp
		}
		bp.QuantitySold += pp.QuantitySold
		bp.Revenue += pp.Revenue
		bp.Cost += pp.Cost
		bp.Profit += pp.Profit
	}
	for _, bp := range byBrand {
		bp.ProfitMargin = margin(bp.Profit, bp.Revenue)
		report.BrandPerformance = append(report.BrandPerformance, *bp)
	}
	sort.Slice(report.BrandPerformance, func(i, j int) bool {
		a, b := report.BrandPerformance[i], report.BrandPerformance[j]
		if a.Profit != b.Profit {
			return a.Profit > b.Profit
		}
		return a.Brand < b.Brand
	})

	if len(products) > topProductsLimit {
		products = products[:topProductsLimit]
	}
	report.TopProducts = products
	return report
}
