package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/metrics"
	"foodway/internal/model"
	"foodway/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QRFormatPNG  = "png"
	QRFormatSVG  = "svg"
	QRFormatJSON = "json"

	msgNoTablesToPrint = "Nenhuma mesa encontrada para impressão"
)

type QROptions struct {
	Format string `form:"format" binding:"omitempty,oneof=png svg json"`
	Size   int    `form:"size" binding:"omitempty,min=100,max=500"`
}

type BatchQRRequest struct {
	TableNumbers []int `json:"table_numbers" binding:"required,min=1,max=50,dive,min=1"`
}

type QRRestaurant struct {
	ID   uint      `json:"id"`
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

type QRTable struct {
	ID       uint   `json:"id"`
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// QRResult carries either raw image bytes (png, svg) or the JSON rendition.
type QRResult struct {
	Restaurant  QRRestaurant `json:"restaurant"`
	Table       *QRTable     `json:"table,omitempty"`
	QRCode      *QRCode      `json:"qr_code,omitempty"`
	Image       []byte       `json:"-"`
	ContentType string       `json:"-"`
}

type BatchQRItem struct {
	Table       *QRTable `json:"table,omitempty"`
	QRCode      *QRCode  `json:"qr_code,omitempty"`
	TableNumber *int     `json:"table_number,omitempty"`
	Error       string   `json:"error,omitempty"`
	Success     bool     `json:"success"`
}

type BatchQRResult struct {
	Restaurant QRRestaurant  `json:"restaurant"`
	Results    []BatchQRItem `json:"results"`
	Summary    struct {
		TotalRequested int `json:"total_requested"`
		Successful     int `json:"successful"`
		Failed         int `json:"failed"`
	} `json:"summary"`
}

type QRTableInfo struct {
	Number        int        `json:"number"`
	Name          string     `json:"name"`
	LastGenerated *time.Time `json:"last_generated"`
}

type QRInfo struct {
	Restaurant QRRestaurant `json:"restaurant"`
	QRURLs     struct {
		Restaurant    string `json:"restaurant"`
		APIRestaurant string `json:"api_restaurant"`
		APITable      string `json:"api_table"`
		PrintPage     string `json:"print_page"`
	} `json:"qr_urls"`
	Statistics struct {
		TotalTables     int `json:"total_tables"`
		TablesWithQR    int `json:"tables_with_qr"`
		TablesWithoutQR int `json:"tables_without_qr"`
	} `json:"statistics"`
	TablesWithQR    []QRTableInfo `json:"tables_with_qr"`
	TablesWithoutQR []int         `json:"tables_without_qr"`
}

// RestaurantMenuURL is the web app link encoded in a restaurant QR code.
func RestaurantMenuURL(base string, restaurant uuid.UUID) string {
	q := url.Values{}
	q.Set("restaurant", restaurant.String())
	return strings.TrimRight(base, "/") + "/?" + q.Encode()
}

// TableMenuURL is the web app link encoded in a table QR code.
func TableMenuURL(base string, restaurant uuid.UUID, tableNumber int) string {
	return fmt.Sprintf("%s&table=%d", RestaurantMenuURL(base, restaurant), tableNumber)
}

// QRService renders menu links of restaurants and tables as QR codes.
type QRService interface {
	Restaurant(ctx context.Context, restaurantID uint, opts QROptions) (*QRResult, error)
	Table(ctx context.Context, restaurantID uint, tableNumber int, opts QROptions) (*QRResult, error)
	Batch(ctx context.Context, restaurantID uint, req BatchQRRequest) (*BatchQRResult, error)
	PrintPage(ctx context.Context, restaurantID uint, tableNumbers []int) ([]byte, error)
	// Info describes the QR state of a restaurant. apiBase is the scheme and host of the API.
	Info(ctx context.Context, restaurantID uint, apiBase string) (*QRInfo, error)
}

type qrService struct {
	restaurants repository.RestaurantRepository
	tables      repository.TableRepository
	webappURL   string
	now         func() time.Time
}

func NewQRService(restaurants repository.RestaurantRepository, tables repository.TableRepository, webappURL string) QRService {
	return &qrService{restaurants: restaurants, tables: tables, webappURL: webappURL, now: time.Now}
}

func (s *qrService) restaurant(ctx context.Context, id uint) (*model.Restaurant, error) {
	restaurant, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgRestaurantNotFound)
	}
	return restaurant, nil
}

func toQRRestaurant(r *model.Restaurant) QRRestaurant {
	return QRRestaurant{ID: r.ID, UUID: r.UUID, Name: r.Name}
}

func toQRTable(t *model.Table) *QRTable {
	return &QRTable{ID: t.ID, Number: t.TableNumber, Name: t.Name, Capacity: t.Capacity}
}

// render encodes link in the requested format.
func render(result *QRResult, link string, opts QROptions) error {
	switch opts.Format {
	case QRFormatSVG:
		svg, err := QRSVG(link, opts.Size)
		if err != nil {
			return err
		}
		result.Image, result.ContentType = []byte(svg), "image/svg+xml"
	case QRFormatJSON:
		code, err := NewQRCode(link, opts.Size)
		if err != nil {
			return err
		}
		result.QRCode = code
	default:
		png, err := QRPNG(link, opts.Size)
		if err != nil {
			return err
		}
		result.Image, result.ContentType = png, "image/png"
	}
	return nil
}

func formatLabel(format string) string {
	if format == "" {
		return QRFormatPNG
	}
	return format
}

func (s *qrService) Restaurant(ctx context.Context, restaurantID uint, opts QROptions) (*QRResult, error) {
	restaurant, err := s.restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	result := &QRResult{Restaurant: toQRRestaurant(restaurant)}
	if err := render(result, RestaurantMenuURL(s.webappURL, restaurant.UUID), opts); err != nil {
		return nil, err
	}
	metrics.QRCodesGenerated.WithLabelValues("restaurant_" + formatLabel(opts.Format)).Inc()
	return result, nil
}

func (s *qrService) Table(ctx context.Context, restaurantID uint, tableNumber int, opts QROptions) (*QRResult, error) {
	restaurant, err := s.restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	table, err := s.tables.FindByRestaurantAndNumber(ctx, restaurantID, tableNumber)
	if err != nil {
		return nil, apperror.FromDB(err, msgTableNotFound)
	}

	result := &QRResult{Restaurant: toQRRestaurant(restaurant), Table: toQRTable(table)}
	if err := render(result, TableMenuURL(s.webappURL, restaurant.UUID, table.TableNumber), opts); err != nil {
		return nil, err
	}
	if err := s.tables.MarkQRGenerated(ctx, table.ID, s.now()); err != nil {
		return nil, apperror.FromDB(err, "")
	}
	metrics.QRCodesGenerated.WithLabelValues("table_" + formatLabel(opts.Format)).Inc()
	return result, nil
}

// Batch encodes each table independently; a missing table fails only its own item.
func (s *qrService) Batch(ctx context.Context, restaurantID uint, req BatchQRRequest) (*BatchQRResult, error) {
	restaurant, err := s.restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	result := &BatchQRResult{Restaurant: toQRRestaurant(restaurant), Results: make([]BatchQRItem, 0, len(req.TableNumbers))}
	for _, number := range req.TableNumbers {
		item, err := s.batchItem(ctx, restaurant, number)
		if err != nil {
			n := number
			item = BatchQRItem{TableNumber: &n, Error: batchErrorMessage(err)}
		}
		result.Results = append(result.Results, item)
		if item.Success {
			result.Summary.Successful++
		} else {
			result.Summary.Failed++
		}
	}
	result.Summary.TotalRequested = len(req.TableNumbers)
	metrics.QRCodesGenerated.WithLabelValues("batch").Add(float64(result.Summary.Successful))
	return result, nil
}

func (s *qrService) batchItem(ctx context.Context, restaurant *model.Restaurant, number int) (BatchQRItem, error) {
	table, err := s.tables.FindByRestaurantAndNumber(ctx, restaurant.ID, number)
	if err != nil {
		return BatchQRItem{}, err
	}
	code, err := NewQRCode(TableMenuURL(s.webappURL, restaurant.UUID, table.TableNumber), DefaultQRSize)
	if err != nil {
		return BatchQRItem{}, err
	}
	if err := s.tables.MarkQRGenerated(ctx, table.ID, s.now()); err != nil {
		return BatchQRItem{}, err
	}
	return BatchQRItem{Table: toQRTable(table), QRCode: code, Success: true}, nil
}

func batchErrorMessage(err error) string {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return msgTableNotFound
	}
	if appErr, ok := apperror.As(err); ok {
		return appErr.Message
	}
	return "Erro ao gerar QR Code"
}

// PrintPage renders a printable HTML sheet with one QR code per table. Without
// explicit numbers every active table is printed; unknown numbers are skipped.
func (s *qrService) PrintPage(ctx context.Context, restaurantID uint, tableNumbers []int) ([]byte, error) {
	restaurant, err := s.restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	var tables []model.Table
	if len(tableNumbers) > 0 {
		for _, n := range tableNumbers {
			table, err := s.tables.FindByRestaurantAndNumber(ctx, restaurantID, n)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return nil, apperror.FromDB(err, "")
			}
			tables = append(tables, *table)
		}
	} else {
		tables, _, err = s.tables.List(ctx, repository.TableFilter{RestaurantID: &restaurantID, IsActive: boolPtr(true)}, repository.Page{}, repository.Sort{})
		if err != nil {
			return nil, apperror.FromDB(err, "")
		}
	}
	if len(tables) == 0 {
		return nil, apperror.NotFound(msgNoTablesToPrint)
	}

	page := printPage{
		Restaurant:  restaurant.Name,
		GeneratedAt: s.now().Format("02/01/2006 15:04:05"),
		Items:       make([]printItem, 0, len(tables)),
	}
	for _, t := range tables {
		svg, err := QRSVG(TableMenuURL(s.webappURL, restaurant.UUID, t.TableNumber), 150)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, printItem{
			Number:   t.TableNumber,
			Name:     t.Name,
			Capacity: t.Capacity,
			// generated locally from a fixed alphabet
			SVG: template.HTML(svg),
		})
	}

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render print page: %w", err)
	}
	metrics.QRCodesGenerated.WithLabelValues("print").Add(float64(len(tables)))
	return buf.Bytes(), nil
}

func (s *qrService) Info(ctx context.Context, restaurantID uint, apiBase string) (*QRInfo, error) {
	restaurant, err := s.restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	tables, _, err := s.tables.List(ctx, repository.TableFilter{RestaurantID: &restaurantID}, repository.Page{}, repository.Sort{})
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	info := &QRInfo{
		Restaurant:      toQRRestaurant(restaurant),
		TablesWithQR:    []QRTableInfo{},
		TablesWithoutQR: []int{},
	}
	apiRoot := fmt.Sprintf("%s/api/v1/qr/restaurant/%d", strings.TrimRight(apiBase, "/"), restaurantID)
	info.QRURLs.Restaurant = RestaurantMenuURL(s.webappURL, restaurant.UUID)
	info.QRURLs.APIRestaurant = apiRoot
	info.QRURLs.APITable = apiRoot + "/table/{number}"
	info.QRURLs.PrintPage = apiRoot + "/print"

	for _, t := range tables {
		if t.QRCodeGenerated {
			info.TablesWithQR = append(info.TablesWithQR, QRTableInfo{Number: t.TableNumber, Name: t.Name, LastGenerated: t.LastQRGeneratedAt})
		} else {
			info.TablesWithoutQR = append(info.TablesWithoutQR, t.TableNumber)
		}
	}
	info.Statistics.TotalTables = len(tables)
	info.Statistics.TablesWithQR = len(info.TablesWithQR)
	info.Statistics.TablesWithoutQR = len(info.TablesWithoutQR)
	return info, nil
}
