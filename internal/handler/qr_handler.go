package handler

import (
	"fmt"
	"net/http"

	"foodway/internal/middleware"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type QRHandler struct {
	qrService service.QRService
	activity  service.ActivityService
	auth      *middleware.Auth
}

func NewQRHandler(qrService service.QRService, activity service.ActivityService, auth *middleware.Auth) *QRHandler {
	return &QRHandler{qrService: qrService, activity: activity, auth: auth}
}

// RegisterRoutes binds /qr. Callers must be able to manage the restaurant.
func (h *QRHandler) RegisterRoutes(router *gin.RouterGroup) {
	qr := router.Group("/qr/restaurant/:restaurant_id")
	qr.Use(h.auth.Authenticate(), middleware.RequireRestaurantAccess("restaurant_id"))
	{
		qr.GET("", middleware.LogActivity(h.activity, "generate_restaurant_qr", "restaurant"), h.Restaurant)
		qr.GET("/table/:table_number", middleware.LogActivity(h.activity, "generate_table_qr", "table"), h.Table)
		qr.POST("/tables/batch", middleware.LogActivity(h.activity, "generate_batch_qr", "table"), h.Batch)
		qr.GET("/print", h.Print)
		qr.GET("/info", h.Info)
	}
}

// Restaurant handles GET /qr/restaurant/{restaurant_id}
// @Summary      QR code of the restaurant menu
// @Tags         qr
// @Produce      png
// @Produce      image/svg+xml
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int     true   "Restaurant ID"
// @Param        format         query     string  false  "png, svg or json"
// @Param        size           query     int     false  "100 to 500 pixels"
// @Success      200            {object}  response.Envelope{data=service.QRResult}
// @Failure      404            {object}  response.Envelope
// @Router       /qr/restaurant/{restaurant_id} [get]
func (h *QRHandler) Restaurant(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var opts service.QROptions
	if err := validator.BindQuery(c, &opts); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.qrService.Restaurant(c.Request.Context(), restaurantID, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeQR(c, "QR Code gerado com sucesso", result)
}

// Table handles GET /qr/restaurant/{restaurant_id}/table/{table_number}
// @Summary      QR code of a table
// @Description  Marks the table as having a generated QR code.
// @Tags         qr
// @Produce      png
// @Produce      image/svg+xml
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int     true   "Restaurant ID"
// @Param        table_number   path      int     true   "Table number"
// @Param        format         query     string  false  "png, svg or json"
// @Param        size           query     int     false  "100 to 500 pixels"
// @Success      200            {object}  response.Envelope{data=service.QRResult}
// @Failure      404            {object}  response.Envelope
// @Router       /qr/restaurant/{restaurant_id}/table/{table_number} [get]
func (h *QRHandler) Table(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	number, err := paramInt(c, "table_number")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var opts service.QROptions
	if err := validator.BindQuery(c, &opts); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.qrService.Table(c.Request.Context(), restaurantID, number, opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if result.Table != nil {
		c.Set(middleware.EntityIDKey, result.Table.ID)
	}
	writeQR(c, "QR Code da mesa gerado com sucesso", result)
}

// writeQR sends image formats as raw bytes and the json format in the envelope.
func writeQR(c *gin.Context, message string, result *service.QRResult) {
	if len(result.Image) > 0 {
		c.Data(http.StatusOK, result.ContentType, result.Image)
		return
	}
	ok(c, message, result)
}

// Batch handles POST /qr/restaurant/{restaurant_id}/tables/batch
// @Summary      QR codes for several tables
// @Description  Tables that cannot be found are reported per item without failing the request.
// @Tags         qr
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int                     true  "Restaurant ID"
// @Param        payload        body      service.BatchQRRequest  true  "Table numbers"
// @Success      200            {object}  response.Envelope{data=service.BatchQRResult}
// @Failure      422            {object}  response.Envelope
// @Router       /qr/restaurant/{restaurant_id}/tables/batch [post]
func (h *QRHandler) Batch(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.BatchQRRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.qrService.Batch(c.Request.Context(), restaurantID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, fmt.Sprintf("%d QR Codes gerados com sucesso", result.Summary.Successful), result)
}

// Print handles GET /qr/restaurant/{restaurant_id}/print
// @Summary      Printable QR sheet
// @Tags         qr
// @Produce      html
// @Security     BearerAuth
// @Param        restaurant_id  path      int     true   "Restaurant ID"
// @Param        table_numbers  query     string  false  "Comma separated table numbers"
// @Success      200            {string}  string  "HTML page"
// @Failure      404            {object}  response.Envelope
// @Router       /qr/restaurant/{restaurant_id}/print [get]
func (h *QRHandler) Print(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	numbers, err := intList(c.Query("table_numbers"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	page, err := h.qrService.PrintPage(c.Request.Context(), restaurantID, numbers)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// Info handles GET /qr/restaurant/{restaurant_id}/info
// @Summary      QR code overview of a restaurant
// @Tags         qr
// @Produce      json
// @Security     BearerAuth
// @Param        restaurant_id  path      int  true  "Restaurant ID"
// @Success      200            {object}  response.Envelope{data=service.QRInfo}
// @Router       /qr/restaurant/{restaurant_id}/info [get]
func (h *QRHandler) Info(c *gin.Context) {
	restaurantID, err := paramID(c, "restaurant_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	info, err := h.qrService.Info(c.Request.Context(), restaurantID, apiBase(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Informações de QR Code obtidas com sucesso", info)
}

// apiBase is the scheme and host the client used to reach the API.
func apiBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
