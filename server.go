package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/middlewares"
	"github.com/mmdatafocus/billing_backend/models"
	"github.com/mmdatafocus/billing_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("billing-backend")

// httpStatusForCategory maps the closed error taxonomy to response codes.
func httpStatusForCategory(category utils.ErrorCategory) int {
	switch category {
	case utils.ErrorCategoryDuplicateRecord:
		return http.StatusConflict
	case utils.ErrorCategoryMissingReference, utils.ErrorCategoryMissingRequiredField,
		utils.ErrorCategoryInvalidValue, utils.ErrorCategoryInvalidInput:
		return http.StatusBadRequest
	case utils.ErrorCategoryPermissionDenied, utils.ErrorCategoryAccessDenied:
		return http.StatusForbidden
	case utils.ErrorCategoryNotFound:
		return http.StatusNotFound
	case utils.ErrorCategoryAuthFailed:
		return http.StatusUnauthorized
	case utils.ErrorCategoryTransientRetryable, utils.ErrorCategoryNetworkError:
		return http.StatusServiceUnavailable
	case utils.ErrorCategoryTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError classifies, logs and writes the safe message. Raw backend
// detail never reaches the response body.
func respondError(c *gin.Context, funcName string, err error) {
	classified := utils.LogAndClassify("server.go", funcName, err)
	c.JSON(httpStatusForCategory(classified.Category), gin.H{
		"error":    classified.Message,
		"category": string(classified.Category),
	})
}

// respondBindError reports a request-body binding failure, exposing the
// offending field tags when the error came from struct validation.
func respondBindError(c *gin.Context, err error) {
	if fields := utils.ProcessValidationErrors(err); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

func requireBusiness(c *gin.Context) (context.Context, bool) {
	ctx := c.Request.Context()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return ctx, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

/* auth */

type tokenRequest struct {
	BusinessId string `json:"business_id" binding:"required"`
	UserId     int    `json:"user_id" binding:"required"`
	UserName   string `json:"user_name"`
}

// issueTokenHandler mints a bearer token for the given identity. The real
// auth provider lives outside this service; this endpoint is for trusted
// backends only and is gated by a shared key.
func issueTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminKey := strings.TrimSpace(os.Getenv("API_ADMIN_KEY"))
		if adminKey == "" || c.GetHeader("X-Api-Key") != adminKey {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		token, err := utils.JwtGenerate(req.UserId, req.UserName, req.BusinessId)
		if err != nil {
			respondError(c, "issueTokenHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

/* businesses */

func createBusinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewBusiness
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		business, err := models.CreateBusiness(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "createBusinessHandler", err)
			return
		}
		c.JSON(http.StatusCreated, business)
	}
}

/* settings */

func getSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		settings, err := models.GetSettings(ctx)
		if err != nil {
			respondError(c, "getSettingsHandler", err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func updateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var input models.UpdateSettingsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		settings, err := models.UpdateSettings(ctx, &input)
		if err != nil {
			respondError(c, "updateSettingsHandler", err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

/* products */

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		product, err := models.CreateProduct(ctx, &input)
		if err != nil {
			respondError(c, "createProductHandler", err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		product, err := models.UpdateProduct(ctx, id, &input)
		if err != nil {
			respondError(c, "updateProductHandler", err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteProduct(ctx, id); err != nil {
			respondError(c, "deleteProductHandler", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		product, err := models.GetProduct(ctx, id)
		if err != nil {
			respondError(c, "getProductHandler", err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		offset, _ := strconv.Atoi(c.Query("offset"))
		products, err := models.ListProducts(ctx, c.Query("search"), limit, offset)
		if err != nil {
			respondError(c, "listProductsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

func lowStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		products, err := models.ListLowStockProducts(ctx)
		if err != nil {
			respondError(c, "lowStockHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

func importProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}
		defer file.Close()

		result, err := models.ImportProductsCSV(ctx, file)
		if err != nil {
			respondError(c, "importProductsHandler", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func exportProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		products, err := models.ListProducts(ctx, "", 100000, 0)
		if err != nil {
			respondError(c, "exportProductsHandler", err)
			return
		}
		writeTableResponse(c, models.ProductExportTable(products, time.Now().UTC()))
	}
}

/* clients */

func createClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var input models.NewClient
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		client, err := models.CreateClient(ctx, &input)
		if err != nil {
			respondError(c, "createClientHandler", err)
			return
		}
		c.JSON(http.StatusCreated, client)
	}
}

func updateClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input models.NewClient
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		client, err := models.UpdateClient(ctx, id, &input)
		if err != nil {
			respondError(c, "updateClientHandler", err)
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

func deleteClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteClient(ctx, id); err != nil {
			respondError(c, "deleteClientHandler", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func getClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		client, err := models.GetClient(ctx, id)
		if err != nil {
			respondError(c, "getClientHandler", err)
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

func listClientsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		offset, _ := strconv.Atoi(c.Query("offset"))
		clients, err := models.ListClients(ctx, c.Query("search"), limit, offset)
		if err != nil {
			respondError(c, "listClientsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"clients": clients})
	}
}

/* documents */

func createDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var input models.NewDocument
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		document, err := models.CreateDocument(ctx, &input)
		if err != nil {
			respondError(c, "createDocumentHandler", err)
			return
		}
		c.JSON(http.StatusCreated, document)
	}
}

func getDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		document, err := models.GetDocument(ctx, id)
		if err != nil {
			respondError(c, "getDocumentHandler", err)
			return
		}
		c.JSON(http.StatusOK, document)
	}
}

func documentFilterFromQuery(c *gin.Context) (models.DocumentFilter, error) {
	var filter models.DocumentFilter

	if v := c.Query("type"); v != "" {
		docType := models.DocumentType(v)
		if !docType.Valid() {
			return filter, errors.New("type must be invoice or bill")
		}
		filter.Type = &docType
	}
	if v := c.Query("status"); v != "" {
		status := models.DocumentStatus(v)
		if !status.Valid() {
			return filter, errors.New("status must be active or cancelled")
		}
		filter.Status = &status
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("date_from must be YYYY-MM-DD")
		}
		filter.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("date_to must be YYYY-MM-DD")
		}
		filter.DateTo = &t
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))
	return filter, nil
}

func listDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		filter, err := documentFilterFromQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		documents, err := models.ListDocuments(ctx, filter)
		if err != nil {
			respondError(c, "listDocumentsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": documents})
	}
}

type statusRequest struct {
	Status models.DocumentStatus `json:"status" binding:"required"`
}

func updateDocumentStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		id, ok := intParam(c, "id")
		if !ok {
			return
		}
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		document, stock, err := models.UpdateDocumentStatus(ctx, id, req.Status)
		if err != nil {
			respondError(c, "updateDocumentStatusHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"document": document, "stock_adjustment": stock})
	}
}

func exportDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		filter, err := documentFilterFromQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if filter.Limit <= 0 {
			filter.Limit = 100000
		}
		documents, err := models.ListDocuments(ctx, filter)
		if err != nil {
			respondError(c, "exportDocumentsHandler", err)
			return
		}

		dateFrom, dateTo := exportWindow(filter.DateFrom, filter.DateTo)
		writeTableResponse(c, models.DocumentExportTable(documents, dateFrom, dateTo))
	}
}

/* analytics */

func profitReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		ctx, span := tracer.Start(ctx, "profitReport")
		defer span.End()

		dateFrom, dateTo, err := analyticsWindow(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := models.GetProfitReport(ctx, dateFrom, dateTo)
		if err != nil {
			respondError(c, "profitReportHandler", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func exportProfitReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		dateFrom, dateTo, err := analyticsWindow(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := models.GetProfitReport(ctx, dateFrom, dateTo)
		if err != nil {
			respondError(c, "exportProfitReportHandler", err)
			return
		}
		writeTableResponse(c, models.ProfitReportExportTable(report))
	}
}

func inventoryPotentialHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		potential, err := models.GetInventoryPotential(ctx)
		if err != nil {
			respondError(c, "inventoryPotentialHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"inventory_potential": potential})
	}
}

func analyticsWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	dateFrom := now.AddDate(0, -6, 0)
	dateTo := now
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("date_from must be YYYY-MM-DD")
		}
		dateFrom = t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("date_to must be YYYY-MM-DD")
		}
		// inclusive end of day
		dateTo = t.Add(24*time.Hour - time.Nanosecond)
	}
	return dateFrom, dateTo, nil
}

func exportWindow(from *time.Time, to *time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	dateFrom := now
	dateTo := now
	if from != nil {
		dateFrom = *from
	}
	if to != nil {
		dateTo = *to
	}
	return dateFrom, dateTo
}

// writeTableResponse streams the table as CSV, or XLSX when ?format=xlsx.
func writeTableResponse(c *gin.Context, table utils.ExportTable) {
	if c.Query("format") == "xlsx" {
		f, err := utils.BuildXLSX(table)
		if err != nil {
			respondError(c, "writeTableResponse", err)
			return
		}
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			respondError(c, "writeTableResponse", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+table.Filename("xlsx")+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		return
	}

	var buf bytes.Buffer
	if err := utils.WriteCSV(&buf, table); err != nil {
		respondError(c, "writeTableResponse", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+table.Filename("csv")+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

/* pin */

type pinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

func setPinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req pinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if err := models.SetUserPin(ctx, req.Pin); err != nil {
			respondError(c, "setPinHandler", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func verifyPinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req pinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if err := models.VerifyPin(ctx, req.Pin); err != nil {
			respondError(c, "verifyPinHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, ginErr := range c.Errors {
			logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"status": c.Writer.Status(),
			}).Error(ginErr.Error())
		}
	}
}

func registerRoutes(r *gin.Engine) {
	r.POST("/auth/token", issueTokenHandler())
	r.POST("/businesses", createBusinessHandler())

	r.GET("/settings", getSettingsHandler())
	r.PUT("/settings", updateSettingsHandler())

	r.POST("/products", createProductHandler())
	r.GET("/products", listProductsHandler())
	r.GET("/products/low-stock", lowStockHandler())
	r.GET("/products/export", exportProductsHandler())
	r.POST("/products/import", importProductsHandler())
	r.GET("/products/:id", getProductHandler())
	r.PUT("/products/:id", updateProductHandler())
	r.DELETE("/products/:id", deleteProductHandler())

	r.POST("/clients", createClientHandler())
	r.GET("/clients", listClientsHandler())
	r.GET("/clients/:id", getClientHandler())
	r.PUT("/clients/:id", updateClientHandler())
	r.DELETE("/clients/:id", deleteClientHandler())

	r.POST("/documents", createDocumentHandler())
	r.GET("/documents", listDocumentsHandler())
	r.GET("/documents/export", exportDocumentsHandler())
	r.GET("/documents/:id", getDocumentHandler())
	r.PUT("/documents/:id/status", updateDocumentStatusHandler())

	r.GET("/analytics/profit", profitReportHandler())
	r.GET("/analytics/profit/export", exportProfitReportHandler())
	r.GET("/analytics/inventory-potential", inventoryPotentialHandler())

	r.POST("/pin", setPinHandler())
	r.POST("/pin/verify", verifyPinHandler())

	r.POST("/uploads/logo", uploadLogoHandler())
	r.POST("/uploads/logo/sign", signLogoUploadHandler())
	r.POST("/uploads/logo/confirm", confirmLogoHandler())
	r.GET("/uploads/logo-url", logoURLHandler())
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)

	// Start listening immediately (the startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
