package main

import (
	"bytes"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/models"
	"github.com/mmdatafocus/billing_backend/utils"
)

const (
	maxUploadSizeBytes int64 = 5 * 1024 * 1024
	maxLogoDimension         = 512
)

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// uploadLogoHandler accepts a multipart company logo, downsizes it to fit
// 512x512 and stores it as PNG. The old logo object is removed best-effort.
func uploadLogoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := config.GetLogger()

		businessId, ok := utils.GetBusinessIdFromContext(ctx)
		if !ok || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}
		if mime := fileHeader.Header.Get("Content-Type"); mime != "" && !imageMimeTypes[mime] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}
		defer file.Close()

		img, err := imaging.Decode(file, imaging.AutoOrientation(true))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is not a valid image"})
			return
		}

		bounds := img.Bounds()
		if bounds.Dx() > maxLogoDimension || bounds.Dy() > maxLogoDimension {
			img = imaging.Fit(img, maxLogoDimension, maxLogoDimension, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			config.LogError(logger, "uploads.go", "uploadLogoHandler", "encode png", businessId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": utils.Classify(err).Message})
			return
		}

		objectKey := path.Join(businessId, "logos", utils.GenerateUniqueFilename()+".png")
		if err := utils.WriteObjectToGCS(ctx, objectKey, buf.Bytes(), "image/png"); err != nil {
			config.LogError(logger, "uploads.go", "uploadLogoHandler", "write object", objectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": utils.Classify(err).Message})
			return
		}

		business, err := models.UpdateBusinessLogo(ctx, objectKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": utils.LogAndClassify("uploads.go", "uploadLogoHandler", err).Message})
			return
		}

		signedURL, expiresAt, err := utils.SignDownload(ctx, objectKey)
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadLogoHandler", "sign url", objectKey, err)
			// Logo is stored; the client can request a display URL later.
			c.JSON(http.StatusOK, gin.H{"objectKey": objectKey, "business": business})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"objectKey": objectKey,
			"logoUrl":   signedURL,
			"expiresAt": expiresAt,
			"business":  business,
		})
	}
}

const uploadURLTTL = 15 * time.Minute

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// signLogoUploadHandler issues a signed PUT URL so large logos can go straight
// to the bucket instead of through this service. The client uploads, then
// calls /uploads/logo/confirm with the returned location.
func signLogoUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		businessId, ok := utils.GetBusinessIdFromContext(ctx)
		if !ok || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		contentType := c.Query("content_type")
		if contentType == "" {
			contentType = "image/png"
		}
		ext, ok := imageExtensions[contentType]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
			return
		}

		objectKey := path.Join(businessId, "logos", utils.GenerateUniqueFilename()+ext)
		upload, err := utils.SignUpload(ctx, objectKey, contentType, uploadURLTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": utils.LogAndClassify("uploads.go", "signLogoUploadHandler", err).Message})
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}

type confirmLogoRequest struct {
	Location string `json:"location" binding:"required"`
}

// confirmLogoHandler records a logo the client uploaded through a signed PUT
// URL. Accepts the access URL, a gs:// URL or the raw object key; the key
// must live under the caller's business prefix.
func confirmLogoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		businessId, ok := utils.GetBusinessIdFromContext(ctx)
		if !ok || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req confirmLogoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		objectKey := utils.ExtractObjectKeyFromURL(req.Location)
		if objectKey == "" || !strings.HasPrefix(objectKey, businessId+"/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "location does not reference an uploaded logo"})
			return
		}

		business, err := models.UpdateBusinessLogo(ctx, objectKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": utils.LogAndClassify("uploads.go", "confirmLogoHandler", err).Message})
			return
		}
		c.JSON(http.StatusOK, gin.H{"objectKey": objectKey, "business": business})
	}
}

// logoURLHandler issues a fresh time-limited display URL for the stored logo.
func logoURLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		businessId, ok := utils.GetBusinessIdFromContext(ctx)
		if !ok || businessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		business, err := models.GetBusinessById(ctx, businessId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": utils.Classify(err).Message})
			return
		}
		if business.LogoObjectKey == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no logo uploaded"})
			return
		}

		signedURL, expiresAt, err := utils.SignDownload(ctx, business.LogoObjectKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": utils.LogAndClassify("uploads.go", "logoURLHandler", err).Message})
			return
		}

		c.JSON(http.StatusOK, gin.H{"logoUrl": signedURL, "expiresAt": expiresAt})
	}
}
