package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"bitbucket.org/mmdatafocus/chores_backend/config"
)

const maxProofWidth = 1024

// getStorageClient initializes a Google Cloud Storage client.
// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS);
// set GCS_CREDENTIALS_JSON to provide explicit JSON locally.
func getStorageClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); credJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func saveProofImage(ctx context.Context, objectName string, imageData string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		return "", err
	}
	// downscale large camera shots; proofs don't need full resolution
	if img.Bounds().Dx() > maxProofWidth {
		img = imaging.Resize(img, maxProofWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", err
	}

	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return "", errors.New("GCS_BUCKET is required")
	}

	client, err := getStorageClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "image/jpeg"
	if _, err := w.Write(buf.Bytes()); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucketName, objectName), nil
}

type uploadProofRequest struct {
	ImageData string `json:"image_data" binding:"required"`
}

// UploadProofHandler stores a proof photo (task proof or payment proof)
// and returns the object URL the caller attaches to the record.
func UploadProofHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		ctx := c.Request.Context()
		userId, err := callerId(ctx)
		if err != nil {
			RespondError(c, err)
			return
		}

		var req uploadProofRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}

		uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		objectName := fmt.Sprintf("proofs/%d/%s.jpg", userId, uuid.NewString())
		url, err := saveProofImage(uploadCtx, objectName, req.ImageData)
		if err != nil {
			config.LogError(logger, "uploads.go", "UploadProofHandler", "saveProofImage", objectName, err)
			RespondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"proof_url": url})
	}
}
