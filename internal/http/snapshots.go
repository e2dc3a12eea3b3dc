package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/storage"
)

type SnapshotResponse struct {
	Location  string `json:"location"`
	Key       string `json:"key"`
	Books     int    `json:"books"`
	CreatedAt string `json:"createdAt"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func (h *Handler) createSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	snap, err := h.snapshots.Create(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, SnapshotResponse{
		Location:  snap.Location,
		Key:       snap.Key,
		Books:     snap.Books,
		CreatedAt: snap.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) listSnapshots(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	objects, err := h.snapshots.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}
