package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/datamodels/order"
	"github.com/ejg/cestas/internal/storage"
)

// Upload a file received from an admin.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type OrderFileService struct {
	orders order.Repository
	store  storage.Store
}

func NewOrderFileService(orders order.Repository, store storage.Store) *OrderFileService {
	return &OrderFileService{orders: orders, store: store}
}

// Attach stores the upload and records it on the order. It returns the
// order's files after the change.
func (s *OrderFileService) Attach(ctx context.Context, id *auth.Identity, orderID string, up Upload) ([]order.File, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(filepath.Base(up.Name))
	if up.Body == nil || name == "" || name == "." || name == string(filepath.Separator) {
		return nil, invalid("file is required")
	}
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, notFound(err, "order")
	}

	url, err := s.store.Put(ctx, name, up.ContentType, up.Body)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, ErrFileTooLarge
	}
	if err != nil {
		GetMonitor().RecordStorageError()
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	f := &order.File{OrderID: orderID, Name: name, URL: url, Type: fileType(name, up.ContentType)}
	if err := s.orders.AddFile(ctx, f); err != nil {
		if derr := s.store.Delete(ctx, url); derr != nil {
			zap.L().Warn("orphaned upload", zap.String("url", url), zap.Error(derr))
		}
		return nil, err
	}
	zap.L().Info("order file attached", zap.String("order_id", orderID), zap.String("file_id", f.ID))
	return s.orders.ListFiles(ctx, orderID)
}

// Remove deletes a file record of the order. The stored blob is removed on a
// best-effort basis.
func (s *OrderFileService) Remove(ctx context.Context, id *auth.Identity, orderID, fileID string) ([]order.File, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	f, err := s.orders.DeleteFile(ctx, orderID, fileID)
	if err != nil {
		return nil, notFound(err, "file")
	}
	if err := s.store.Delete(ctx, f.URL); err != nil {
		GetMonitor().RecordStorageError()
		zap.L().Warn("stored file not removed", zap.String("url", f.URL), zap.Error(err))
	}
	return s.orders.ListFiles(ctx, orderID)
}

// fileType prefers the declared content type and falls back to the extension.
func fileType(name, contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		mt, _, _ := mime.ParseMediaType(t)
		return mt
	}
	return "application/octet-stream"
}
