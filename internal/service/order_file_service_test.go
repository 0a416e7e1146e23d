package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejg/cestas/internal/datamodels/order"
	"github.com/ejg/cestas/internal/repository/mysql"
	"github.com/ejg/cestas/internal/testutil"
)

func placeOrder(t *testing.T, e *env) *order.Order {
	t.Helper()
	cat := testutil.CreateCategory(t, e.db, "Cestas")
	p := testutil.CreateProduct(t, e.db, cat, "p", "1.00")
	o, err := e.orders.CreateOrder(context.Background(), e.customer, []LineItem{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)
	return o
}

func upload(name, body string) Upload {
	return Upload{Name: name, ContentType: "application/pdf", Body: strings.NewReader(body)}
}

func TestAttachAndRemoveFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := placeOrder(t, e)

	files, err := e.files.Attach(ctx, e.admin, o.ID, upload("nota.pdf", "pdf"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	f := files[0]
	assert.Equal(t, "nota.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.Type)
	assert.True(t, strings.HasPrefix(f.URL, "/uploads/"))
	stored := filepath.Join(e.store.Dir, filepath.Base(f.URL))
	_, err = os.Stat(stored)
	require.NoError(t, err)

	_, err = e.files.Remove(ctx, e.admin, "other-order", f.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	files, err = e.files.Remove(ctx, e.admin, o.ID, f.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestAttachFileRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := placeOrder(t, e)

	_, err := e.files.Attach(ctx, e.customer, o.ID, upload("nota.pdf", "pdf"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.files.Attach(ctx, nil, o.ID, upload("nota.pdf", "pdf"))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.files.Attach(ctx, e.admin, "missing", upload("nota.pdf", "pdf"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.files.Attach(ctx, e.admin, o.ID, Upload{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.files.Attach(ctx, e.admin, o.ID, Upload{Name: "big.pdf", Body: strings.NewReader(strings.Repeat("x", 1<<20+1))})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var n int64
	require.NoError(t, e.db.Model(&order.File{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = e.files.Remove(ctx, e.customer, o.ID, "any")
	assert.ErrorIs(t, err, ErrForbidden)
}

type brokenStore struct{}

func (brokenStore) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("disk full")
}
func (brokenStore) Delete(context.Context, string) error { return nil }

func TestAttachFileStorageError(t *testing.T) {
	e := newEnv(t)
	o := placeOrder(t, e)
	files := NewOrderFileService(mysql.NewOrderRepository(e.db), brokenStore{})

	_, err := files.Attach(context.Background(), e.admin, o.ID, upload("nota.pdf", "pdf"))
	assert.ErrorIs(t, err, ErrStorage)

	var n int64
	require.NoError(t, e.db.Model(&order.File{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "image/png", fileType("a.png", ""))
	assert.Equal(t, "application/pdf", fileType("a.bin", "application/pdf"))
	assert.Equal(t, "application/pdf", fileType("a.pdf", "application/octet-stream"))
	assert.Equal(t, "application/octet-stream", fileType("noext", ""))
}
