package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/datamodels/category"
)

// SeedCategories creates the named categories that are missing and returns
// how many were created.
func SeedCategories(ctx context.Context, repo category.Repository, names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		_, err := repo.GetByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		if err := repo.Create(ctx, &category.Category{Name: name}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
