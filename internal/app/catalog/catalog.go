package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/errs"

	"github.com/sirupsen/logrus"
)

// Store хранилище услуг. GetService возвращает errs.ErrNotFound, если записи нет;
// ListServices отдаёт только активные услуги.
type Store interface {
	ListServices(ctx context.Context, filter ds.ServiceFilter) ([]ds.Service, error)
	GetService(ctx context.Context, id uint) (*ds.Service, error)
	CreateService(ctx context.Context, s *ds.Service) error
	SaveService(ctx context.Context, s *ds.Service) error
}

// ImageStore объектное хранилище изображений услуг
type ImageStore interface {
	UploadFile(ctx context.Context, fileData []byte, originalFilename string) (string, error)
	DeleteFile(ctx context.Context, filename string) error
	DownloadFile(ctx context.Context, filename string) ([]byte, error)
	FileURL(filename string) string
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Catalog struct {
	store  Store
	images ImageStore
}

// New создаёт каталог. images может быть nil, тогда загрузка изображений недоступна
func New(store Store, images ImageStore) *Catalog {
	return &Catalog{store: store, images: images}
}

func (c *Catalog) List(ctx context.Context, filter ds.ServiceFilter) ([]ds.Service, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, fmt.Errorf("%w: min_price больше max_price", errs.ErrInvalidInput)
	}
	return c.store.ListServices(ctx, filter)
}

// Get возвращает активную услугу
func (c *Catalog) Get(ctx context.Context, id uint) (*ds.Service, error) {
	s, err := c.store.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, fmt.Errorf("%w: услуга %d", errs.ErrNotFound, id)
	}
	return s, nil
}

func (c *Catalog) Create(ctx context.Context, s *ds.Service) error {
	if err := validate(s); err != nil {
		return err
	}
	s.ID = 0
	s.IsActive = true
	if err := c.store.CreateService(ctx, s); err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	logrus.Infof("service %d created", s.ID)
	return nil
}

func (c *Catalog) Update(ctx context.Context, id uint, patch ds.ServicePatch) (*ds.Service, error) {
	s, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(s)
	if err := validate(s); err != nil {
		return nil, err
	}
	if err := c.store.SaveService(ctx, s); err != nil {
		return nil, fmt.Errorf("update service %d: %w", id, err)
	}
	return s, nil
}

// Delete логически удаляет услугу. Повторное удаление возвращает errs.ErrGone
func (c *Catalog) Delete(ctx context.Context, id uint) error {
	s, err := c.store.GetService(ctx, id)
	if err != nil {
		return err
	}
	if !s.IsActive {
		return fmt.Errorf("%w: услуга %d", errs.ErrGone, id)
	}
	s.IsActive = false
	if err := c.store.SaveService(ctx, s); err != nil {
		return fmt.Errorf("delete service %d: %w", id, err)
	}
	logrus.Infof("service %d deactivated", id)
	return nil
}

// UploadImage загружает изображение услуги и удаляет предыдущее
func (c *Catalog) UploadImage(ctx context.Context, id uint, filename string, data []byte) (*ds.Service, error) {
	if c.images == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil, fmt.Errorf("%w: допустимы только изображения jpg, png, gif, webp", errs.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: пустой файл", errs.ErrInvalidInput)
	}

	s, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name, err := c.images.UploadFile(ctx, data, filename)
	if err != nil {
		return nil, fmt.Errorf("upload image of service %d: %w", id, err)
	}

	previous := s.Image
	s.Image = &name
	if err := c.store.SaveService(ctx, s); err != nil {
		return nil, fmt.Errorf("save image of service %d: %w", id, err)
	}

	if previous != nil && *previous != "" {
		if err := c.images.DeleteFile(ctx, *previous); err != nil {
			logrus.Warnf("Failed to delete old image %s: %v", *previous, err)
		}
	}
	return s, nil
}

// Image содержимое изображения активной услуги и его имя в хранилище
func (c *Catalog) Image(ctx context.Context, id uint) ([]byte, string, error) {
	s, err := c.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if s.Image == nil || *s.Image == "" {
		return nil, "", fmt.Errorf("%w: у услуги %d нет изображения", errs.ErrNotFound, id)
	}
	if c.images == nil {
		return nil, "", fmt.Errorf("image storage is not configured")
	}

	data, err := c.images.DownloadFile(ctx, *s.Image)
	if err != nil {
		return nil, "", fmt.Errorf("download image of service %d: %w", id, err)
	}
	return data, *s.Image, nil
}

// ImageURL ссылка на изображение услуги, пустая строка если изображения нет
func (c *Catalog) ImageURL(s *ds.Service) string {
	if s.Image == nil || *s.Image == "" || c.images == nil {
		return ""
	}
	return c.images.FileURL(*s.Image)
}

func validate(s *ds.Service) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name обязателен", errs.ErrInvalidInput)
	}
	if s.Price <= 0 {
		return fmt.Errorf("%w: price должен быть больше нуля", errs.ErrInvalidInput)
	}
	return nil
}
