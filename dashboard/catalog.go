package dashboard

import (
	"context"
	"strconv"
	"strings"

	"coconut-supply/models"

	"github.com/shopspring/decimal"
)

// CoconutInput is the admin catalog form.
type CoconutInput struct {
	Variety   string          `json:"variety"`
	Size      string          `json:"size"`
	Rate      decimal.Decimal `json:"rate"`
	Available *bool           `json:"available,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
}

func (in CoconutInput) Validate() error {
	if strings.TrimSpace(in.Variety) == "" {
		return invalid("variety", "variety is required")
	}
	if strings.TrimSpace(in.Size) == "" {
		return invalid("size", "size is required")
	}
	if !in.Rate.IsPositive() {
		return invalid("rate", "rate must be greater than zero")
	}
	return nil
}

// Catalog reads and edits coconut listings.
type Catalog struct {
	s *Session
}

func NewCatalog(s *Session) *Catalog { return &Catalog{s: s} }

// ListAvailable is the vendor's order form source.
func (c *Catalog) ListAvailable(ctx context.Context) ([]models.Coconut, error) {
	id, err := c.s.Require(models.RoleVendor)
	if err != nil {
		return nil, err
	}
	return getData[[]models.Coconut](ctx, c.s.client, "GET", "/vendor/coconuts", id.Token, nil)
}

func (c *Catalog) List(ctx context.Context) ([]models.Coconut, error) {
	id, err := c.s.Require(models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Coconuts []models.Coconut `json:"coconuts"`
	}
	if err := c.s.client.do(ctx, "GET", "/admin/coconuts", id.Token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Coconuts, nil
}

func (c *Catalog) Create(ctx context.Context, in CoconutInput) (models.Coconut, error) {
	return c.save(ctx, "POST", "/admin/coconuts", in)
}

func (c *Catalog) Update(ctx context.Context, coconutID uint, in CoconutInput) (models.Coconut, error) {
	if coconutID == 0 {
		return models.Coconut{}, invalid("id", "coconut is required")
	}
	return c.save(ctx, "PUT", "/admin/coconuts/"+strconv.FormatUint(uint64(coconutID), 10), in)
}

func (c *Catalog) save(ctx context.Context, method, path string, in CoconutInput) (models.Coconut, error) {
	id, err := c.s.Require(models.RoleAdmin)
	if err != nil {
		return models.Coconut{}, err
	}
	if err := in.Validate(); err != nil {
		return models.Coconut{}, err
	}
	var resp struct {
		Coconut models.Coconut `json:"coconut"`
	}
	if err := c.s.client.do(ctx, method, path, id.Token, in, &resp); err != nil {
		return models.Coconut{}, err
	}
	return resp.Coconut, nil
}

func (c *Catalog) Delete(ctx context.Context, coconutID uint) error {
	id, err := c.s.Require(models.RoleAdmin)
	if err != nil {
		return err
	}
	if coconutID == 0 {
		return invalid("id", "coconut is required")
	}
	return c.s.client.do(ctx, "DELETE", "/admin/coconuts/"+strconv.FormatUint(uint64(coconutID), 10), id.Token, nil, nil)
}
