package handlers

import (
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"spark-ledger/internal/apperr"
	"spark-ledger/internal/catalog"
	"spark-ledger/internal/models"
	"spark-ledger/internal/uploads"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ImageStore persists uploaded product photos.
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(ref string) error
}

type ProductHandler struct {
	store  *catalog.Store
	images ImageStore
}

func NewProductHandler(store *catalog.Store, images ImageStore) *ProductHandler {
	return &ProductHandler{store: store, images: images}
}

// --- GET: /api/products?category=&status=&search= ---
func (h *ProductHandler) List(c *gin.Context) {
	var f catalog.ItemFilter
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, apperr.Invalid("category", "must be a numeric id"))
			return
		}
		cid := uint(id)
		f.CategoryID = &cid
	}
	f.Status = models.ItemStatus(c.Query("status"))
	f.Search = c.Query("search")

	items, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	item, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// --- POST: /api/products (multipart, up to 5 "images") ---
func (h *ProductHandler) Create(c *gin.Context) {
	in, err := productForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	saved, err := h.saveImages(c)
	if err != nil {
		respondError(c, err)
		return
	}
	in.Images = saved

	item, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		h.discard(saved)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// --- PUT: /api/products/:id ---
// Images become existing_images (a JSON list) followed by any new uploads.
// Files dropped from the list are removed once the update is stored.
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := productForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	kept := []string{}
	if raw := c.PostForm("existing_images"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &kept); err != nil {
			respondError(c, apperr.Invalid("existing_images", "must be a JSON list of image references"))
			return
		}
	}

	before, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	saved, err := h.saveImages(c)
	if err != nil {
		respondError(c, err)
		return
	}
	in.Images = append(kept, saved...)

	item, err := h.store.Update(c.Request.Context(), id, in)
	if err != nil {
		h.discard(saved)
		respondError(c, err)
		return
	}

	h.discard(dropped(before.Images, item.Images))
	c.JSON(http.StatusOK, item)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// saveImages stores the "images" files of a multipart request. On failure
// nothing from this request is left on disk.
func (h *ProductHandler) saveImages(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return []string{}, nil
	}
	files := form.File["images"]
	if len(files) > uploads.MaxFiles {
		return nil, apperr.Invalid("images", "at most %d files per request", uploads.MaxFiles)
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		ref, err := h.images.Save(fh)
		if err != nil {
			h.discard(saved)
			return nil, err
		}
		saved = append(saved, ref)
	}
	return saved, nil
}

func (h *ProductHandler) discard(refs []string) {
	for _, ref := range refs {
		if err := h.images.Remove(ref); err != nil {
			log.Printf("handlers: could not remove image %s: %v", ref, err)
		}
	}
}

// dropped lists refs present in before but not in after.
func dropped(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, ref := range after {
		keep[ref] = true
	}
	var out []string
	for _, ref := range before {
		if !keep[ref] {
			out = append(out, ref)
		}
	}
	return out
}

// productForm reads the item fields from a form or multipart body.
func productForm(c *gin.Context) (catalog.ItemInput, error) {
	in := catalog.ItemInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		SKU:         c.PostForm("sku"),
	}

	var err error
	if in.CategoryID, err = optionalID(c, "category_id"); err != nil {
		return in, err
	}
	if in.OriginalPrice, err = formDecimal(c, "original_price"); err != nil {
		return in, err
	}
	if in.CostPrice, err = formDecimal(c, "cost_price"); err != nil {
		return in, err
	}
	if in.DiscountPercentage, err = formDecimal(c, "discount_percentage"); err != nil {
		return in, err
	}
	if raw := strings.TrimSpace(c.PostForm("selling_price")); raw != "" {
		d, err := formDecimal(c, "selling_price")
		if err != nil {
			return in, err
		}
		in.SellingPrice = &d
	}
	if raw := strings.TrimSpace(c.PostForm("quantity")); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return in, apperr.Invalid("quantity", "must be a whole number")
		}
		in.Quantity = &q
	}
	if raw := strings.TrimSpace(c.PostForm("status")); raw != "" {
		s := models.ItemStatus(raw)
		in.Status = &s
	}
	return in, nil
}

func formDecimal(c *gin.Context, field string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Invalid(field, "must be a number")
	}
	return d, nil
}

func optionalID(c *gin.Context, field string) (*uint, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, apperr.Invalid(field, "must be a positive integer")
	}
	v := uint(id)
	return &v, nil
}
