package stubapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"shopfront/model"
)

func pageParams(c *gin.Context) (int, int) {
	page := 1
	limit := 20

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	return page, limit
}

// ---- users (admin) ----

func (h HandlerSet) listUsers(c *gin.Context) {
	page, limit := pageParams(c)
	c.JSON(http.StatusOK, h.store.ListUsers(page, limit, model.UserRole(c.Query("role"))))
}

type createUserRequest struct {
	FullName string         `json:"fullName" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=8"`
	Role     model.UserRole `json:"role" binding:"required"`
}

func (h HandlerSet) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	profile, err := h.store.CreateAccount(req.FullName, req.Email, hash, req.Role)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEmailTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, profile)
}

type updateUserRequest struct {
	FullName string           `json:"fullName"`
	Role     model.UserRole   `json:"role"`
	Status   model.UserStatus `json:"status"`
}

func (h HandlerSet) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	profile, err := h.store.UpdateUser(c.Param("id"), req.FullName, req.Role, req.Status)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h HandlerSet) deleteUser(c *gin.Context) {
	if err := h.store.DeleteUser(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- categories ----

func (h HandlerSet) listCategories(c *gin.Context) {
	page, limit := pageParams(c)
	c.JSON(http.StatusOK, h.store.ListCategories(page, limit))
}

type categoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

func (h HandlerSet) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cat := h.store.UpsertCategory(model.Category{Name: req.Name, Slug: req.Slug, Image: req.Image})
	c.JSON(http.StatusCreated, cat)
}

func (h HandlerSet) updateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cat := h.store.UpsertCategory(model.Category{ID: c.Param("id"), Name: req.Name, Slug: req.Slug, Image: req.Image})
	c.JSON(http.StatusOK, cat)
}

func (h HandlerSet) deleteCategory(c *gin.Context) {
	if err := h.store.DeleteCategory(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "category not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- products ----

func (h HandlerSet) listProducts(c *gin.Context) {
	page, limit := pageParams(c)
	filter := ProductFilter{
		CategoryID: c.Query("category"),
		Query:      c.Query("q"),
	}
	c.JSON(http.StatusOK, h.store.ListProducts(page, limit, filter))
}

func (h HandlerSet) listSellerProducts(c *gin.Context) {
	page, limit := pageParams(c)
	filter := ProductFilter{SellerID: currentUser(c).ID}
	c.JSON(http.StatusOK, h.store.ListProducts(page, limit, filter))
}

func (h HandlerSet) getProduct(c *gin.Context) {
	product, ok := h.store.ProductByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	CategoryID  string          `json:"categoryId"`
}

func (h HandlerSet) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	product := h.store.UpsertProduct(model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		SellerID:    currentUser(c).ID,
	})
	c.JSON(http.StatusCreated, product)
}

func (h HandlerSet) updateProduct(c *gin.Context) {
	existing, ok := h.store.ProductByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Image = req.Image
	existing.Stock = req.Stock
	existing.CategoryID = req.CategoryID
	c.JSON(http.StatusOK, h.store.UpsertProduct(existing))
}

func (h HandlerSet) deleteProduct(c *gin.Context) {
	if err := h.store.DeleteProduct(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- reviews ----

func (h HandlerSet) listReviews(c *gin.Context) {
	page, limit := pageParams(c)
	c.JSON(http.StatusOK, h.store.ListReviews(page, limit, c.Query("productId")))
}

type reviewRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

func (h HandlerSet) createReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if _, ok := h.store.ProductByID(req.ProductID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}

	review := h.store.UpsertReview(model.Review{
		ProductID: req.ProductID,
		UserID:    currentUser(c).ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	c.JSON(http.StatusCreated, review)
}

func (h HandlerSet) deleteReview(c *gin.Context) {
	if err := h.store.DeleteReview(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "review not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
