package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/membership/internal/customer/domain"
)

// Birth dates are accepted as plain dates or as the RFC 3339 timestamps the
// API itself returns.
var birthDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseBirthDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range birthDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

type customerRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"max=20"`
	Document  string `json:"document" validate:"max=20"`
	Address   string `json:"address" validate:"max=500"`
	BirthDate string `json:"birthDate" validate:"omitempty,birthdate"`
	Notes     string `json:"notes" validate:"max=1000"`
}

type updateCustomerRequest struct {
	customerRequest
	IsActive *bool `json:"isActive"`
}

func (r customerRequest) birthDate() *time.Time {
	if strings.TrimSpace(r.BirthDate) == "" {
		return nil
	}
	parsed, ok := parseBirthDate(r.BirthDate)
	if !ok {
		return nil
	}
	return &parsed
}

func (s *Server) ListCustomers(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	customers, err := s.customerSvc.ListCustomers(c.Request.Context(), ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNilCustomers(customers))
}

func (s *Server) ListCustomersWithSubscriptions(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	customers, err := s.customerSvc.ListCustomersWithSubscriptions(c.Request.Context(), ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNilCustomers(customers))
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	customer, err := s.customerSvc.GetCustomer(c.Request.Context(), id, ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (s *Server) CreateCustomer(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req customerRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	customer, err := s.customerSvc.CreateCustomer(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Document:  req.Document,
		Address:   req.Address,
		BirthDate: req.birthDate(),
		Notes:     req.Notes,
	}, ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req updateCustomerRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	customer, err := s.customerSvc.UpdateCustomer(c.Request.Context(), id, customerdomain.UpdateCustomerRequest{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Document:  req.Document,
		Address:   req.Address,
		BirthDate: req.birthDate(),
		IsActive:  isActive,
		Notes:     req.Notes,
	}, ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	deleted, err := s.customerSvc.DeleteCustomer(c.Request.Context(), id, ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !deleted {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer removed."})
}

func (s *Server) CheckCustomerDocument(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	inUse, err := s.customerSvc.IsDocumentInUse(c.Request.Context(), c.Param("document"), ownerID, excludeIDQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": !inUse})
}

func (s *Server) CheckCustomerEmail(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	inUse, err := s.customerSvc.IsEmailInUse(c.Request.Context(), c.Param("email"), ownerID, excludeIDQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": !inUse})
}

// excludeIDQuery ignores a missing or malformed ?excludeId=.
func excludeIDQuery(c *gin.Context) *snowflake.ID {
	raw := strings.TrimSpace(c.Query("excludeId"))
	if raw == "" {
		return nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil
	}
	return &id
}

func nonNilCustomers(items []*customerdomain.Customer) []*customerdomain.Customer {
	if items == nil {
		return []*customerdomain.Customer{}
	}
	return items
}
