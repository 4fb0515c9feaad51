package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/hourdesk/internal/customer/domain"
)

type customerRequest struct {
	CustomerName   string  `json:"customer_name"`
	CompanyName    string  `json:"company_name"`
	Email          string  `json:"email"`
	HoursPurchased float64 `json:"hours_purchased"`
	HoursUsed      float64 `json:"hours_used"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		Email:          strings.TrimSpace(req.Email),
		HoursPurchased: req.HoursPurchased,
		HoursUsed:      req.HoursUsed,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		Name    string `form:"name"`
		Company string `form:"company"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		Name:    strings.TrimSpace(query.Name),
		Company: strings.TrimSpace(query.Company),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		Email:          strings.TrimSpace(req.Email),
		HoursPurchased: req.HoursPurchased,
		HoursUsed:      req.HoursUsed,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	err := s.customerSvc.Delete(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
