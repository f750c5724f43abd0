// internal/domain/company/service.go
package company

import (
	"errors"
	"fmt"

	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Sentinel errors for company operations
var (
	ErrCompanyNotFound    = errors.New("company not found")
	ErrEmailAlreadyExists = errors.New("a company with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service handles company accounts and session tokens
type Service struct {
	db        *gorm.DB
	config    *config.Config
	passwords *auth.PasswordManager
	tokens    *auth.JWTManager
}

// NewService creates a new company service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		passwords: auth.NewPasswordManager(cfg),
		tokens:    auth.NewJWTManager(cfg),
	}
}

// RegisterRequest represents company registration data
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents company login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair holds an access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new company account with starting funds
func (s *Service) Register(req *RegisterRequest, startingFunds int64) (*Company, error) {
	var existing Company
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	company := &Company{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Funds:        startingFunds,
	}

	if err := s.db.Create(company).Error; err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	return company, nil
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(req *LoginRequest) (*Company, *TokenPair, error) {
	var company Company
	if err := s.db.Where("email = ?", req.Email).First(&company).Error; err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.passwords.VerifyPassword(req.Password, company.PasswordHash); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.GenerateAccessToken(company.ID, company.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(company.ID, company.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &company, &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	company, err := s.Get(claims.CompanyID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(company.ID, company.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := s.tokens.GenerateRefreshToken(company.ID, company.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Get fetches a company by ID
func (s *Service) Get(companyID uint) (*Company, error) {
	var company Company
	if err := s.db.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}
	return &company, nil
}

// AddCarbonFootprintTx increases the company's cumulative carbon footprint
// inside the caller's transaction
func AddCarbonFootprintTx(tx *gorm.DB, companyID uint, amount float64) error {
	if amount <= 0 {
		return nil
	}
	result := tx.Model(&Company{}).Where("id = ?", companyID).
		Update("carbon_footprint", gorm.Expr("carbon_footprint + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to update carbon footprint: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCompanyNotFound
	}
	return nil
}
