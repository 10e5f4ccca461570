package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

type AuthService struct {
	db     *gorm.DB
	issuer *auth.Issuer
	log    *zap.Logger
}

func NewAuthService(db *gorm.DB, issuer *auth.Issuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{db: db, issuer: issuer, log: log}
}

type RegisterInput struct {
	Nom        string `json:"nom"`
	Prenom     string `json:"prenom"`
	Email      string `json:"email"`
	MotDePasse string `json:"mot_de_passe"`
	Adresse    string `json:"adresse"`
	Telephone  string `json:"telephone"`
}

type LoginInput struct {
	Email      string `json:"email"`
	MotDePasse string `json:"mot_de_passe"`
}

// Session is what register and login hand back to the caller.
type Session struct {
	Token  string
	Client *models.Client
}

// ValidateClientInput applies the rules shared by self-registration and
// admin-created accounts.
func ValidateClientInput(in RegisterInput) validation.Violations {
	v := validation.Violations{}
	validation.Required("nom", in.Nom, v)
	validation.Required("prenom", in.Prenom, v)
	validation.Required("email", in.Email, v)
	validation.Email("email", strings.TrimSpace(in.Email), v)
	validation.Required("mot_de_passe", in.MotDePasse, v)
	validation.MinLength("mot_de_passe", in.MotDePasse, MinPasswordLength, v)
	return v
}

// CreateClient hashes the password and inserts the account with role.
func (s *AuthService) CreateClient(ctx context.Context, in RegisterInput, role string) (*models.Client, error) {
	if err := invalid(ValidateClientInput(in)); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.Client{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	hash, err := auth.HashPassword(in.MotDePasse)
	if err != nil {
		return nil, err
	}
	c := models.Client{
		Nom:        strings.TrimSpace(in.Nom),
		Prenom:     strings.TrimSpace(in.Prenom),
		Email:      email,
		MotDePasse: hash,
		Adresse:    in.Adresse,
		Telephone:  in.Telephone,
		Role:       role,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		if errors.Is(store.Translate(err), store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &c, nil
}

// Register creates a "user" account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	c, err := s.CreateClient(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	s.log.Info("client registered", zap.Uint("client_id", c.ID))
	return s.session(c)
}

// Login checks credentials. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Required("mot_de_passe", in.MotDePasse, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	var c models.Client
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(in.MotDePasse, c.MotDePasse) {
		s.log.Info("login rejected", zap.Uint("client_id", c.ID))
		return nil, ErrInvalidCredentials
	}
	return s.session(&c)
}

// Me returns the client behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, clientID uint) (*models.Client, error) {
	return store.First[models.Client](ctx, s.db, clientID)
}

func (s *AuthService) session(c *models.Client) (*Session, error) {
	tok, _, err := s.issuer.Generate(c)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, Client: c}, nil
}
