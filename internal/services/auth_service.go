package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/sirupsen/logrus"
)

type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Principal models.Principal `json:"principal"`
	Company   *models.Company  `json:"company"`
}

type AuthService interface {
	Login(ctx context.Context, companySlug, code string) (*LoginResult, error)
}

type authService struct {
	companies pgrepo.CompanyRepository
	secret    string
	ttl       time.Duration
	log       *logrus.Logger
	now       func() time.Time
}

func NewAuthService(companies pgrepo.CompanyRepository, secret string, ttl time.Duration, log *logrus.Logger) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &authService{companies: companies, secret: secret, ttl: ttl, log: log, now: time.Now}
}

func (s *authService) Login(ctx context.Context, companySlug, code string) (*LoginResult, error) {
	const op = "AuthService.Login"

	companySlug = strings.ToLower(strings.TrimSpace(companySlug))
	code = strings.TrimSpace(code)
	if companySlug == "" || code == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_slug and code are required", nil)
	}
	denied := utils.E(utils.CodeUnauthorized, op, "invalid access code", nil)

	co, err := s.companies.GetBySlug(ctx, companySlug)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, denied
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load company", err)
	}

	now := s.now().UTC()
	codes, err := s.companies.ActiveAccessCodes(ctx, co.ID, now)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load access codes", err)
	}

	for _, ac := range codes {
		if utils.CheckSecret(ac.CodeHash, code) != nil {
			continue
		}
		p := models.Principal{Subject: ac.ID, CompanyID: co.ID, Role: ac.Role}
		tok, exp, err := utils.IssueToken(s.secret, p, s.ttl, now)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
		}
		if err := s.companies.TouchAccessCode(ctx, ac.ID, now); err != nil && s.log != nil {
			s.log.WithError(err).WithField("access_code_id", ac.ID).Warn("failed to record access code use")
		}
		return &LoginResult{Token: tok, ExpiresAt: exp, Principal: p, Company: co}, nil
	}
	return nil, denied
}
