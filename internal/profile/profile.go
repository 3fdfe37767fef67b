package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
)

var ErrInvalidForm = errors.New("invalid sign-up form")

var validate = validator.New()

// Key names one profile entry.
type Key string

const (
	KeyVerified         Key = "verified"
	KeyCustomerType     Key = "customerType"
	KeyCustomer         Key = "customer"
	KeyAuth             Key = "auth"
	KeyEmail            Key = "email"
	KeyBusinessIndustry Key = "businessIndustry"
	KeyOperationPeriod  Key = "operationPeriod"
	KeyInvestmentType   Key = "investmentType"
	KeyInvestorIndustry Key = "investorIndustry"
	KeyAccessToken      Key = "accessToken"
)

// Store holds plain string entries. A missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the raw value of key, or "" when it is not set.
func (s *Service) Get(ctx context.Context, key Key) (string, error) {
	v, _, err := s.store.Get(ctx, string(key))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}

	return v, nil
}

func (s *Service) Set(ctx context.Context, key Key, value string) error {
	if err := s.store.Set(ctx, string(key), value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

func (s *Service) Delete(ctx context.Context, key Key) error {
	if err := s.store.Delete(ctx, string(key)); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	return nil
}

// GetJSON decodes the JSON entry under key into v. It reports false when the
// entry is not set.
func (s *Service) GetJSON(ctx context.Context, key Key, v any) (bool, error) {
	raw, ok, err := s.store.Get(ctx, string(key))
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}

	if !ok || raw == "" {
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}

	return true, nil
}

func (s *Service) SetJSON(ctx context.Context, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	return s.Set(ctx, key, string(raw))
}

func (s *Service) Verified(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyVerified)
}

func (s *Service) SetVerified(ctx context.Context, token string) error {
	return s.Set(ctx, KeyVerified, token)
}

func (s *Service) CustomerType(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyCustomerType)
}

func (s *Service) SetCustomerType(ctx context.Context, customerType string) error {
	return s.Set(ctx, KeyCustomerType, customerType)
}

// Customer decodes the stored customer into v.
func (s *Service) Customer(ctx context.Context, v any) (bool, error) {
	return s.GetJSON(ctx, KeyCustomer, v)
}

func (s *Service) SetCustomer(ctx context.Context, v any) error {
	return s.SetJSON(ctx, KeyCustomer, v)
}

func (s *Service) DeleteCustomer(ctx context.Context) error {
	return s.Delete(ctx, KeyCustomer)
}

func (s *Service) Auth(ctx context.Context, v any) (bool, error) {
	return s.GetJSON(ctx, KeyAuth, v)
}

func (s *Service) SetAuth(ctx context.Context, v any) error {
	return s.SetJSON(ctx, KeyAuth, v)
}

func (s *Service) Email(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyEmail)
}

func (s *Service) SetEmail(ctx context.Context, email string) error {
	return s.Set(ctx, KeyEmail, email)
}

func (s *Service) ClearEmail(ctx context.Context) error {
	return s.Delete(ctx, KeyEmail)
}

// Clear removes every entry, including the stored access token.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing profile: %w", err)
	}

	return nil
}

// SignUpForm is the additional sign-up data collected before verification.
type SignUpForm struct {
	Email            string `json:"email" validate:"omitempty,email"`
	InvestmentType   string `json:"investmentType" validate:"max=64"`
	OperationPeriod  string `json:"operationPeriod" validate:"max=64"`
	BusinessIndustry string `json:"businessIndustry" validate:"max=64"`
}

func (s *Service) SignUpFormData(ctx context.Context) (SignUpForm, error) {
	var (
		form SignUpForm
		err  error
	)

	fields := []struct {
		key Key
		dst *string
	}{
		{KeyEmail, &form.Email},
		{KeyInvestmentType, &form.InvestmentType},
		{KeyOperationPeriod, &form.OperationPeriod},
		{KeyBusinessIndustry, &form.BusinessIndustry},
	}

	for _, f := range fields {
		if *f.dst, err = s.Get(ctx, f.key); err != nil {
			return SignUpForm{}, err
		}
	}

	return form, nil
}

// SaveSignUpForm stores every field of form. Business and investor sign-ups
// share the same keys.
func (s *Service) SaveSignUpForm(ctx context.Context, form SignUpForm) error {
	if err := validate.Struct(form); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}

	entries := map[Key]string{
		KeyEmail:            form.Email,
		KeyInvestmentType:   form.InvestmentType,
		KeyOperationPeriod:  form.OperationPeriod,
		KeyBusinessIndustry: form.BusinessIndustry,
	}

	for k, v := range entries {
		if err := s.Set(ctx, k, v); err != nil {
			return err
		}
	}

	return nil
}

// Tokens exposes the stored access token to the invoicing clients.
func (s *Service) Tokens() invoicing.TokenStore {
	return tokenStore{svc: s}
}

type tokenStore struct {
	svc *Service
}

func (t tokenStore) Token(ctx context.Context) (string, error) {
	return t.svc.Get(ctx, KeyAccessToken)
}

func (t tokenStore) SetToken(ctx context.Context, token string) error {
	return t.svc.Set(ctx, KeyAccessToken, token)
}
