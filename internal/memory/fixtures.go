package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/mini-invest/investment-service/internal/domain"
)

type fixtureFile struct {
	Users    []userFixture    `mapstructure:"users"`
	Products []productFixture `mapstructure:"products"`
}

type userFixture struct {
	ID      string `mapstructure:"id"`
	Balance string `mapstructure:"balance"`
	Active  bool   `mapstructure:"active"`
}

type productFixture struct {
	ID                string `mapstructure:"id"`
	Name              string `mapstructure:"name"`
	Type              string `mapstructure:"type"`
	MinInvestment     string `mapstructure:"min_investment"`
	MaxInvestment     string `mapstructure:"max_investment"`
	AnnualYield       string `mapstructure:"annual_yield"`
	TenureMonths      int    `mapstructure:"tenure_months"`
	CompoundFrequency string `mapstructure:"compound_frequency"`
	RiskLevel         string `mapstructure:"risk_level"`
	Active            bool   `mapstructure:"active"`
}

// LoadFixtures reads users and products from a YAML or JSON file (the format follows the
// extension) and puts them into the store. Nothing is stored if any entry is invalid.
func (s *Store) LoadFixtures(path string) (users, products int, err error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return 0, 0, fmt.Errorf("failed to read fixtures %s: %w", path, err)
	}

	var file fixtureFile
	if err := v.Unmarshal(&file); err != nil {
		return 0, 0, fmt.Errorf("failed to decode fixtures %s: %w", path, err)
	}

	parsedUsers := make([]domain.User, 0, len(file.Users))
	for i, f := range file.Users {
		u, err := f.user()
		if err != nil {
			return 0, 0, fmt.Errorf("fixtures %s: user %d: %w", path, i, err)
		}
		parsedUsers = append(parsedUsers, u)
	}
	parsedProducts := make([]domain.Product, 0, len(file.Products))
	for i, f := range file.Products {
		p, err := f.product()
		if err != nil {
			return 0, 0, fmt.Errorf("fixtures %s: product %d: %w", path, i, err)
		}
		parsedProducts = append(parsedProducts, p)
	}

	for _, u := range parsedUsers {
		s.PutUser(u)
	}
	for _, p := range parsedProducts {
		s.PutProduct(p)
	}
	return len(parsedUsers), len(parsedProducts), nil
}

func (f userFixture) user() (domain.User, error) {
	id, err := uuid.Parse(f.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("invalid id %q: %w", f.ID, err)
	}
	balance, err := decimal.NewFromString(f.Balance)
	if err != nil {
		return domain.User{}, fmt.Errorf("invalid balance %q: %w", f.Balance, err)
	}
	if balance.IsNegative() {
		return domain.User{}, fmt.Errorf("balance %s is negative", f.Balance)
	}
	now := time.Now().UTC()
	return domain.User{
		ID:             id,
		AccountBalance: balance,
		IsActive:       f.Active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (f productFixture) product() (domain.Product, error) {
	id, err := uuid.Parse(f.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid id %q: %w", f.ID, err)
	}
	minInvestment, err := decimal.NewFromString(f.MinInvestment)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid min_investment %q: %w", f.MinInvestment, err)
	}
	yield, err := decimal.NewFromString(f.AnnualYield)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid annual_yield %q: %w", f.AnnualYield, err)
	}
	if yield.IsNegative() {
		return domain.Product{}, domain.ErrInvalidRate
	}
	if err := domain.ValidateTenure(f.TenureMonths); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:                id,
		Name:              f.Name,
		Type:              f.Type,
		MinInvestment:     minInvestment,
		AnnualYield:       yield,
		TenureMonths:      f.TenureMonths,
		CompoundFrequency: domain.CompoundFrequency(f.CompoundFrequency),
		RiskLevel:         domain.RiskLevel(f.RiskLevel),
		IsActive:          f.Active,
	}
	if f.MaxInvestment != "" {
		maxInvestment, err := decimal.NewFromString(f.MaxInvestment)
		if err != nil {
			return domain.Product{}, fmt.Errorf("invalid max_investment %q: %w", f.MaxInvestment, err)
		}
		if maxInvestment.LessThan(minInvestment) {
			return domain.Product{}, fmt.Errorf("max_investment %s is below min_investment %s", f.MaxInvestment, f.MinInvestment)
		}
		p.MaxInvestment = &maxInvestment
	}
	return p, nil
}
