package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultModel is the RBAC model used when no model file is configured.
// Subjects are role_<role>, objects are keyMatch2 paths, actions are method regexes.
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicies are seeded into an empty policy table
var DefaultPolicies = [][]string{
	{"role_admin", "/admin/*", "(GET|POST|PUT|PATCH|DELETE)"},
	{"role_admin", "/users/me", "GET"},
	{"role_admin", "/notifications/me", "(GET|PATCH)"},
	{"role_admin", "/auth/reset-password", "POST"},
	{"role_client", "/users/me", "GET"},
	{"role_client", "/notifications/me", "(GET|PATCH)"},
	{"role_client", "/auth/reset-password", "POST"},
	{"role_vendor", "/users/me", "GET"},
	{"role_vendor", "/notifications/me", "(GET|PATCH)"},
	{"role_vendor", "/auth/reset-password", "POST"},
}

type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService builds an enforcer backed by the gorm adapter. An empty
// modelPath selects DefaultModel.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}

	var m model.Model
	if modelPath == "" {
		m, err = model.NewModelFromString(DefaultModel)
	} else {
		m, err = model.NewModelFromFile(modelPath)
	}
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, err
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}
	return &CasbinService{E: e}, nil
}

// SeedDefaults stores DefaultPolicies when no policy exists yet
func (s *CasbinService) SeedDefaults(logger *zap.Logger) error {
	policies, err := s.E.GetPolicy()
	if err != nil {
		return err
	}
	if len(policies) > 0 {
		return nil
	}
	for _, p := range DefaultPolicies {
		if _, err := s.E.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("seed policy %v: %w", p, err)
		}
	}
	logger.Info("casbin: seeded default policies", zap.Int("count", len(DefaultPolicies)))
	return nil
}
