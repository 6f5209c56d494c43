package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/you/buzoku/domain"
	"go.uber.org/zap"
)

// ErrInvalidPolicy is returned for policies with an empty field
var ErrInvalidPolicy = errors.New("policy requires sub, obj and act")

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

func (w *CasbinEnforcerWrapper) SavePolicy() error {
	return w.enforcer.SavePolicy()
}

// PolicyServiceImpl implements domain.PolicyService on a casbin enforcer.
// Roles are stored as role_<role> subjects; callers may pass either form.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
	logger   *zap.Logger
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer domain.CasbinEnforcer, logger *zap.Logger) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: enforcer,
		logger:   logger.Named("policy"),
	}
}

func normalizePolicy(role, resource, action string) (string, string, string, error) {
	role, resource, action = strings.TrimSpace(role), strings.TrimSpace(resource), strings.TrimSpace(action)
	if role == "" || resource == "" || action == "" {
		return "", "", "", ErrInvalidPolicy
	}
	return domain.PolicySubject(role), resource, action, nil
}

// AddPolicy implements domain.PolicyService
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	sub, obj, act, err := normalizePolicy(role, resource, action)
	if err != nil {
		return err
	}
	added, err := p.enforcer.AddPolicy(sub, obj, act)
	if err != nil {
		return fmt.Errorf("add policy: %w", err)
	}
	if !added {
		return nil
	}
	p.logger.Info("policy added", zap.String("sub", sub), zap.String("obj", obj), zap.String("act", act))
	return p.enforcer.SavePolicy()
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	sub, obj, act, err := normalizePolicy(role, resource, action)
	if err != nil {
		return err
	}
	removed, err := p.enforcer.RemovePolicy(sub, obj, act)
	if err != nil {
		return fmt.Errorf("remove policy: %w", err)
	}
	if !removed {
		return nil
	}
	p.logger.Info("policy removed", zap.String("sub", sub), zap.String("obj", obj), zap.String("act", act))
	return p.enforcer.SavePolicy()
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	return p.enforcer.Enforce(domain.PolicySubject(role), resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, err := p.enforcer.GetPolicy()
	if err != nil {
		p.logger.Warn("list policies failed", zap.Error(err))
		return [][]string{}
	}
	return policies
}
