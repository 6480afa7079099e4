package authgate

import (
	"context"

	"github.com/goliatone/go-router"
)

// ServiceRoleStrategy is reserved for system-to-system callers. It never
// authenticates end users and currently always declines, keeping its slot at
// the bottom of the priority order.
type ServiceRoleStrategy struct {
	priority int
}

func NewServiceRoleStrategy() *ServiceRoleStrategy {
	return &ServiceRoleStrategy{priority: 1}
}

func (s *ServiceRoleStrategy) Name() string  { return StrategyServiceRole }
func (s *ServiceRoleStrategy) Priority() int { return s.priority }

func (s *ServiceRoleStrategy) Verify(ctx context.Context, rc router.Context) (*AuthResult, error) {
	return &AuthResult{Success: false, Strategy: s.Name()}, nil
}
