package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
)

type GatewaySelector interface {
	// SelectGateway picks a destination PSP for amount and claims the
	// capacity window atomically. Returns ErrNoGatewayAvailable when no
	// assignment is eligible.
	SelectGateway(clientID string, amount int64) (*domain.Gateway, error)
}

type DefaultGatewaySelector struct {
	ClientRepo  domain.ClientRepository
	GatewayRepo domain.GatewayRepository
	HealthRepo  domain.GatewayHealthRepository
	Metrics     *metrics.PipelineMetrics
}

func NewDefaultGatewaySelector(
	clientRepo domain.ClientRepository,
	gatewayRepo domain.GatewayRepository,
	healthRepo domain.GatewayHealthRepository,
	m *metrics.PipelineMetrics,
) *DefaultGatewaySelector {
	return &DefaultGatewaySelector{
		ClientRepo:  clientRepo,
		GatewayRepo: gatewayRepo,
		HealthRepo:  healthRepo,
		Metrics:     m,
	}
}

func (s *DefaultGatewaySelector) SelectGateway(clientID string, amount int64) (*domain.Gateway, error) {
	client, err := s.ClientRepo.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.GatewayRepo.GetAssignmentsByClientID(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	health, err := s.HealthRepo.LatestByGateway()
	if err != nil {
		slog.Error("failed to load gateway health, probes ignored", "error", err.Error())
		health = map[string]*domain.GatewayHealth{}
	}

	var gateway *domain.Gateway
	switch client.RotationMode {
	case domain.RotationPriority:
		gateway, err = s.selectByPriority(assignments, amount)
	case domain.RotationSmart:
		gateway, err = s.selectSmart(client, assignments, health, amount)
	default:
		gateway, err = s.selectRoundRobin(client, assignments, health, amount)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNoGatewayAvailable) && s.Metrics != nil {
			s.Metrics.NoGatewayTotal.WithLabelValues(clientID).Inc()
		}
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.GatewaySelectedTotal.WithLabelValues(gateway.ID, string(client.RotationMode)).Inc()
	}
	return gateway, nil
}

// eligible filters an assignment by static flags and the latest health
// probe. Capacity is not checked here: the conditional reserve is the only
// authoritative capacity check.
func eligible(a *domain.GatewayAssignment, health map[string]*domain.GatewayHealth) bool {
	if !a.IsActive || a.Gateway == nil || !a.Gateway.IsActive {
		return false
	}
	if probe, ok := health[a.GatewayID]; ok && !probe.IsOnline {
		return false
	}
	return true
}

// selectByPriority walks gateways highest priority first, ties broken by
// lowest current volume (the repo orders that way), and claims the first
// monthly window that fits.
func (s *DefaultGatewaySelector) selectByPriority(assignments []*domain.GatewayAssignment, amount int64) (*domain.Gateway, error) {
	candidates := make([]*domain.GatewayAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.IsActive && a.Gateway != nil && a.Gateway.IsActive {
			candidates = append(candidates, a)
		}
	}

	// highest priority first, lowest volume on ties
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			gi, gj := candidates[i].Gateway, candidates[j].Gateway
			if gj.Priority > gi.Priority || (gj.Priority == gi.Priority && gj.CurrentVolume < gi.CurrentVolume) {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}

	for _, a := range candidates {
		err := s.GatewayRepo.ReserveCapacity("", a.GatewayID, amount)
		if err == nil {
			return a.Gateway, nil
		}
		if !errors.Is(err, domain.ErrCapacityExceeded) {
			return nil, err
		}
	}

	return nil, domain.ErrNoGatewayAvailable
}

// selectRoundRobin advances the client's rotation cursor cyclically over the
// ordered assignment list, skipping ineligible or exhausted assignments. A
// full cycle with no claim fails the request.
func (s *DefaultGatewaySelector) selectRoundRobin(
	client *domain.Client,
	assignments []*domain.GatewayAssignment,
	health map[string]*domain.GatewayHealth,
	amount int64,
) (*domain.Gateway, error) {
	n := len(assignments)
	if n == 0 {
		return nil, domain.ErrNoGatewayAvailable
	}

	start := client.RotationPosition
	if start < 0 || start >= n {
		start = 0
	}

	for i := 0; i < n; i++ {
		idx := (start + 1 + i) % n
		a := assignments[idx]
		if !eligible(a, health) {
			continue
		}

		err := s.GatewayRepo.ReserveCapacity(a.ID, a.GatewayID, amount)
		if errors.Is(err, domain.ErrCapacityExceeded) {
			continue
		}
		if err != nil {
			return nil, err
		}

		// A lost cursor race just means another request rotated past us;
		// the claimed capacity still stands.
		if err := s.ClientRepo.AdvanceRotation(client.ID, start, idx); err != nil &&
			!errors.Is(err, domain.ErrRotationConflict) {
			return nil, err
		}
		return a.Gateway, nil
	}

	return nil, domain.ErrNoGatewayAvailable
}

// selectSmart makes a weighted random choice over eligible assignments,
// scoring weight against the gateway's observed success rate. Without any
// probe data it degrades to round-robin.
func (s *DefaultGatewaySelector) selectSmart(
	client *domain.Client,
	assignments []*domain.GatewayAssignment,
	health map[string]*domain.GatewayHealth,
	amount int64,
) (*domain.Gateway, error) {
	probed := false
	for _, a := range assignments {
		if _, ok := health[a.GatewayID]; ok {
			probed = true
			break
		}
	}
	if !probed {
		return s.selectRoundRobin(client, assignments, health, amount)
	}

	candidates := make([]*domain.GatewayAssignment, 0, len(assignments))
	for _, a := range assignments {
		if eligible(a, health) {
			candidates = append(candidates, a)
		}
	}

	for len(candidates) > 0 {
		picked := pickWeighted(candidates)

		err := s.GatewayRepo.ReserveCapacity(picked.ID, picked.GatewayID, amount)
		if err == nil {
			return picked.Gateway, nil
		}
		if !errors.Is(err, domain.ErrCapacityExceeded) {
			return nil, err
		}

		// drop the exhausted candidate and redraw
		next := candidates[:0]
		for _, a := range candidates {
			if a.ID != picked.ID {
				next = append(next, a)
			}
		}
		candidates = next
	}

	return nil, domain.ErrNoGatewayAvailable
}

func score(a *domain.GatewayAssignment) float64 {
	weight := a.Weight
	if weight <= 0 {
		weight = 1
	}
	successRate := a.Gateway.SuccessRate
	if successRate <= 0 {
		successRate = 0.5
	}
	return weight * successRate
}

func pickWeighted(candidates []*domain.GatewayAssignment) *domain.GatewayAssignment {
	total := 0.0
	for _, a := range candidates {
		total += score(a)
	}

	r := rand.Float64() * total
	accumulated := 0.0
	for _, a := range candidates {
		accumulated += score(a)
		if r <= accumulated {
			return a
		}
	}

	return candidates[len(candidates)-1]
}
