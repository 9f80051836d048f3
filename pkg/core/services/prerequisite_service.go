package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/core/gate"
	"github.com/caffeinepub/liinks/pkg/ports"
)

// PrerequisiteService looks up the caller's remote prerequisite state and
// asks the gate for a decision. A positive timeout bounds each check.
type PrerequisiteService struct {
	profiles ports.ProfileService
	gate     gate.Gate
	timeout  time.Duration
	logger   *zap.Logger
}

func NewPrerequisiteService(profiles ports.ProfileService, g gate.Gate, timeout time.Duration, logger *zap.Logger) *PrerequisiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrerequisiteService{profiles: profiles, gate: g, timeout: timeout, logger: logger}
}

type factKind int

const (
	factRegistered factKind = iota
	factPhoneVerified
	factSubscribed
)

type factResult struct {
	kind  factKind
	value bool
	err   error
}

// Check resolves the lookups concurrently. Facts still unresolved when ctx
// ends are left pending, which the gate reports as loading. The first lookup
// error is returned as is.
func (s *PrerequisiteService) Check(ctx context.Context, identity *ports.Identity) (gate.Decision, error) {
	// An anonymous caller has no profile to look up.
	if identity == nil || identity.UserID == "" {
		return s.gate.Evaluate(gate.Prerequisites{
			Authenticated: gate.Known(false),
			Registered:    gate.Known(false),
			PhoneVerified: gate.Known(false),
			Subscribed:    gate.Known(false),
		}), nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	userID := identity.UserID
	lookups := map[factKind]func(context.Context, string) (bool, error){
		factRegistered:    s.profiles.IsRegistered,
		factPhoneVerified: s.profiles.IsPhoneVerified,
	}
	if s.gate.NeedsSubscription() {
		lookups[factSubscribed] = s.profiles.HasActiveSubscription
	}

	// Buffered so lookups finishing after ctx ends never block.
	results := make(chan factResult, len(lookups))
	for kind, lookup := range lookups {
		go func(kind factKind, lookup func(context.Context, string) (bool, error)) {
			v, err := lookup(ctx, userID)
			results <- factResult{kind: kind, value: v, err: err}
		}(kind, lookup)
	}

	prereqs := gate.Prerequisites{Authenticated: gate.Known(true)}
	for pending := len(lookups); pending > 0; pending-- {
		select {
		case <-ctx.Done():
			s.logger.Debug("prerequisite lookups still pending", zap.String("user_id", userID), zap.Int("pending", pending))
			return s.gate.Evaluate(prereqs), nil
		case r := <-results:
			if r.err != nil {
				return gate.Decision{}, fmt.Errorf("prerequisite lookup: %w", r.err)
			}
			switch r.kind {
			case factRegistered:
				prereqs.Registered = gate.Known(r.value)
			case factPhoneVerified:
				prereqs.PhoneVerified = gate.Known(r.value)
			case factSubscribed:
				prereqs.Subscribed = gate.Known(r.value)
			}
		}
	}
	return s.gate.Evaluate(prereqs), nil
}

var _ ports.PrerequisiteService = (*PrerequisiteService)(nil)
