package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"
	"farewatch-service/pkg/logger"
)

// LinkingInvitation is returned to the web front end after Initiate
type LinkingInvitation struct {
	Code      string
	ExpiresAt time.Time
	DeepLink  string
}

// LinkingService runs the identity-linking state machine: a code moves
// NoCode -> CodeIssued -> Consumed or Expired, and a successful
// consumption binds the bot identity to the web identity and reconciles
// alert visibility across the two stores.
type LinkingService struct {
	codeRepo     repository.LinkingCodeRepository
	identityRepo repository.WebIdentityRepository
	alertRepo    repository.AlertRepository
	logger       logger.Logger
	codeTTL      time.Duration
	botName      string
}

// NewLinkingService creates a new linking service
func NewLinkingService(
	codeRepo repository.LinkingCodeRepository,
	identityRepo repository.WebIdentityRepository,
	alertRepo repository.AlertRepository,
	logger logger.Logger,
	codeTTL time.Duration,
	botName string,
) *LinkingService {
	return &LinkingService{
		codeRepo:     codeRepo,
		identityRepo: identityRepo,
		alertRepo:    alertRepo,
		logger:       logger,
		codeTTL:      codeTTL,
		botName:      botName,
	}
}

// Initiate issues a fresh linking code for an authenticated web identity.
// Any prior unconsumed code for the same owner is invalidated first, so
// at most one redeemable code exists per owner.
func (s *LinkingService) Initiate(ctx context.Context, webID string) (*LinkingInvitation, error) {
	if _, err := s.identityRepo.FindByID(ctx, webID); err != nil {
		return nil, err
	}

	if err := s.codeRepo.InvalidateForOwner(ctx, webID); err != nil {
		return nil, fmt.Errorf("failed to invalidate previous codes: %w", err)
	}

	code, err := generateLinkingCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	lc := &entity.LinkingCode{
		Code:          code,
		WebIdentityID: webID,
		ExpiresAt:     time.Now().Add(s.codeTTL),
	}
	if err := s.codeRepo.Create(ctx, lc); err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}

	s.logger.Info("Linking code issued", "webIdentityId", webID, "expiresAt", lc.ExpiresAt)

	return &LinkingInvitation{
		Code:      code,
		ExpiresAt: lc.ExpiresAt,
		DeepLink:  fmt.Sprintf("https://t.me/%s?start=link_%s", s.botName, code),
	}, nil
}

// Confirm redeems a code on behalf of a bot-channel-verified identity.
// The consume step is a single atomic check-and-set, so a code can never
// be redeemed twice even under concurrent confirm attempts. On success
// the bidirectional binding is created and alert visibility reconciled.
func (s *LinkingService) Confirm(ctx context.Context, code, botID string) error {
	now := time.Now()

	pending, err := s.codeRepo.FindActive(ctx, code, now)
	if err != nil {
		return err
	}

	// Reject before consuming so a failed attempt does not burn the code
	existing, err := s.identityRepo.FindByBotID(ctx, botID)
	if err != nil && !errors.Is(err, entity.ErrIdentityNotFound) {
		return err
	}
	if existing != nil && existing.ID != pending.WebIdentityID {
		return entity.ErrAlreadyLinked
	}

	consumed, err := s.codeRepo.Consume(ctx, code, time.Now())
	if err != nil {
		return err
	}

	if err := s.identityRepo.BindBot(ctx, consumed.WebIdentityID, botID); err != nil {
		// Give the code back so the owner can retry without re-initiating
		if restoreErr := s.codeRepo.Restore(ctx, code, time.Now()); restoreErr != nil {
			s.logger.Error("Failed to restore linking code after bind failure",
				"webIdentityId", consumed.WebIdentityID,
				"error", restoreErr)
		}
		return err
	}

	if err := s.alertRepo.Reconcile(ctx, botID, consumed.WebIdentityID); err != nil {
		return fmt.Errorf("identities linked but alert reconciliation failed: %w", err)
	}

	s.logger.Info("Identities linked",
		"webIdentityId", consumed.WebIdentityID,
		"botIdentityId", botID)

	return nil
}

// Unlink clears the binding in both directions. Alerts created under the
// bot identity are detached from the web view, never deleted.
func (s *LinkingService) Unlink(ctx context.Context, webID string) error {
	botID, err := s.identityRepo.UnbindBot(ctx, webID)
	if err != nil {
		return err
	}
	if botID == "" {
		return nil
	}

	if err := s.alertRepo.Detach(ctx, botID, webID); err != nil {
		return fmt.Errorf("binding cleared but alert detach failed: %w", err)
	}

	s.logger.Info("Identities unlinked", "webIdentityId", webID, "botIdentityId", botID)
	return nil
}

// SweepExpired garbage-collects codes past their expiry
func (s *LinkingService) SweepExpired(ctx context.Context) error {
	deleted, err := s.codeRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("Expired linking codes removed", "count", deleted)
	}
	return nil
}

// generateLinkingCode returns a random six-digit numeric code
func generateLinkingCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
