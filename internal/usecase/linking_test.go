package usecase

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkingFixture struct {
	codeRepo     *fakeCodeRepo
	identityRepo *fakeIdentityRepo
	alertRepo    *fakeAlertRepo
	service      *LinkingService
}

func newLinkingFixture(t *testing.T, webIDs ...string) *linkingFixture {
	t.Helper()

	codeRepo := newFakeCodeRepo()
	identityRepo := newFakeIdentityRepo(webIDs...)
	alertRepo := newFakeAlertRepo()

	service := NewLinkingService(codeRepo, identityRepo, alertRepo,
		logger.NewNopLogger(), 10*time.Minute, "farewatch_bot")

	return &linkingFixture{
		codeRepo:     codeRepo,
		identityRepo: identityRepo,
		alertRepo:    alertRepo,
		service:      service,
	}
}

func (f *linkingFixture) addBotAlert(t *testing.T, id, botID string) {
	t.Helper()
	require.NoError(t, f.alertRepo.Create(context.Background(), &entity.Alert{
		ID:          id,
		OwnerBotID:  botID,
		CreatedBy:   entity.CreatedByBot,
		Origin:      "SDQ",
		Destination: "MIA",
		ScopeKind:   entity.ScopeMonthly,
		YearMonth:   "2025-08",
		Status:      entity.AlertActive,
	}))
}

func (f *linkingFixture) addWebAlert(t *testing.T, id, webID string) {
	t.Helper()
	require.NoError(t, f.alertRepo.Create(context.Background(), &entity.Alert{
		ID:          id,
		OwnerWebID:  webID,
		CreatedBy:   entity.CreatedByWeb,
		Origin:      "JFK",
		Destination: "LAX",
		ScopeKind:   entity.ScopeSpecific,
		Status:      entity.AlertActive,
	}))
}

func TestInitiate_IssuesSixDigitCodeWithDeepLink(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	invitation, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), invitation.Code)
	assert.Contains(t, invitation.DeepLink, "t.me/farewatch_bot")
	assert.Contains(t, invitation.DeepLink, "start=link_"+invitation.Code)
	assert.True(t, invitation.ExpiresAt.After(time.Now()))
}

func TestInitiate_UnknownIdentity(t *testing.T) {
	f := newLinkingFixture(t)

	_, err := f.service.Initiate(context.Background(), "nobody")
	assert.ErrorIs(t, err, entity.ErrIdentityNotFound)
}

func TestInitiate_InvalidatesPriorCode(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	first, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	second, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)

	_, err = f.codeRepo.FindActive(ctx, first.Code, time.Now())
	assert.ErrorIs(t, err, entity.ErrInvalidOrExpiredCode, "the older code must be dead")
	_, err = f.codeRepo.FindActive(ctx, second.Code, time.Now())
	assert.NoError(t, err)
}

func TestConfirm_BindsAndReconcilesAlerts(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	f.addBotAlert(t, "bot-alert", "bot-1")
	f.addWebAlert(t, "web-alert", "web-1")
	before := f.alertRepo.count()

	invitation, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Confirm(ctx, invitation.Code, "bot-1"))

	ident, err := f.identityRepo.FindByID(ctx, "web-1")
	require.NoError(t, err)
	require.NotNil(t, ident.BotIdentityID)
	assert.Equal(t, "bot-1", *ident.BotIdentityID)

	// Reconciliation re-points ownership, it never copies or deletes rows
	assert.Equal(t, before, f.alertRepo.count())

	webView, err := f.alertRepo.ListByWebOwner(ctx, "web-1")
	require.NoError(t, err)
	assert.Len(t, webView, 2, "the bot-created alert joins the web view")

	botView, err := f.alertRepo.ListByBotOwner(ctx, "bot-1")
	require.NoError(t, err)
	assert.Len(t, botView, 2, "the web-created alert joins the bot view")
}

func TestConfirm_CodeIsSingleUse(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	invitation, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Confirm(ctx, invitation.Code, "bot-1"))

	err = f.service.Confirm(ctx, invitation.Code, "bot-2")
	assert.ErrorIs(t, err, entity.ErrInvalidOrExpiredCode)
}

func TestConfirm_ExpiredCode(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	require.NoError(t, f.codeRepo.Create(ctx, &entity.LinkingCode{
		Code:          "111111",
		WebIdentityID: "web-1",
		ExpiresAt:     time.Now().Add(-time.Minute),
	}))

	err := f.service.Confirm(ctx, "111111", "bot-1")
	assert.ErrorIs(t, err, entity.ErrInvalidOrExpiredCode)

	ident, err := f.identityRepo.FindByID(ctx, "web-1")
	require.NoError(t, err)
	assert.Nil(t, ident.BotIdentityID)
}

func TestConfirm_UnknownCode(t *testing.T) {
	f := newLinkingFixture(t, "web-1")

	err := f.service.Confirm(context.Background(), "999999", "bot-1")
	assert.ErrorIs(t, err, entity.ErrInvalidOrExpiredCode)
}

func TestConfirm_AlreadyLinkedBotDoesNotBurnTheCode(t *testing.T) {
	f := newLinkingFixture(t, "web-1", "web-2")
	ctx := context.Background()

	first, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Confirm(ctx, first.Code, "bot-1"))

	second, err := f.service.Initiate(ctx, "web-2")
	require.NoError(t, err)

	err = f.service.Confirm(ctx, second.Code, "bot-1")
	assert.ErrorIs(t, err, entity.ErrAlreadyLinked)

	// The rejected attempt left the code intact for the right device
	require.NoError(t, f.service.Confirm(ctx, second.Code, "bot-2"))

	ident, err := f.identityRepo.FindByID(ctx, "web-2")
	require.NoError(t, err)
	require.NotNil(t, ident.BotIdentityID)
	assert.Equal(t, "bot-2", *ident.BotIdentityID)
}

func TestConfirm_RelinkSamePairIsAllowed(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	first, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Confirm(ctx, first.Code, "bot-1"))

	second, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	assert.NoError(t, f.service.Confirm(ctx, second.Code, "bot-1"))
}

func TestConfirm_ConcurrentAttemptsConsumeOnce(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	invitation, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, botID := range []string{"bot-a", "bot-b"} {
		wg.Add(1)
		go func(i int, botID string) {
			defer wg.Done()
			errs[i] = f.service.Confirm(ctx, invitation.Code, botID)
		}(i, botID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent confirm may win")

	ident, err := f.identityRepo.FindByID(ctx, "web-1")
	require.NoError(t, err)
	require.NotNil(t, ident.BotIdentityID)
}

func TestConfirm_BindFailureRestoresCode(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	invitation, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)

	f.identityRepo.bindErr = entity.ErrAlreadyLinked
	err = f.service.Confirm(ctx, invitation.Code, "bot-1")
	assert.ErrorIs(t, err, entity.ErrAlreadyLinked)

	// The failed bind gave the code back; a later attempt can still redeem it
	f.identityRepo.bindErr = nil
	require.NoError(t, f.service.Confirm(ctx, invitation.Code, "bot-1"))

	ident, err := f.identityRepo.FindByID(ctx, "web-1")
	require.NoError(t, err)
	require.NotNil(t, ident.BotIdentityID)
	assert.Equal(t, "bot-1", *ident.BotIdentityID)
}

func TestUnlink_ConcurrentWithConfirmStaysConsistent(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	first, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Confirm(ctx, first.Code, "bot-1"))

	second, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var unlinkErr, confirmErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		unlinkErr = f.service.Unlink(ctx, "web-1")
	}()
	go func() {
		defer wg.Done()
		confirmErr = f.service.Confirm(ctx, second.Code, "bot-2")
	}()
	wg.Wait()

	require.NoError(t, unlinkErr)
	require.NoError(t, confirmErr)

	// Either order is valid: unbound, or bound to the new bot identity.
	// The old binding can never resurface.
	ident, err := f.identityRepo.FindByID(ctx, "web-1")
	require.NoError(t, err)
	if ident.BotIdentityID != nil {
		assert.Equal(t, "bot-2", *ident.BotIdentityID)
	}
}

func TestUnlink_DetachesWithoutDeleting(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	f.addBotAlert(t, "bot-alert", "bot-1")
	f.addWebAlert(t, "web-alert", "web-1")

	invitation, err := f.service.Initiate(ctx, "web-1")
	require.NoError(t, err)
	require.NoError(t, f.service.Confirm(ctx, invitation.Code, "bot-1"))

	require.NoError(t, f.service.Unlink(ctx, "web-1"))

	ident, err := f.identityRepo.FindByID(ctx, "web-1")
	require.NoError(t, err)
	assert.Nil(t, ident.BotIdentityID)

	webView, err := f.alertRepo.ListByWebOwner(ctx, "web-1")
	require.NoError(t, err)
	require.Len(t, webView, 1, "only the web-created alert stays in the web view")
	assert.Equal(t, "web-alert", webView[0].ID)

	botView, err := f.alertRepo.ListByBotOwner(ctx, "bot-1")
	require.NoError(t, err)
	require.Len(t, botView, 1, "only the bot-created alert stays in the bot view")
	assert.Equal(t, "bot-alert", botView[0].ID)

	assert.Equal(t, 2, f.alertRepo.count(), "unlink never deletes alerts")
}

func TestUnlink_NotLinkedIsNoop(t *testing.T) {
	f := newLinkingFixture(t, "web-1")

	assert.NoError(t, f.service.Unlink(context.Background(), "web-1"))
}

func TestSweepExpired_RemovesOnlyExpiredCodes(t *testing.T) {
	f := newLinkingFixture(t, "web-1")
	ctx := context.Background()

	require.NoError(t, f.codeRepo.Create(ctx, &entity.LinkingCode{
		Code:          "111111",
		WebIdentityID: "web-1",
		ExpiresAt:     time.Now().Add(-time.Hour),
	}))
	require.NoError(t, f.codeRepo.Create(ctx, &entity.LinkingCode{
		Code:          "222222",
		WebIdentityID: "web-1",
		ExpiresAt:     time.Now().Add(time.Hour),
	}))

	require.NoError(t, f.service.SweepExpired(ctx))

	_, err := f.codeRepo.FindActive(ctx, "111111", time.Now())
	assert.ErrorIs(t, err, entity.ErrInvalidOrExpiredCode)
	_, err = f.codeRepo.FindActive(ctx, "222222", time.Now())
	assert.NoError(t, err)
}
