// Package application orchestrates the check-in run: harvest anti-bot
// cookies for every account through one shared browser, fan the accounts out
// into concurrent check-in pipelines, and aggregate the results into a
// report.
package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/qirune/anyrouter-checkin/internal/config"
	"github.com/qirune/anyrouter-checkin/internal/domain"
	"github.com/qirune/anyrouter-checkin/internal/ports"
	"github.com/qirune/anyrouter-checkin/internal/retry"
)

// Deps carries the service's wiring. Clock and Logger may be nil.
type Deps struct {
	Accounts ports.AccountSource
	Launcher ports.BrowserLauncher
	Gateway  ports.CheckinGateway
	Notifier ports.Notifier
	Clock    ports.Clock
	Config   config.Runtime
	Logger   *zap.Logger
}

type CheckinService struct {
	accounts ports.AccountSource
	launcher ports.BrowserLauncher
	gateway  ports.CheckinGateway
	notifier ports.Notifier
	clock    ports.Clock
	cfg      config.Runtime
	logger   *zap.Logger

	transientPolicy retry.Policy
	harvestPolicy   retry.Policy
}

func NewCheckinService(deps Deps) *CheckinService {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	transient := retry.Policy{
		MaxAttempts: deps.Config.MaxRetries,
		BaseDelay:   deps.Config.RetryBaseDelay,
	}
	harvest := transient
	harvest.Retryable = retry.Always

	return &CheckinService{
		accounts:        deps.Accounts,
		launcher:        deps.Launcher,
		gateway:         deps.Gateway,
		notifier:        deps.Notifier,
		clock:           deps.Clock,
		cfg:             deps.Config,
		logger:          deps.Logger,
		transientPolicy: transient,
		harvestPolicy:   harvest,
	}
}

// Run executes the full pipeline and returns the report. An error is
// returned only for configuration failures and cancellation; individual
// account failures are folded into the report.
func (s *CheckinService) Run(ctx context.Context) (*Report, error) {
	logger := s.logger.With(zap.String("run", uuid.NewString()[:8]))
	logger.Info("check-in run started", zap.String("base_url", s.cfg.BaseURL))

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, domain.ErrNoAccounts
	}
	logger.Info("accounts loaded", zap.Int("count", len(accounts)))

	wafSets := s.harvestAll(ctx, accounts, logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := s.checkinAll(ctx, accounts, wafSets, logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := NewReport(s.clock.Now(), results)
	logger.Info("run finished",
		zap.Int("success", report.Summary.Succeeded),
		zap.Int("skipped", report.Summary.Skipped),
		zap.Int("failed", report.Summary.Failed),
	)

	if s.cfg.SkipNotify {
		logger.Debug("notifications disabled for this run")
	} else if err := s.notifier.Push(ctx, ReportTitle, report.Body()); err != nil {
		logger.Warn("report notification failed", zap.Error(err))
	}

	return report, nil
}

// harvestAll walks the accounts sequentially against one shared browser.
// The browser is closed before returning so the HTTP phase never competes
// with it. A launch failure leaves every slot empty; the accounts then fail
// individually with a missing-cookie error and the run still reports.
func (s *CheckinService) harvestAll(ctx context.Context, accounts []domain.Account, logger *zap.Logger) []domain.WafCookies {
	sets := make([]domain.WafCookies, len(accounts))

	logger.Info("starting browser for anti-bot cookie harvest", zap.Int("accounts", len(accounts)))
	browser, err := s.launcher.Launch(ctx)
	if err != nil {
		logger.Error("browser launch failed, skipping cookie harvest", zap.Error(err))
		return sets
	}

	harvested := 0
	for i, account := range accounts {
		if ctx.Err() != nil {
			break
		}

		accountLog := logger.With(zap.String("account", account.Label(i)))
		accountLog.Info("visiting login page for anti-bot cookies", zap.String("state", "pending"))

		set, err := s.harvestOne(ctx, browser, accountLog)
		if err != nil {
			accountLog.Warn("anti-bot harvest failed",
				zap.String("state", "waf_failed"),
				zap.String("error", domain.Truncate(err.Error(), 100)),
			)
			continue
		}

		sets[i] = set
		harvested++
		accountLog.Info("anti-bot cookies harvested",
			zap.String("state", "waf_harvested"),
			zap.Int("cookies", len(set)),
		)
	}

	if err := browser.Close(); err != nil {
		logger.Warn("close browser", zap.Error(err))
	}
	logger.Info("browser closed", zap.Int("harvested", harvested), zap.Int("accounts", len(accounts)))

	return sets
}

func (s *CheckinService) harvestOne(ctx context.Context, browser ports.Browser, logger *zap.Logger) (domain.WafCookies, error) {
	var set domain.WafCookies
	err := retry.Do(ctx, s.harvestPolicy, logger, func(ctx context.Context) error {
		collected, err := s.harvestAttempt(ctx, browser)
		if err != nil {
			return err
		}
		set = collected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// harvestAttempt runs one isolated browser session through the login page
// and keeps only the anti-bot cookies. All of them must be present.
func (s *CheckinService) harvestAttempt(ctx context.Context, browser ports.Browser) (domain.WafCookies, error) {
	session, err := browser.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	defer func() { _ = session.Close() }()

	if err := session.Navigate(ctx, s.cfg.LoginURL()); err != nil {
		return nil, err
	}
	if err := session.WaitReady(ctx); err != nil {
		return nil, err
	}

	cookies, err := session.Cookies(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool)
	for _, name := range domain.WafCookieNames() {
		wanted[name] = true
	}

	set := domain.WafCookies{}
	for _, cookie := range cookies {
		if wanted[cookie.Name] {
			set[cookie.Name] = cookie.Value
		}
	}

	if missing := set.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("missing anti-bot cookies: %s", strings.Join(missing, ", "))
	}
	return set, nil
}

// checkinAll runs one pipeline goroutine per account. Results land in an
// index-aligned slice; a panicking pipeline is converted into a failed
// result for its own slot and never disturbs the siblings.
func (s *CheckinService) checkinAll(ctx context.Context, accounts []domain.Account, wafSets []domain.WafCookies, logger *zap.Logger) []domain.CheckinResult {
	results := make([]domain.CheckinResult, len(accounts))

	limit := int64(s.cfg.MaxConcurrent)
	if limit <= 0 {
		limit = int64(len(accounts))
	}
	sem := semaphore.NewWeighted(limit)

	var wg sync.WaitGroup
	for i := range accounts {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("check-in pipeline panicked",
						zap.Int("account_index", index),
						zap.Any("panic", rec),
					)
					results[index] = domain.CheckinResult{
						AccountIndex: index,
						Label:        accounts[index].Label(index),
						Outcome:      domain.OutcomeFailed,
						Error:        domain.Truncate(fmt.Sprint(rec), 100),
					}
				}
			}()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[index] = domain.CheckinResult{
					AccountIndex: index,
					Label:        accounts[index].Label(index),
					Outcome:      domain.OutcomeFailed,
					Error:        err.Error(),
				}
				return
			}
			defer sem.Release(1)

			results[index] = s.checkinOne(ctx, accounts[index], index, wafSets[index], logger)
		}(i)
	}
	wg.Wait()

	return results
}

// checkinOne is the per-account pipeline: validate, open an isolated API
// session, probe the balance, sign in with transient-failure retry, probe
// again, classify. Every failure path ends in the result, never an error.
func (s *CheckinService) checkinOne(ctx context.Context, account domain.Account, index int, waf domain.WafCookies, logger *zap.Logger) domain.CheckinResult {
	label := account.Label(index)
	accountLog := logger.With(zap.String("account", label))

	result := domain.CheckinResult{AccountIndex: index, Label: label, Outcome: domain.OutcomeFailed}

	accountLog.Info("processing account",
		zap.String("api_user", domain.MaskSensitive(account.APIUser, 4)))

	if err := account.Validate(); err != nil {
		result.Error = err.Error()
		accountLog.Warn("account configuration rejected",
			zap.String("state", "failed"), zap.Error(err))
		return result
	}

	if !waf.Complete() {
		result.Error = domain.ErrWafCookiesMissing.Error()
		accountLog.Warn("anti-bot cookies unavailable", zap.String("state", "failed"))
		return result
	}

	session, err := s.gateway.NewSession(account, waf)
	if err != nil {
		result.Error = domain.Truncate(err.Error(), 100)
		accountLog.Warn("api session failed", zap.String("state", "failed"), zap.Error(err))
		return result
	}

	result.BalanceBefore = s.probeBalance(ctx, session, accountLog)

	accountLog.Info("executing check-in")
	verdict, err := s.signInWithRetry(ctx, session, accountLog)
	if err != nil {
		verdict = domain.APIVerdict{Message: domain.Truncate(err.Error(), 100)}
	}

	result.BalanceAfter = s.probeBalance(ctx, session, accountLog)

	outcome, message := domain.ClassifyOutcome(verdict, result.BalanceBefore, result.BalanceAfter)
	result.Outcome = outcome
	result.Error = message
	result.UserInfo = balanceLine(result.BalanceAfter, result.BalanceBefore)

	switch outcome {
	case domain.OutcomeSuccess:
		fields := []zap.Field{zap.String("state", "checked_in")}
		if delta, ok := result.BalanceDelta(); ok {
			fields = append(fields, zap.String("balance_change", fmt.Sprintf("+$%.2f", delta)))
		}
		accountLog.Info("check-in successful", fields...)
	case domain.OutcomeAlreadyCheckedIn:
		accountLog.Info("already checked in today", zap.String("state", "checked_in"))
	default:
		accountLog.Warn("check-in failed",
			zap.String("state", "failed"), zap.String("error", message))
	}

	return result
}

// probeBalance fetches the account balance; failures downgrade to a warning
// and an absent snapshot.
func (s *CheckinService) probeBalance(ctx context.Context, session ports.CheckinSession, logger *zap.Logger) *domain.BalanceSnapshot {
	snapshot, err := session.FetchUserInfo(ctx)
	if err != nil {
		logger.Warn("balance probe failed", zap.String("error", domain.Truncate(err.Error(), 50)))
		return nil
	}
	return &snapshot
}

func (s *CheckinService) signInWithRetry(ctx context.Context, session ports.CheckinSession, logger *zap.Logger) (domain.APIVerdict, error) {
	var verdict domain.APIVerdict
	err := retry.Do(ctx, s.transientPolicy, logger, func(ctx context.Context) error {
		v, err := session.SignIn(ctx)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	if err != nil {
		return domain.APIVerdict{}, err
	}
	return verdict, nil
}

// balanceLine renders the user-facing balance string from the freshest
// snapshot available.
func balanceLine(after, before *domain.BalanceSnapshot) string {
	snapshot := after
	if snapshot == nil {
		snapshot = before
	}
	if snapshot == nil {
		return ""
	}
	return fmt.Sprintf("[MONEY] Current balance: $%.2f, Used: $%.2f", snapshot.Quota, snapshot.UsedQuota)
}
