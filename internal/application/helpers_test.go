package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

var errNotStubbed = errors.New("not stubbed")

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// fakeBackend stubs ports.Backend with per-method funcs; unstubbed
// methods fail the call so tests notice unexpected traffic.
type fakeBackend struct {
	authenticateFn     func(ctx context.Context, initData string) (string, error)
	setTokenFn         func(token string)
	rebindFn           func(proxyURL string) error
	profileFn          func(ctx context.Context) (domain.Profile, error)
	searchClansFn      func(ctx context.Context, query string, limit, offset int) ([]domain.Clan, error)
	clanInfoFn         func(ctx context.Context, id int64) (domain.Clan, error)
	joinClanFn         func(ctx context.Context, id int64) error
	leaveClanFn        func(ctx context.Context) error
	speedtestFn        func(ctx context.Context) (*time.Time, error)
	submitSpeedtestFn  func(ctx context.Context, download, upload int) (int64, error)
	tasksFn            func(ctx context.Context) ([]domain.Task, error)
	taskFn             func(ctx context.Context, id int64) (domain.Task, error)
	processTaskFn      func(ctx context.Context, id int64) error
	referralCountFn    func(ctx context.Context) (int, error)
	checkInAvailableFn func(ctx context.Context) (bool, error)
	checkInFn          func(ctx context.Context) error
	createVoucherFn    func(ctx context.Context, amount int64) (domain.Voucher, error)
	submitMiniGameFn   func(ctx context.Context, score int, startAt, endAt time.Time) (int64, error)
}

var _ ports.Backend = (*fakeBackend)(nil)

func (b *fakeBackend) Authenticate(ctx context.Context, initData string) (string, error) {
	if b.authenticateFn == nil {
		return "", errNotStubbed
	}
	return b.authenticateFn(ctx, initData)
}

func (b *fakeBackend) SetToken(token string) {
	if b.setTokenFn != nil {
		b.setTokenFn(token)
	}
}

func (b *fakeBackend) Rebind(proxyURL string) error {
	if b.rebindFn == nil {
		return nil
	}
	return b.rebindFn(proxyURL)
}

func (b *fakeBackend) Profile(ctx context.Context) (domain.Profile, error) {
	if b.profileFn == nil {
		return domain.Profile{}, errNotStubbed
	}
	return b.profileFn(ctx)
}

func (b *fakeBackend) SearchClans(ctx context.Context, query string, limit, offset int) ([]domain.Clan, error) {
	if b.searchClansFn == nil {
		return nil, errNotStubbed
	}
	return b.searchClansFn(ctx, query, limit, offset)
}

func (b *fakeBackend) ClanInfo(ctx context.Context, id int64) (domain.Clan, error) {
	if b.clanInfoFn == nil {
		return domain.Clan{}, errNotStubbed
	}
	return b.clanInfoFn(ctx, id)
}

func (b *fakeBackend) JoinClan(ctx context.Context, id int64) error {
	if b.joinClanFn == nil {
		return errNotStubbed
	}
	return b.joinClanFn(ctx, id)
}

func (b *fakeBackend) LeaveClan(ctx context.Context) error {
	if b.leaveClanFn == nil {
		return errNotStubbed
	}
	return b.leaveClanFn(ctx)
}

func (b *fakeBackend) Speedtest(ctx context.Context) (*time.Time, error) {
	if b.speedtestFn == nil {
		return nil, errNotStubbed
	}
	return b.speedtestFn(ctx)
}

func (b *fakeBackend) SubmitSpeedtest(ctx context.Context, download, upload int) (int64, error) {
	if b.submitSpeedtestFn == nil {
		return 0, errNotStubbed
	}
	return b.submitSpeedtestFn(ctx, download, upload)
}

func (b *fakeBackend) Tasks(ctx context.Context) ([]domain.Task, error) {
	if b.tasksFn == nil {
		return nil, errNotStubbed
	}
	return b.tasksFn(ctx)
}

func (b *fakeBackend) Task(ctx context.Context, id int64) (domain.Task, error) {
	if b.taskFn == nil {
		return domain.Task{}, errNotStubbed
	}
	return b.taskFn(ctx, id)
}

func (b *fakeBackend) ProcessTask(ctx context.Context, id int64) error {
	if b.processTaskFn == nil {
		return errNotStubbed
	}
	return b.processTaskFn(ctx, id)
}

func (b *fakeBackend) ReferralCount(ctx context.Context) (int, error) {
	if b.referralCountFn == nil {
		return 0, errNotStubbed
	}
	return b.referralCountFn(ctx)
}

func (b *fakeBackend) CheckInAvailable(ctx context.Context) (bool, error) {
	if b.checkInAvailableFn == nil {
		return false, nil
	}
	return b.checkInAvailableFn(ctx)
}

func (b *fakeBackend) CheckIn(ctx context.Context) error {
	if b.checkInFn == nil {
		return errNotStubbed
	}
	return b.checkInFn(ctx)
}

func (b *fakeBackend) CreateVoucher(ctx context.Context, amount int64) (domain.Voucher, error) {
	if b.createVoucherFn == nil {
		return domain.Voucher{}, errNotStubbed
	}
	return b.createVoucherFn(ctx, amount)
}

func (b *fakeBackend) SubmitMiniGame(ctx context.Context, score int, startAt, endAt time.Time) (int64, error) {
	if b.submitMiniGameFn == nil {
		return 0, errNotStubbed
	}
	return b.submitMiniGameFn(ctx, score, startAt, endAt)
}

type fakeAds struct {
	fetchAdFn     func(ctx context.Context, telegramID int64) (domain.AdView, error)
	trackFn       func(ctx context.Context, trackingURL string) error
	rebindFn      func(proxyURL string) error
	setInitDataFn func(initData string)
}

var _ ports.AdPlatform = (*fakeAds)(nil)

func (a *fakeAds) FetchAd(ctx context.Context, telegramID int64) (domain.AdView, error) {
	if a.fetchAdFn == nil {
		return domain.AdView{}, errNotStubbed
	}
	return a.fetchAdFn(ctx, telegramID)
}

func (a *fakeAds) Track(ctx context.Context, trackingURL string) error {
	if a.trackFn == nil {
		return errNotStubbed
	}
	return a.trackFn(ctx, trackingURL)
}

func (a *fakeAds) Rebind(proxyURL string) error {
	if a.rebindFn == nil {
		return nil
	}
	return a.rebindFn(proxyURL)
}

func (a *fakeAds) SetInitData(initData string) {
	if a.setInitDataFn != nil {
		a.setInitDataFn(initData)
	}
}

type fakePool struct {
	checkFn func(ctx context.Context, proxyURL string) bool
	nextFn  func(ctx context.Context, current string) (string, error)
}

var _ ports.ProxyPool = (*fakePool)(nil)

func (p *fakePool) Check(ctx context.Context, proxyURL string) bool {
	if p.checkFn == nil {
		return false
	}
	return p.checkFn(ctx, proxyURL)
}

func (p *fakePool) Next(ctx context.Context, current string) (string, error) {
	if p.nextFn == nil {
		return "", domain.ErrNoWorkingProxy
	}
	return p.nextFn(ctx, current)
}

type inMemoryAccountRepo struct {
	accounts []domain.Account
	saved    []domain.Account
}

var _ ports.AccountRepository = (*inMemoryAccountRepo)(nil)

func (r *inMemoryAccountRepo) GetByID(_ context.Context, id domain.AccountID) (domain.Account, error) {
	for _, account := range r.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *inMemoryAccountRepo) List(context.Context) ([]domain.Account, error) {
	return r.accounts, nil
}

func (r *inMemoryAccountRepo) Save(_ context.Context, account domain.Account) error {
	r.saved = append(r.saved, account)
	for i := range r.accounts {
		if r.accounts[i].ID == account.ID {
			r.accounts[i] = account
			return nil
		}
	}
	r.accounts = append(r.accounts, account)
	return nil
}

type staticInitData struct {
	blob string
	err  error
}

var _ ports.InitDataSource = (*staticInitData)(nil)

func (s *staticInitData) InitData(context.Context, domain.Account) (string, error) {
	return s.blob, s.err
}

type fakeJoiner struct {
	joinFn func(ctx context.Context, task domain.Task) (bool, error)
}

var _ ports.ChannelJoiner = (*fakeJoiner)(nil)

func (j *fakeJoiner) Join(ctx context.Context, task domain.Task) (bool, error) {
	if j.joinFn == nil {
		return false, domain.ErrJoinUnsupported
	}
	return j.joinFn(ctx, task)
}

type inMemoryLedger struct {
	entries []domain.Voucher
}

var _ ports.VoucherLedger = (*inMemoryLedger)(nil)

func (l *inMemoryLedger) Append(_ context.Context, voucher domain.Voucher) error {
	l.entries = append(l.entries, voucher)
	return nil
}

func (l *inMemoryLedger) List(context.Context) ([]domain.Voucher, error) {
	return l.entries, nil
}

// instantDwell collapses simulated viewing and play delays.
func instantDwell(context.Context, time.Duration, time.Duration) error {
	return nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
