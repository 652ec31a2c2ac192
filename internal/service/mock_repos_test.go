package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
)

// errMockAggregate 聚合查询注入的失败
var errMockAggregate = fmt.Errorf("mock aggregate failure")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = nowFunc()
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByInviteToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range m.users {
		if u.IsPlaceholder && u.InviteToken != nil && *u.InviteToken == token {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) ListPending(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if !u.IsApproved && !u.IsPlaceholder {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockUserRepo) IncrementTokenVersion(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.TokenVersion++
	return nil
}

func (m *mockUserRepo) GetTokenVersion(_ context.Context, id string) (int, error) {
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return 0, gorm.ErrRecordNotFound
	}
	return u.TokenVersion, nil
}

// ── 行锁记录 ──

// lockRecorder 按调用顺序记录 GetByIDForUpdate 锁定的表
type lockRecorder struct {
	seq []string
}

func (r *lockRecorder) record(table string) {
	if r != nil {
		r.seq = append(r.seq, table)
	}
}

func (r *lockRecorder) reset() {
	r.seq = nil
}

// ── Mock WriterRepository ──

type mockWriterRepo struct {
	writers  map[string]*model.Writer
	users    *mockUserRepo
	seq      int
	failAggs bool
	locks    *lockRecorder
}

func newMockWriterRepo(users *mockUserRepo) *mockWriterRepo {
	return &mockWriterRepo{writers: make(map[string]*model.Writer), users: users}
}

func (m *mockWriterRepo) Create(_ context.Context, writer *model.Writer) error {
	if writer.WriterID == "" {
		m.seq++
		writer.WriterID = fmt.Sprintf("writer-%d", m.seq)
	}
	if writer.Status == "" {
		writer.Status = model.WriterActive
	}
	if writer.CreatedAt.IsZero() {
		writer.CreatedAt = nowFunc()
	}
	m.writers[writer.WriterID] = writer
	return nil
}

func (m *mockWriterRepo) attachUser(w *model.Writer) *model.Writer {
	if m.users != nil {
		if u, ok := m.users.users[w.UserID]; ok {
			w.User = u
		}
	}
	return w
}

func (m *mockWriterRepo) GetByID(_ context.Context, id string) (*model.Writer, error) {
	if w, ok := m.writers[id]; ok {
		return m.attachUser(w), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWriterRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Writer, error) {
	m.locks.record("writer")
	return m.GetByID(ctx, id)
}

func (m *mockWriterRepo) GetByUserID(_ context.Context, userID string) (*model.Writer, error) {
	for _, w := range m.writers {
		if w.UserID == userID {
			return m.attachUser(w), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWriterRepo) Update(_ context.Context, writer *model.Writer) error {
	m.writers[writer.WriterID] = writer
	return nil
}

func (m *mockWriterRepo) List(_ context.Context, filter repository.WriterFilter) ([]model.Writer, int64, error) {
	var all []model.Writer
	for _, w := range m.writers {
		if filter.Status != "" && string(w.Status) != filter.Status {
			continue
		}
		all = append(all, *m.attachUser(w))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].WriterID < all[j].WriterID })
	return paginate(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (m *mockWriterRepo) ListAll(_ context.Context) ([]model.Writer, error) {
	var all []model.Writer
	for _, w := range m.writers {
		all = append(all, *m.attachUser(w))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].WriterID < all[j].WriterID })
	return all, nil
}

func (m *mockWriterRepo) ListExpiredPenalties(_ context.Context, now time.Time) ([]model.Writer, error) {
	var out []model.Writer
	for _, w := range m.writers {
		if w.Status != model.WriterActive && w.StatusExpiresAt != nil && !w.StatusExpiresAt.After(now) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (m *mockWriterRepo) ResetAllShiftCounters(_ context.Context) (int64, error) {
	for _, w := range m.writers {
		w.ResetShiftCounters()
	}
	return int64(len(m.writers)), nil
}

func (m *mockWriterRepo) CountByStatus(_ context.Context) ([]repository.StatusCount, error) {
	if m.failAggs {
		return nil, errMockAggregate
	}
	counts := map[string]int64{}
	for _, w := range m.writers {
		counts[string(w.Status)]++
	}
	return toStatusCounts(counts), nil
}

func (m *mockWriterRepo) SumBalance(_ context.Context) (decimal.Decimal, error) {
	if m.failAggs {
		return decimal.Zero, errMockAggregate
	}
	total := decimal.Zero
	for _, w := range m.writers {
		total = total.Add(w.BalanceUSD)
	}
	return total, nil
}

// ── Mock WriterStatusLogRepository ──

type mockWriterStatusLogRepo struct {
	logs []*model.WriterStatusLog
}

func newMockWriterStatusLogRepo() *mockWriterStatusLogRepo {
	return &mockWriterStatusLogRepo{}
}

func (m *mockWriterStatusLogRepo) Create(_ context.Context, log *model.WriterStatusLog) error {
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("wlog-%d", len(m.logs)+1)
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockWriterStatusLogRepo) ListByWriter(_ context.Context, writerID string, offset, limit int) ([]model.WriterStatusLog, int64, error) {
	var all []model.WriterStatusLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].WriterID == writerID {
			all = append(all, *m.logs[i])
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockWriterStatusLogRepo) byWriter(writerID string) []*model.WriterStatusLog {
	var out []*model.WriterStatusLog
	for _, l := range m.logs {
		if l.WriterID == writerID {
			out = append(out, l)
		}
	}
	return out
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts    map[string]*model.Shift
	seq       int
	creates   int
	activeErr error
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		m.seq++
		shift.ShiftID = fmt.Sprintf("shift-%d", m.seq)
	}
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = nowFunc()
	}
	m.creates++
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetActive(_ context.Context) (*model.Shift, error) {
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	var latest *model.Shift
	for _, s := range m.shifts {
		if s.IsActive && (latest == nil || s.StartTime.After(latest.StartTime)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockShiftRepo) LockActive(_ context.Context) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.shifts {
		if s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) ClearActive(_ context.Context) error {
	for _, s := range m.shifts {
		s.IsActive = false
	}
	return nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) List(_ context.Context, offset, limit int) ([]model.Shift, int64, error) {
	all := m.sorted()
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockShiftRepo) ListSince(_ context.Context, since time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.sorted() {
		if !s.StartTime.Before(since) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *mockShiftRepo) sorted() []model.Shift {
	var all []model.Shift
	for _, s := range m.shifts {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })
	return all
}

func (m *mockShiftRepo) activeCount() int {
	n := 0
	for _, s := range m.shifts {
		if s.IsActive {
			n++
		}
	}
	return n
}

// ── Mock OrderRepository ──

type mockOrderRepo struct {
	orders   map[string]*model.Order
	versions map[string]int
	seq      int
	failAggs bool
	locks    *lockRecorder
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*model.Order), versions: make(map[string]int)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	for _, o := range m.orders {
		if o.OrderNumber == order.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if order.OrderID == "" {
		m.seq++
		order.OrderID = fmt.Sprintf("order-%d", m.seq)
	}
	if order.Version == 0 {
		order.Version = 1
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = nowFunc()
	}
	m.orders[order.OrderID] = order
	m.versions[order.OrderID] = order.Version
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*model.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	m.locks.record("order")
	return m.GetByID(ctx, id)
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, number string) (*model.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) Update(_ context.Context, order *model.Order) error {
	current, ok := m.versions[order.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if current != order.Version {
		return pkgerrors.ErrOptimisticLock
	}
	order.Version = current + 1
	m.versions[order.OrderID] = order.Version
	m.orders[order.OrderID] = order
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	delete(m.orders, id)
	delete(m.versions, id)
	return nil
}

func (m *mockOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]model.Order, int64, error) {
	var all []model.Order
	for _, o := range m.orders {
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		if filter.WriterID != "" && !o.IsAssignedTo(filter.WriterID) {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(o.OrderNumber+o.Subject, filter.Keyword) {
			continue
		}
		all = append(all, *o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OrderID < all[j].OrderID })
	return paginate(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (m *mockOrderRepo) CountByNumberPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, o := range m.orders {
		if strings.HasPrefix(o.OrderNumber, prefix) {
			n++
		}
	}
	return n, nil
}

func (m *mockOrderRepo) LatestNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	latest := ""
	for _, o := range m.orders {
		if strings.HasPrefix(o.OrderNumber, prefix) && o.OrderNumber > latest {
			latest = o.OrderNumber
		}
	}
	return latest, nil
}

func (m *mockOrderRepo) CountByStatus(_ context.Context) ([]repository.StatusCount, error) {
	if m.failAggs {
		return nil, errMockAggregate
	}
	counts := map[string]int64{}
	for _, o := range m.orders {
		counts[string(o.Status)]++
	}
	return toStatusCounts(counts), nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	subs     map[string]*model.Submission
	seq      int
	failAggs bool
	locks    *lockRecorder
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{subs: make(map[string]*model.Submission)}
}

func (m *mockSubmissionRepo) Create(_ context.Context, sub *model.Submission) error {
	if sub.SubmissionID == "" {
		m.seq++
		sub.SubmissionID = fmt.Sprintf("sub-%d", m.seq)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = nowFunc()
	}
	m.subs[sub.SubmissionID] = sub
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	if s, ok := m.subs[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Submission, error) {
	m.locks.record("submission")
	return m.GetByID(ctx, id)
}

func (m *mockSubmissionRepo) Update(_ context.Context, sub *model.Submission) error {
	m.subs[sub.SubmissionID] = sub
	return nil
}

func (m *mockSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]model.Submission, int64, error) {
	var all []model.Submission
	for _, s := range m.subs {
		if filter.Status != "" && string(s.Status) != filter.Status {
			continue
		}
		if filter.WriterID != "" && s.WriterID != filter.WriterID {
			continue
		}
		if filter.OrderID != "" && s.OrderID != filter.OrderID {
			continue
		}
		if filter.ShiftID != "" && s.ShiftID != filter.ShiftID {
			continue
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmissionID < all[j].SubmissionID })
	return paginate(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (m *mockSubmissionRepo) ExistsForOrderInShift(_ context.Context, writerID, orderID, shiftID string) (bool, error) {
	for _, s := range m.subs {
		if s.WriterID == writerID && s.OrderID == orderID && s.ShiftID == shiftID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) CountByOrder(_ context.Context, orderID string) (int64, error) {
	var n int64
	for _, s := range m.subs {
		if s.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func (m *mockSubmissionRepo) SumPagesByOrder(_ context.Context, orderID string, statuses []model.SubmissionStatus) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range m.subs {
		if s.OrderID != orderID {
			continue
		}
		for _, st := range statuses {
			if s.Status == st {
				total = total.Add(s.PagesWorked)
				break
			}
		}
	}
	return total, nil
}

func (m *mockSubmissionRepo) SumPagesByWriterSince(_ context.Context, writerID string, since time.Time) ([]repository.StatusSum, error) {
	if m.failAggs {
		return nil, errMockAggregate
	}
	sums := map[string]*repository.StatusSum{}
	for _, s := range m.subs {
		if s.WriterID != writerID || s.CreatedAt.Before(since) {
			continue
		}
		row, ok := sums[string(s.Status)]
		if !ok {
			row = &repository.StatusSum{Status: string(s.Status), Total: decimal.Zero}
			sums[string(s.Status)] = row
		}
		row.Count++
		row.Total = row.Total.Add(s.PagesWorked)
	}
	var out []repository.StatusSum
	for _, r := range sums {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockSubmissionRepo) CountByStatus(_ context.Context, writerID string) ([]repository.StatusCount, error) {
	if m.failAggs {
		return nil, errMockAggregate
	}
	counts := map[string]int64{}
	for _, s := range m.subs {
		if writerID == "" || s.WriterID == writerID {
			counts[string(s.Status)]++
		}
	}
	return toStatusCounts(counts), nil
}

func (m *mockSubmissionRepo) SumApprovedPagesSince(_ context.Context, since time.Time) (decimal.Decimal, error) {
	if m.failAggs {
		return decimal.Zero, errMockAggregate
	}
	total := decimal.Zero
	for _, s := range m.subs {
		if s.Status == model.SubmissionApproved && !s.CreatedAt.Before(since) {
			total = total.Add(s.PagesWorked)
		}
	}
	return total, nil
}

func (m *mockSubmissionRepo) DailyApproved(_ context.Context, since time.Time) ([]repository.DailyAmount, error) {
	if m.failAggs {
		return nil, errMockAggregate
	}
	byDay := map[string]*repository.DailyAmount{}
	for _, s := range m.subs {
		if s.Status != model.SubmissionApproved || s.ReviewedAt == nil || s.ReviewedAt.Before(since) {
			continue
		}
		t := s.ReviewedAt.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		key := day.Format("2006-01-02")
		row, ok := byDay[key]
		if !ok {
			row = &repository.DailyAmount{Day: day, Amount: decimal.Zero, Pages: decimal.Zero}
			byDay[key] = row
		}
		row.Amount = row.Amount.Add(s.Amount)
		row.Pages = row.Pages.Add(s.PagesWorked)
	}
	var out []repository.DailyAmount
	for _, r := range byDay {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// ── Mock PaymentRepository ──

type mockPaymentRepo struct {
	payments map[string]*model.Payment
	seq      int
	failAggs bool
	locks    *lockRecorder
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	if payment.PaymentID == "" {
		m.seq++
		payment.PaymentID = fmt.Sprintf("payment-%d", m.seq)
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = nowFunc()
	}
	m.payments[payment.PaymentID] = payment
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id string) (*model.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Payment, error) {
	m.locks.record("payment")
	return m.GetByID(ctx, id)
}

func (m *mockPaymentRepo) Update(_ context.Context, payment *model.Payment) error {
	m.payments[payment.PaymentID] = payment
	return nil
}

func (m *mockPaymentRepo) List(_ context.Context, filter repository.PaymentFilter) ([]model.Payment, int64, error) {
	var all []model.Payment
	for _, p := range m.payments {
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		if filter.WriterID != "" && p.WriterID != filter.WriterID {
			continue
		}
		if filter.From != nil && p.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !p.CreatedAt.Before(*filter.To) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PaymentID < all[j].PaymentID })
	if filter.Limit <= 0 {
		return all, int64(len(all)), nil
	}
	return paginate(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (m *mockPaymentRepo) SumByStatus(_ context.Context, writerID string) ([]repository.StatusSum, error) {
	if m.failAggs {
		return nil, errMockAggregate
	}
	sums := map[string]*repository.StatusSum{}
	for _, p := range m.payments {
		if writerID != "" && p.WriterID != writerID {
			continue
		}
		row, ok := sums[string(p.Status)]
		if !ok {
			row = &repository.StatusSum{Status: string(p.Status), Total: decimal.Zero}
			sums[string(p.Status)] = row
		}
		row.Count++
		row.Total = row.Total.Add(p.Amount)
	}
	var out []repository.StatusSum
	for _, r := range sums {
		out = append(out, *r)
	}
	return out, nil
}

// ── Mock PaymentLogRepository ──

type mockPaymentLogRepo struct {
	logs []*model.PaymentLog
}

func newMockPaymentLogRepo() *mockPaymentLogRepo {
	return &mockPaymentLogRepo{}
}

func (m *mockPaymentLogRepo) Create(_ context.Context, log *model.PaymentLog) error {
	if log.PaymentLogID == "" {
		log.PaymentLogID = fmt.Sprintf("plog-%d", len(m.logs)+1)
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = nowFunc()
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockPaymentLogRepo) ListByPayment(_ context.Context, paymentID string) ([]model.PaymentLog, error) {
	var out []model.PaymentLog
	for _, l := range m.logs {
		if l.PaymentID == paymentID {
			out = append(out, *l)
		}
	}
	return out, nil
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	cfg *model.SystemConfig
}

func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{}
}

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	if m.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.cfg, nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, cfg *model.SystemConfig) error {
	m.cfg = cfg
	return nil
}

// ── 辅助函数 ──

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func toStatusCounts(counts map[string]int64) []repository.StatusCount {
	out := make([]repository.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: n})
	}
	return out
}
