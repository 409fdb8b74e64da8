package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/repository"
)

func duplicateKey() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func dayCounts(times []time.Time, since time.Time) []repository.DayCount {
	counts := map[string]int64{}
	for _, t := range times {
		if !t.Before(since) {
			counts[dayKey(t)]++
		}
	}
	out := make([]repository.DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, repository.DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// StaffRepo is an in-memory repository.StaffRepository.
type StaffRepo struct {
	mu    sync.Mutex
	items map[string]domain.StaffMember
}

// NewStaffRepo seeds the repository with members.
func NewStaffRepo(members ...*domain.StaffMember) *StaffRepo {
	r := &StaffRepo{items: map[string]domain.StaffMember{}}
	for _, m := range members {
		r.items[m.ID] = *m
	}
	return r
}

func (r *StaffRepo) emailTaken(email, exceptID string) bool {
	for id, m := range r.items {
		if id != exceptID && m.Email == email {
			return true
		}
	}
	return false
}

func (r *StaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[staff.ID]; ok || r.emailTaken(staff.Email, "") {
		return duplicateKey()
	}
	r.items[staff.ID] = *staff
	return nil
}

func (r *StaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[staff.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	if r.emailTaken(staff.Email, staff.ID) {
		return duplicateKey()
	}
	r.items[staff.ID] = *staff
	return nil
}

func (r *StaffRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

func (r *StaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &m, nil
}

func (r *StaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *StaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.StaffMember{}
	for _, m := range r.items {
		if filter.Role != nil && m.Role != *filter.Role {
			continue
		}
		if filter.Search != "" && !contains(m.Name, filter.Search) && !contains(m.Email, filter.Search) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *StaffRepo) ListNotifiable(_ context.Context) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.StaffMember{}
	for _, m := range r.items {
		if m.Notifications {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *StaffRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

// PasswordResetRepo is an in-memory repository.PasswordResetRepository.
type PasswordResetRepo struct {
	mu    sync.Mutex
	items map[string]domain.PasswordReset
}

// NewPasswordResetRepo builds an empty repository.
func NewPasswordResetRepo() *PasswordResetRepo {
	return &PasswordResetRepo{items: map[string]domain.PasswordReset{}}
}

func (r *PasswordResetRepo) Create(_ context.Context, reset *domain.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[reset.ID] = *reset
	return nil
}

func (r *PasswordResetRepo) GetByToken(_ context.Context, token string) (*domain.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Token == token {
			return &p, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *PasswordResetRepo) MarkUsed(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.UsedAt != nil {
		return mongo.ErrNoDocuments
	}
	p.UsedAt = &at
	r.items[id] = p
	return nil
}

func (r *PasswordResetRepo) DeleteForStaff(_ context.Context, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.items {
		if p.StaffID == staffID {
			delete(r.items, id)
		}
	}
	return nil
}

// Len reports the number of stored tokens.
func (r *PasswordResetRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// SubscriberRepo is an in-memory repository.SubscriberRepository.
type SubscriberRepo struct {
	mu    sync.Mutex
	items map[string]domain.Subscriber
}

// NewSubscriberRepo seeds the repository.
func NewSubscriberRepo(subs ...domain.Subscriber) *SubscriberRepo {
	r := &SubscriberRepo{items: map[string]domain.Subscriber{}}
	for _, s := range subs {
		r.items[s.Email] = s
	}
	return r
}

func (r *SubscriberRepo) Insert(_ context.Context, sub *domain.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[sub.Email]; ok {
		return duplicateKey()
	}
	r.items[sub.Email] = *sub
	return nil
}

func (r *SubscriberRepo) Upsert(_ context.Context, sub *domain.Subscriber) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[sub.Email]; ok {
		return false, nil
	}
	r.items[sub.Email] = *sub
	return true, nil
}

func (r *SubscriberRepo) Get(_ context.Context, email string) (*domain.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &s, nil
}

func (r *SubscriberRepo) matching(filter repository.SubscriberFilter) []domain.Subscriber {
	out := []domain.Subscriber{}
	for _, s := range r.items {
		if filter.Search != "" && !contains(s.Email, filter.Search) {
			continue
		}
		if filter.Since != nil && s.AddedAt.Before(*filter.Since) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *SubscriberRepo) List(_ context.Context, filter repository.SubscriberFilter) ([]domain.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.matching(filter)
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *SubscriberRepo) Count(_ context.Context, filter repository.SubscriberFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *SubscriberRepo) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[email]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, email)
	return nil
}

func (r *SubscriberRepo) Emails(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for email := range r.items {
		out = append(out, email)
	}
	sort.Strings(out)
	return out, nil
}

// InquiryRepo is an in-memory repository.InquiryRepository.
type InquiryRepo struct {
	mu    sync.Mutex
	items map[string]domain.Inquiry
	// EachErr fails Each after the first document, like a cursor dropping mid-read.
	EachErr error
}

// NewInquiryRepo seeds the repository.
func NewInquiryRepo(items ...domain.Inquiry) *InquiryRepo {
	r := &InquiryRepo{items: map[string]domain.Inquiry{}}
	for _, i := range items {
		r.items[i.ID] = i
	}
	return r
}

func cloneInquiry(i domain.Inquiry) domain.Inquiry {
	i.Replies = append([]domain.InquiryReply{}, i.Replies...)
	i.StatusHistory = append([]domain.InquiryStatusChange{}, i.StatusHistory...)
	return i
}

func (r *InquiryRepo) Create(_ context.Context, inquiry *domain.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[inquiry.ID]; ok {
		return duplicateKey()
	}
	r.items[inquiry.ID] = cloneInquiry(*inquiry)
	return nil
}

func (r *InquiryRepo) GetByID(_ context.Context, id string) (*domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := cloneInquiry(i)
	return &c, nil
}

func (r *InquiryRepo) matching(filter repository.InquiryFilter) []domain.Inquiry {
	out := []domain.Inquiry{}
	for _, i := range r.items {
		if filter.Status != nil && i.Status != *filter.Status {
			continue
		}
		if filter.Since != nil && i.CreatedAt.Before(*filter.Since) {
			continue
		}
		if filter.Search != "" && !contains(i.Name, filter.Search) && !contains(i.Email, filter.Search) &&
			!contains(i.Subject, filter.Search) && !contains(i.Message, filter.Search) {
			continue
		}
		out = append(out, cloneInquiry(i))
	}
	return out
}

func (r *InquiryRepo) List(_ context.Context, filter repository.InquiryFilter) ([]domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.matching(filter)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Inquiry{}, nil
		}
		out = out[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InquiryRepo) Count(_ context.Context, filter repository.InquiryFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *InquiryRepo) SetStatus(_ context.Context, id string, change domain.InquiryStatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	i.Status = change.To
	i.UpdatedAt = change.At
	i.StatusHistory = append(i.StatusHistory, change)
	r.items[id] = i
	return nil
}

func (r *InquiryRepo) AppendReply(_ context.Context, id string, reply domain.InquiryReply, change *domain.InquiryStatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	i.Replies = append(i.Replies, reply)
	i.UpdatedAt = reply.At
	if change != nil {
		i.Status = change.To
		i.StatusHistory = append(i.StatusHistory, *change)
	}
	r.items[id] = i
	return nil
}

func (r *InquiryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

func (r *InquiryRepo) Each(_ context.Context, fn func(*domain.Inquiry) error) error {
	r.mu.Lock()
	items := r.matching(repository.InquiryFilter{})
	r.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	for i := range items {
		if i > 0 && r.EachErr != nil {
			return r.EachErr
		}
		if err := fn(&items[i]); err != nil {
			return err
		}
	}
	return r.EachErr
}

func (r *InquiryRepo) CountByStatus(_ context.Context, since *time.Time) (map[domain.InquiryStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[domain.InquiryStatus]int64{}
	for _, s := range domain.InquiryStatuses {
		out[s] = 0
	}
	for _, i := range r.matching(repository.InquiryFilter{Since: since}) {
		out[i.Status]++
	}
	return out, nil
}

func (r *InquiryRepo) DailyCounts(_ context.Context, since time.Time) ([]repository.DayCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	times := make([]time.Time, 0, len(r.items))
	for _, i := range r.items {
		times = append(times, i.CreatedAt)
	}
	return dayCounts(times, since), nil
}

// MediaRepo is an in-memory repository.MediaRepository.
type MediaRepo struct {
	mu    sync.Mutex
	kind  domain.MediaKind
	items map[string]domain.MediaItem
}

// NewMediaRepo builds a repository for kind.
func NewMediaRepo(kind domain.MediaKind, items ...domain.MediaItem) *MediaRepo {
	r := &MediaRepo{kind: kind, items: map[string]domain.MediaItem{}}
	for _, m := range items {
		m.Kind = kind
		r.items[m.ID] = m
	}
	return r
}

func (r *MediaRepo) Kind() domain.MediaKind { return r.kind }

func (r *MediaRepo) Create(_ context.Context, item *domain.MediaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.Kind = r.kind
	r.items[item.ID] = *item
	return nil
}

func (r *MediaRepo) GetByID(_ context.Context, id string) (*domain.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &m, nil
}

func (r *MediaRepo) List(_ context.Context, visibleOnly bool) ([]domain.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.MediaItem{}
	for _, m := range r.items {
		if visibleOnly && !m.Visible {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MediaRepo) Update(_ context.Context, item *domain.MediaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	item.Kind = r.kind
	r.items[item.ID] = *item
	return nil
}

func (r *MediaRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

func (r *MediaRepo) SetOrder(_ context.Context, ids []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range ids {
		if m, ok := r.items[id]; ok {
			m.Order = i
			m.UpdatedAt = at
			r.items[id] = m
		}
	}
	return nil
}

func (r *MediaRepo) NextOrder(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return 0, nil
	}
	highest := 0
	for _, m := range r.items {
		if m.Order > highest {
			highest = m.Order
		}
	}
	return highest + 1, nil
}

func (r *MediaRepo) IncrementViews(_ context.Context, id string) (int64, error) {
	return r.increment(id, func(m *domain.MediaItem) *int64 { return &m.Views })
}

func (r *MediaRepo) IncrementLikes(_ context.Context, id string) (int64, error) {
	return r.increment(id, func(m *domain.MediaItem) *int64 { return &m.Likes })
}

func (r *MediaRepo) increment(id string, field func(*domain.MediaItem) *int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok || !m.Visible {
		return 0, mongo.ErrNoDocuments
	}
	counter := field(&m)
	*counter++
	r.items[id] = m
	return *counter, nil
}

func (r *MediaRepo) Totals(_ context.Context) (repository.MediaTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t repository.MediaTotals
	for _, m := range r.items {
		t.Items++
		t.Views += m.Views
		t.Likes += m.Likes
	}
	return t, nil
}

// ActivityLogRepo is an in-memory repository.ActivityLogRepository.
type ActivityLogRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLog
}

// NewActivityLogRepo builds an empty repository.
func NewActivityLogRepo() *ActivityLogRepo {
	return &ActivityLogRepo{}
}

func (r *ActivityLogRepo) Create(_ context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *ActivityLogRepo) List(_ context.Context, limit int) ([]domain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]domain.ActivityLog{}, r.entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit <= 0 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ActivityLogRepo) Each(_ context.Context, fn func(*domain.ActivityLog) error) error {
	r.mu.Lock()
	out := append([]domain.ActivityLog{}, r.entries...)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	for i := range out {
		if err := fn(&out[i]); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns the recorded entries in insertion order.
func (r *ActivityLogRepo) Entries() []domain.ActivityLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ActivityLog{}, r.entries...)
}

// VisitorRepo is an in-memory repository.VisitorRepository.
type VisitorRepo struct {
	mu     sync.Mutex
	visits []domain.Visit
}

// NewVisitorRepo seeds the repository.
func NewVisitorRepo(visits ...domain.Visit) *VisitorRepo {
	return &VisitorRepo{visits: visits}
}

func (r *VisitorRepo) Insert(_ context.Context, visit *domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, *visit)
	return nil
}

func (r *VisitorRepo) Summary(_ context.Context, since time.Time) (repository.VisitorSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s repository.VisitorSummary
	seen := map[string]struct{}{}
	for _, v := range r.visits {
		if v.At.Before(since) {
			continue
		}
		s.Views++
		seen[v.VisitorHash] = struct{}{}
	}
	s.Visitors = int64(len(seen))
	return s, nil
}

func (r *VisitorRepo) Daily(_ context.Context, since time.Time) ([]repository.DayCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	times := make([]time.Time, 0, len(r.visits))
	for _, v := range r.visits {
		times = append(times, v.At)
	}
	return dayCounts(times, since), nil
}

func (r *VisitorRepo) GroupBy(_ context.Context, field string, since time.Time, limit int) ([]repository.GroupCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, v := range r.visits {
		if v.At.Before(since) {
			continue
		}
		var key string
		switch field {
		case "path":
			key = v.Path
		case "device":
			key = v.Device
		case "country":
			key = v.Country
		case "referrer":
			key = v.Referrer
		case "browser":
			key = v.Browser
		case "os":
			key = v.OS
		}
		if key != "" {
			counts[key]++
		}
	}
	out := make([]repository.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, repository.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit <= 0 {
		limit = 10
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Visits returns a copy of the stored visits.
func (r *VisitorRepo) Visits() []domain.Visit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Visit{}, r.visits...)
}

var (
	_ repository.StaffRepository         = (*StaffRepo)(nil)
	_ repository.PasswordResetRepository = (*PasswordResetRepo)(nil)
	_ repository.SubscriberRepository    = (*SubscriberRepo)(nil)
	_ repository.InquiryRepository       = (*InquiryRepo)(nil)
	_ repository.MediaRepository         = (*MediaRepo)(nil)
	_ repository.ActivityLogRepository   = (*ActivityLogRepo)(nil)
	_ repository.VisitorRepository       = (*VisitorRepo)(nil)
)
