package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	"github.com/nxl-pharma/crm-api/internal/repository"
	"github.com/nxl-pharma/crm-api/internal/testutil"
)

type inquiryFixture struct {
	svc    *InquiryService
	repo   *testutil.InquiryRepo
	mailer *testutil.Mailer
	clock  *testutil.Clock
	events []events.Event
}

func newInquiryFixture(t *testing.T) *inquiryFixture {
	t.Helper()
	f := &inquiryFixture{
		repo:   testutil.NewInquiryRepo(),
		mailer: &testutil.Mailer{},
		clock:  testutil.NewClock(testNow),
	}
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}
	f.svc = NewInquiryService(InquiryDependencies{
		InquiryRepo: f.repo,
		Dispatcher:  dispatcher,
		Mailer:      f.mailer,
		Now:         f.clock.Now,
	})
	return f
}

func (f *inquiryFixture) submit(t *testing.T) *domain.Inquiry {
	t.Helper()
	inquiry, err := f.svc.Submit(context.Background(), ContactInput{
		Name:    "Dana Reyes",
		Email:   "Dana@Clinic.example",
		Subject: "Bulk order",
		Message: "Do you ship <b>cold-chain</b> products?",
	})
	require.NoError(t, err)
	return inquiry
}

func TestInquiryService_SubmitSanitizesAndPublishes(t *testing.T) {
	f := newInquiryFixture(t)
	inquiry := f.submit(t)

	assert.Equal(t, domain.InquiryStatusNew, inquiry.Status)
	assert.Equal(t, "dana@clinic.example", inquiry.Email)
	assert.Equal(t, "Do you ship cold-chain products?", inquiry.Message)
	assert.Equal(t, 1, inquiry.MessageCount())

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventInquiryCreated, f.events[0].Type)
	payload, ok := f.events[0].Payload.(events.InquiryCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, inquiry.ID, payload.Inquiry.ID)
}

func TestInquiryService_SubmitValidates(t *testing.T) {
	f := newInquiryFixture(t)
	_, err := f.svc.Submit(context.Background(), ContactInput{Name: "", Email: "bad", Message: " "})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestInquiryService_OpenMarksNewAsRead(t *testing.T) {
	f := newInquiryFixture(t)
	inquiry := f.submit(t)
	staff := newStaff("s1", domain.StaffRoleStaff)

	opened, err := f.svc.Open(context.Background(), staff, inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InquiryStatusRead, opened.Status)
	require.Len(t, opened.StatusHistory, 1)
	assert.Equal(t, domain.InquiryStatusNew, opened.StatusHistory[0].From)
	assert.Equal(t, staff.Name, opened.StatusHistory[0].By)

	again, err := f.svc.Open(context.Background(), staff, inquiry.ID)
	require.NoError(t, err)
	assert.Len(t, again.StatusHistory, 1)

	_, err = f.svc.Open(context.Background(), staff, "missing")
	assert.Equal(t, "NOT_FOUND", errCode(err))
}

func TestInquiryService_SetStatusAllowsAnyTransition(t *testing.T) {
	f := newInquiryFixture(t)
	inquiry := f.submit(t)
	actor := newStaff("a1", domain.StaffRoleAdmin)

	for _, status := range []domain.InquiryStatus{domain.InquiryStatusReplied, domain.InquiryStatusNew, domain.InquiryStatusRead} {
		f.clock.Advance(time.Minute)
		updated, err := f.svc.SetStatus(context.Background(), actor, inquiry.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	stored, err := f.repo.GetByID(context.Background(), inquiry.ID)
	require.NoError(t, err)
	require.Len(t, stored.StatusHistory, 3)
	assert.Equal(t, domain.InquiryStatusReplied, stored.StatusHistory[0].To)
	assert.Equal(t, domain.InquiryStatusRead, stored.StatusHistory[2].To)

	_, err = f.svc.SetStatus(context.Background(), actor, inquiry.ID, "archived")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestInquiryService_RepliesKeepOrderAndCount(t *testing.T) {
	f := newInquiryFixture(t)
	inquiry := f.submit(t)
	actor := newStaff("a1", domain.StaffRoleAdmin)

	for _, subject := range []string{"first", "second", "third"} {
		f.clock.Advance(time.Minute)
		_, err := f.svc.Reply(context.Background(), actor, inquiry.ID, ReplyInput{
			Subject: subject,
			Message: "**Thanks** for asking",
			Note:    "internal " + subject,
		})
		require.NoError(t, err)
	}

	stored, err := f.repo.GetByID(context.Background(), inquiry.ID)
	require.NoError(t, err)
	require.Len(t, stored.Replies, 3)
	assert.Equal(t, "first", stored.Replies[0].Subject)
	assert.Equal(t, "third", stored.Replies[2].Subject)
	assert.Equal(t, 4, stored.MessageCount())
	assert.Equal(t, domain.InquiryStatusReplied, stored.Status)
	assert.Len(t, stored.StatusHistory, 1, "only the first reply changes status")

	sent := f.mailer.Messages()
	require.Len(t, sent, 3)
	assert.Equal(t, []string{"dana@clinic.example"}, sent[0].To)
	assert.Contains(t, sent[0].HTML, "<strong>Thanks</strong>")
	assert.NotContains(t, sent[0].HTML, "internal first")
}

func TestInquiryService_ReplyRequiresSubjectAndMessage(t *testing.T) {
	f := newInquiryFixture(t)
	inquiry := f.submit(t)

	_, err := f.svc.Reply(context.Background(), newStaff("a1", domain.StaffRoleAdmin), inquiry.ID, ReplyInput{Subject: "hi"})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	assert.Empty(t, f.mailer.Messages())
}

func TestInquiryService_DeleteNeedsOwner(t *testing.T) {
	f := newInquiryFixture(t)
	inquiry := f.submit(t)

	err := f.svc.Delete(context.Background(), newStaff("a1", domain.StaffRoleAdmin), inquiry.ID)
	assert.Equal(t, "FORBIDDEN", errCode(err))

	require.NoError(t, f.svc.Delete(context.Background(), newStaff("d1", domain.StaffRoleDev), inquiry.ID))
	_, err = f.svc.Get(context.Background(), inquiry.ID)
	assert.Equal(t, "NOT_FOUND", errCode(err))
}

func TestInquiryService_ListFiltersByStatus(t *testing.T) {
	f := newInquiryFixture(t)
	first := f.submit(t)
	f.clock.Advance(time.Minute)
	f.submit(t)
	_, err := f.svc.SetStatus(context.Background(), newStaff("a1", domain.StaffRoleAdmin), first.ID, domain.InquiryStatusRead)
	require.NoError(t, err)

	status := domain.InquiryStatusNew
	page, err := f.svc.List(context.Background(), repository.InquiryFilter{Status: &status})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.NotEqual(t, first.ID, page.Items[0].ID)
}
