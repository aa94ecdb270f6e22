package transfer

import (
	"context"
	"correspondence-tracker/internal/domain"
	apiError "correspondence-tracker/internal/errors"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// mock implementation of TransferRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, t *domain.Transfer) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint64) (*domain.Transfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transfer), args.Error(1)
}

func (m *MockRepository) Acknowledge(ctx context.Context, id uint64, at time.Time, signature string) (bool, error) {
	args := m.Called(ctx, id, at, signature)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Close(ctx context.Context, id uint64, from []domain.TransferStatus) (bool, error) {
	args := m.Called(ctx, id, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) DeleteClosed(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListByRecipient(ctx context.Context, userID uint64) ([]domain.Transfer, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Transfer), args.Error(1)
}

func (m *MockRepository) ListBySender(ctx context.Context, userID uint64) ([]domain.Transfer, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Transfer), args.Error(1)
}

func (m *MockRepository) ListAcknowledgedByService(ctx context.Context, serviceID uint64) ([]domain.Transfer, error) {
	args := m.Called(ctx, serviceID)
	return args.Get(0).([]domain.Transfer), args.Error(1)
}

func (m *MockRepository) ListAcknowledgedBySender(ctx context.Context, senderID uint64) ([]domain.Transfer, error) {
	args := m.Called(ctx, senderID)
	return args.Get(0).([]domain.Transfer), args.Error(1)
}

func (m *MockRepository) ListByDocument(ctx context.Context, documentID uint64) ([]domain.Transfer, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).([]domain.Transfer), args.Error(1)
}

type MockDocumentFinder struct {
	mock.Mock
}

func (m *MockDocumentFinder) FindByID(ctx context.Context, id uint64) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func newTestService(repo TransferRepository, docs DocumentFinder, requireAck bool) Service {
	return NewService(repo, docs, nil, nil, requireAck)
}

func statusOf(err error) int {
	var apiErr *apiError.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func TestRoute_FanOutCreatesOneTransferPerRecipient(t *testing.T) {
	repo := new(MockRepository)
	docs := new(MockDocumentFinder)
	service := newTestService(repo, docs, false)

	doc := &domain.Document{ID: 10, AuthorID: 1}
	docs.On("FindByID", mock.Anything, uint64(10)).Return(doc, nil)

	var nextID uint64
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Transfer")).
		Return(nil).
		Run(func(args mock.Arguments) {
			nextID++
			args.Get(1).(*domain.Transfer).ID = nextID
		})

	result, err := service.Route(context.Background(), 10, 1, RouteRequest{
		RecipientIDs: []uint64{2, 3, 4},
	})

	assert.NoError(t, err)
	assert.Len(t, result.Created, 3)
	assert.Empty(t, result.Failed)
	for i, tr := range result.Created {
		assert.Equal(t, domain.StatusSent, tr.Status)
		assert.Equal(t, uint64(10), tr.DocumentID)
		assert.Equal(t, uint64(1), tr.SenderID)
		assert.Equal(t, []uint64{2, 3, 4}[i], tr.RecipientID)
		assert.Nil(t, tr.AcknowledgedAt)
		assert.Nil(t, tr.Signature)
	}
	repo.AssertNumberOfCalls(t, "Create", 3)
}

func TestRoute_EmptyRecipientListRejected(t *testing.T) {
	service := newTestService(new(MockRepository), new(MockDocumentFinder), false)

	_, err := service.Route(context.Background(), 10, 1, RouteRequest{})

	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestRoute_UnknownDocument(t *testing.T) {
	repo := new(MockRepository)
	docs := new(MockDocumentFinder)
	service := newTestService(repo, docs, false)

	docs.On("FindByID", mock.Anything, uint64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.Route(context.Background(), 99, 1, RouteRequest{RecipientIDs: []uint64{2}})

	assert.Equal(t, http.StatusNotFound, statusOf(err))
	repo.AssertNotCalled(t, "Create")
}

func TestRoute_NonAuthorForbidden(t *testing.T) {
	repo := new(MockRepository)
	docs := new(MockDocumentFinder)
	service := newTestService(repo, docs, false)

	docs.On("FindByID", mock.Anything, uint64(10)).Return(&domain.Document{ID: 10, AuthorID: 1}, nil)

	_, err := service.Route(context.Background(), 10, 7, RouteRequest{RecipientIDs: []uint64{2}})

	assert.Equal(t, http.StatusForbidden, statusOf(err))
	repo.AssertNotCalled(t, "Create")
}

func TestRoute_SiblingFailureDoesNotRollBack(t *testing.T) {
	repo := new(MockRepository)
	docs := new(MockDocumentFinder)
	service := newTestService(repo, docs, false)

	docs.On("FindByID", mock.Anything, uint64(10)).Return(&domain.Document{ID: 10, AuthorID: 1}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(tr *domain.Transfer) bool {
		return tr.RecipientID == 3
	})).Return(errors.New("recipient gone"))
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Transfer")).Return(nil)

	result, err := service.Route(context.Background(), 10, 1, RouteRequest{
		RecipientIDs: []uint64{2, 3, 4},
	})

	assert.NoError(t, err)
	assert.Len(t, result.Created, 2)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, uint64(3), result.Failed[0].RecipientID)
}

func TestRoute_ImportPastSentRequiresSignature(t *testing.T) {
	repo := new(MockRepository)
	docs := new(MockDocumentFinder)
	service := newTestService(repo, docs, false)

	docs.On("FindByID", mock.Anything, uint64(10)).Return(&domain.Document{ID: 10, AuthorID: 1}, nil)

	_, err := service.Route(context.Background(), 10, 1, RouteRequest{
		RecipientIDs: []uint64{2},
		Status:       domain.StatusAcknowledged,
	})

	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	repo.AssertNotCalled(t, "Create")
}

func TestAcknowledge_Success(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	sent := &domain.Transfer{ID: 5, RecipientID: 2, SenderID: 1, Status: domain.StatusSent}
	sig := "J.Doe"
	now := time.Now().UTC()
	acked := &domain.Transfer{ID: 5, RecipientID: 2, SenderID: 1, Status: domain.StatusAcknowledged, Signature: &sig, AcknowledgedAt: &now}

	repo.On("FindByID", mock.Anything, uint64(5)).Return(sent, nil).Once()
	repo.On("Acknowledge", mock.Anything, uint64(5), mock.AnythingOfType("time.Time"), "J.Doe").Return(true, nil)
	repo.On("FindByID", mock.Anything, uint64(5)).Return(acked, nil).Once()

	result, err := service.Acknowledge(context.Background(), 5, 2, "J.Doe")

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusAcknowledged, result.Status)
	assert.Equal(t, "J.Doe", *result.Signature)
	assert.NotNil(t, result.AcknowledgedAt)
}

func TestAcknowledge_OnlyRecipientAllowed(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, RecipientID: 2, SenderID: 1, Status: domain.StatusSent}, nil)

	_, err := service.Acknowledge(context.Background(), 5, 1, "J.Doe")

	assert.Equal(t, http.StatusForbidden, statusOf(err))
	repo.AssertNotCalled(t, "Acknowledge")
}

func TestAcknowledge_EmptySignatureRejected(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	_, err := service.Acknowledge(context.Background(), 5, 2, "")

	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	repo.AssertNotCalled(t, "FindByID")
}

func TestAcknowledge_NotSentIsConflict(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, RecipientID: 2, Status: domain.StatusAcknowledged}, nil)
	// The guarded update matches no row once the status moved on.
	repo.On("Acknowledge", mock.Anything, uint64(5), mock.AnythingOfType("time.Time"), "J.Doe").Return(false, nil)

	_, err := service.Acknowledge(context.Background(), 5, 2, "J.Doe")

	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestClose_SenderClosesUnacknowledgedByDefault(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	sent := &domain.Transfer{ID: 5, SenderID: 1, RecipientID: 2, Status: domain.StatusSent}
	closed := &domain.Transfer{ID: 5, SenderID: 1, RecipientID: 2, Status: domain.StatusClosed}

	repo.On("FindByID", mock.Anything, uint64(5)).Return(sent, nil).Once()
	repo.On("Close", mock.Anything, uint64(5),
		[]domain.TransferStatus{domain.StatusSent, domain.StatusAcknowledged}).Return(true, nil)
	repo.On("FindByID", mock.Anything, uint64(5)).Return(closed, nil).Once()

	result, err := service.Close(context.Background(), 5, 1)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, result.Status)
}

func TestClose_RequireAckBlocksSentTransfer(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), true)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, SenderID: 1, Status: domain.StatusSent}, nil)

	_, err := service.Close(context.Background(), 5, 1)

	assert.Equal(t, http.StatusConflict, statusOf(err))
	repo.AssertNotCalled(t, "Close")
}

func TestClose_AlreadyClosedIsConflict(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, SenderID: 1, Status: domain.StatusClosed}, nil)

	_, err := service.Close(context.Background(), 5, 1)

	assert.Equal(t, http.StatusConflict, statusOf(err))
	repo.AssertNotCalled(t, "Close")
}

func TestClose_OnlySenderAllowed(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, SenderID: 1, RecipientID: 2, Status: domain.StatusAcknowledged}, nil)

	_, err := service.Close(context.Background(), 5, 2)

	assert.Equal(t, http.StatusForbidden, statusOf(err))
	repo.AssertNotCalled(t, "Close")
}

func TestDelete_OnlyClosedTransfers(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, SenderID: 1, RecipientID: 2, Status: domain.StatusAcknowledged}, nil)
	repo.On("DeleteClosed", mock.Anything, uint64(5)).Return(false, nil)

	err := service.Delete(context.Background(), 5, 1)

	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestDelete_ByRecipientSucceedsOnceClosed(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, SenderID: 1, RecipientID: 2, Status: domain.StatusClosed}, nil)
	repo.On("DeleteClosed", mock.Anything, uint64(5)).Return(true, nil)

	err := service.Delete(context.Background(), 5, 2)

	assert.NoError(t, err)
}

func TestDelete_StrangerForbidden(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockDocumentFinder), false)

	repo.On("FindByID", mock.Anything, uint64(5)).
		Return(&domain.Transfer{ID: 5, SenderID: 1, RecipientID: 2, Status: domain.StatusClosed}, nil)

	err := service.Delete(context.Background(), 5, 9)

	assert.Equal(t, http.StatusForbidden, statusOf(err))
	repo.AssertNotCalled(t, "DeleteClosed")
}
