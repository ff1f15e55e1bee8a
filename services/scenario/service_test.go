package scenario

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/access"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/agent"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/presenter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockConversationAgent is a mock implementation of agent.ConversationAgent
type MockConversationAgent struct {
	mock.Mock

	collectorToolset *agent.ToolSet
}

func (m *MockConversationAgent) CreateAgent(ctx context.Context, def agent.Definition) (string, error) {
	if def.Toolset != nil {
		m.collectorToolset = def.Toolset
	}
	args := m.Called(ctx, def)
	return args.String(0), args.Error(1)
}

func (m *MockConversationAgent) CreateThread(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockConversationAgent) Invoke(ctx context.Context, threadID, agentID, prompt string) (*agent.RunResult, error) {
	args := m.Called(ctx, threadID, agentID, prompt)
	if result := args.Get(0); result != nil {
		return result.(*agent.RunResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConversationAgent) ListMessages(ctx context.Context, threadID string) ([]agent.ThreadMessage, error) {
	args := m.Called(ctx, threadID)
	if messages := args.Get(0); messages != nil {
		return messages.([]agent.ThreadMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockFinanceRepository is a mock implementation of repositories.FinanceRepository
type MockFinanceRepository struct {
	mock.Mock
}

func (m *MockFinanceRepository) Query(ctx context.Context, policy models.DataAccessPolicy) ([]models.FinanceRecord, error) {
	args := m.Called(ctx, policy)
	if records := args.Get(0); records != nil {
		return records.([]models.FinanceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFinanceRepository) QueryByCompany(ctx context.Context, policy models.DataAccessPolicy, company string) ([]models.FinanceRecord, error) {
	args := m.Called(ctx, policy, company)
	if records := args.Get(0); records != nil {
		return records.([]models.FinanceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubQuoteClient struct{ result string }

func (s stubQuoteClient) GlobalQuote(ctx context.Context, symbol string) (string, error) {
	return s.result, nil
}

type stubSearchClient struct{ result string }

func (s stubSearchClient) Search(ctx context.Context, query string) (string, error) {
	return s.result, nil
}

func restrictedRecord() models.FinanceRecord {
	return models.FinanceRecord{
		ID:         sql.NullInt64{Int64: 1, Valid: true},
		Company:    sql.NullString{String: "IBM", Valid: true},
		Revenue:    sql.NullFloat64{Float64: 75000, Valid: true},
		Profit:     sql.NullFloat64{Float64: 5000, Valid: true},
		StockPrice: sql.NullFloat64{Float64: 145.32, Valid: true},
		UserRole:   sql.NullString{String: "restricted", Valid: true},
	}
}

func newTestService(agents *MockConversationAgent, finance *MockFinanceRepository) *Service {
	logger := zap.NewNop()
	return NewService(
		agents,
		finance,
		stubQuoteClient{result: "05. price: 145.3200"},
		stubSearchClient{result: "IBM Q4 Results - https://example.com"},
		presenter.NewPresenter(logger),
		access.NewResolver(access.UnknownRoleIgnore, logger),
		"gpt-4o",
		logger,
	)
}

func historyMessages() []agent.ThreadMessage {
	return []agent.ThreadMessage{
		{Role: "user", Content: "Query full finance data from the Neon database.", CreatedAt: time.Unix(1700000000, 0)},
		{Role: "assistant", AgentID: "agent-1", Content: "Done.", CreatedAt: time.Unix(1700000100, 0)},
	}
}

func TestRunLimited_AdminRunsAllTasks(t *testing.T) {
	agents := new(MockConversationAgent)
	finance := new(MockFinanceRepository)
	service := newTestService(agents, finance)
	ctx := context.Background()

	agents.On("CreateAgent", ctx, mock.Anything).Return("agent-1", nil).Twice()
	agents.On("CreateThread", ctx).Return("thread-1", nil)
	agents.On("Invoke", ctx, "thread-1", "agent-1", mock.Anything).
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil).Times(4)
	agents.On("ListMessages", ctx, "thread-1").Return(historyMessages(), nil)

	report, err := service.RunLimited(ctx, "user_a", models.NewRoleSet(models.RoleAdmin, models.RoleFullDataAccess))
	require.NoError(t, err)
	assert.Equal(t, models.UnrestrictedPolicy(), report.Policy)
	assert.Contains(t, report.Conversation, "Done.")
	agents.AssertExpectations(t)
}

func TestRunLimited_RestrictedSkipsExternalTasks(t *testing.T) {
	agents := new(MockConversationAgent)
	finance := new(MockFinanceRepository)
	service := newTestService(agents, finance)
	ctx := context.Background()

	agents.On("CreateAgent", ctx, mock.Anything).Return("agent-1", nil).Twice()
	agents.On("CreateThread", ctx).Return("thread-1", nil)
	// Only the finance task and the presenter task run.
	agents.On("Invoke", ctx, "thread-1", "agent-1", "Query limited finance data from the Neon database.").
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil).Once()
	agents.On("Invoke", ctx, "thread-1", "agent-1", "Summarize the collected financial data into a clean report.").
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil).Once()
	agents.On("ListMessages", ctx, "thread-1").Return(historyMessages(), nil)

	roles := models.NewRoleSet(
		models.RoleRestricted,
		models.RoleLimitedAPIAccess,
		models.RoleRestrictedDB,
		models.RoleRowRestricted,
		models.RoleMaskData,
	)
	report, err := service.RunLimited(ctx, "user_b", roles)
	require.NoError(t, err)
	assert.False(t, report.Policy.ExternalAPIEnabled)
	assert.Equal(t, models.RowFilterRestrictedOnly, report.Policy.RowFilter)
	agents.AssertExpectations(t)
}

func TestRunLimited_ToolGateReturnsSentinel(t *testing.T) {
	agents := new(MockConversationAgent)
	finance := new(MockFinanceRepository)
	service := newTestService(agents, finance)
	ctx := context.Background()

	agents.On("CreateAgent", ctx, mock.Anything).Return("agent-1", nil)
	agents.On("CreateThread", ctx).Return("thread-1", nil)
	agents.On("Invoke", ctx, "thread-1", "agent-1", mock.Anything).
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil)
	agents.On("ListMessages", ctx, "thread-1").Return(historyMessages(), nil)
	finance.On("Query", mock.Anything, mock.Anything).Return([]models.FinanceRecord{restrictedRecord()}, nil)

	_, err := service.RunLimited(ctx, "user_b", models.NewRoleSet(models.RoleLimitedAPIAccess))
	require.NoError(t, err)
	require.NotNil(t, agents.collectorToolset)

	// Even a direct model-initiated call hits the gate.
	output, err := agents.collectorToolset.Dispatch(ctx, "fetch_ibm_stock", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, APINotAvailableSentinel, output)

	output, err = agents.collectorToolset.Dispatch(ctx, "search_ibm_news", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, APINotAvailableSentinel, output)
}

func TestRunLimited_FinanceToolMasksBeforeThread(t *testing.T) {
	agents := new(MockConversationAgent)
	finance := new(MockFinanceRepository)
	service := newTestService(agents, finance)
	ctx := context.Background()

	agents.On("CreateAgent", ctx, mock.Anything).Return("agent-1", nil)
	agents.On("CreateThread", ctx).Return("thread-1", nil)
	agents.On("Invoke", ctx, "thread-1", "agent-1", mock.Anything).
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil)
	agents.On("ListMessages", ctx, "thread-1").Return(historyMessages(), nil)
	finance.On("Query", mock.Anything, mock.Anything).Return([]models.FinanceRecord{restrictedRecord()}, nil)

	_, err := service.RunLimited(ctx, "user_c", models.NewRoleSet(models.RoleMaskData))
	require.NoError(t, err)
	require.NotNil(t, agents.collectorToolset)

	output, err := agents.collectorToolset.Dispatch(ctx, "query_finance_data", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Contains(t, output, "revenue: "+presenter.MaskPlaceholder)
	assert.Contains(t, output, "profit: "+presenter.MaskPlaceholder)
	assert.NotContains(t, output, "75000")
}

func TestRunLimited_DenyAllQueriesNothing(t *testing.T) {
	agents := new(MockConversationAgent)
	finance := new(MockFinanceRepository)
	service := newTestService(agents, finance)
	ctx := context.Background()

	agents.On("CreateAgent", ctx, mock.Anything).Return("agent-1", nil)
	agents.On("CreateThread", ctx).Return("thread-1", nil)
	agents.On("Invoke", ctx, "thread-1", "agent-1", mock.Anything).
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil)
	agents.On("ListMessages", ctx, "thread-1").Return(historyMessages(), nil)
	finance.On("Query", mock.Anything, models.DenyAllPolicy()).Return([]models.FinanceRecord{}, nil)

	report, err := service.RunLimited(ctx, "nobody", models.NewRoleSet())
	require.NoError(t, err)
	assert.Equal(t, models.DenyAllPolicy(), report.Policy)

	output, err := agents.collectorToolset.Dispatch(ctx, "query_finance_data", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, presenter.NoRecordsSentinel, output)
}

func TestRunCollector(t *testing.T) {
	agents := new(MockConversationAgent)
	finance := new(MockFinanceRepository)
	service := newTestService(agents, finance)
	ctx := context.Background()

	agents.On("CreateAgent", ctx, mock.Anything).Return("agent-1", nil).Twice()
	agents.On("CreateThread", ctx).Return("thread-1", nil)
	agents.On("Invoke", ctx, "thread-1", "agent-1", "Collect IBM financial records and latest stock data.").
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil).Once()
	agents.On("Invoke", ctx, "thread-1", "agent-1", "Summarize the financial data collected earlier.").
		Return(&agent.RunResult{ID: "run", Status: agent.RunStatusCompleted}, nil).Once()
	agents.On("ListMessages", ctx, "thread-1").Return(historyMessages(), nil)
	finance.On("QueryByCompany", mock.Anything, models.UnrestrictedPolicy(), "IBM").
		Return([]models.FinanceRecord{restrictedRecord()}, nil)

	report, err := service.RunCollector(ctx)
	require.NoError(t, err)
	assert.True(t, report.Policy.IsUnrestricted())

	// The collector's finance tool scopes to IBM.
	output, err := agents.collectorToolset.Dispatch(ctx, "query_finance_data", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Contains(t, output, "company: IBM")
	finance.AssertExpectations(t)
}

func TestRunLimited_RejectModeSurfacesError(t *testing.T) {
	agents := new(MockConversationAgent)
	finance := new(MockFinanceRepository)
	logger := zap.NewNop()
	service := NewService(
		agents, finance,
		stubQuoteClient{}, stubSearchClient{},
		presenter.NewPresenter(logger),
		access.NewResolver(access.UnknownRoleReject, logger),
		"gpt-4o",
		logger,
	)

	_, err := service.RunLimited(context.Background(), "user_x", models.NewRoleSet("mystery_role"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery_role")
}
