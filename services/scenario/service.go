// Package scenario orchestrates the demo flows: resolve a policy for a user,
// wire policy-gated tools into a collector agent, and run the collect /
// summarize conversation.
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/access"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/repositories"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/agent"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/presenter"
	"go.uber.org/zap"
)

// APINotAvailableSentinel replaces external API results when the policy
// disables them. No partial calls are made on denial.
const APINotAvailableSentinel = "External API access is not available for this user."

// QuoteClient fetches a stock quote rendering for a symbol.
type QuoteClient interface {
	GlobalQuote(ctx context.Context, symbol string) (string, error)
}

// SearchClient runs a web search and renders the top results.
type SearchClient interface {
	Search(ctx context.Context, query string) (string, error)
}

// Service runs the demo scenarios.
type Service struct {
	agents    agent.ConversationAgent
	finance   repositories.FinanceRepository
	quotes    QuoteClient
	search    SearchClient
	presenter *presenter.Presenter
	resolver  *access.Resolver
	model     string
	logger    *zap.Logger
}

// NewService creates a new scenario service
func NewService(
	agents agent.ConversationAgent,
	finance repositories.FinanceRepository,
	quotes QuoteClient,
	search SearchClient,
	pres *presenter.Presenter,
	resolver *access.Resolver,
	model string,
	logger *zap.Logger,
) *Service {
	return &Service{
		agents:    agents,
		finance:   finance,
		quotes:    quotes,
		search:    search,
		presenter: pres,
		resolver:  resolver,
		model:     model,
		logger:    logger,
	}
}

// Report is the outcome of a scenario run.
type Report struct {
	RunID        string
	Username     string
	Policy       models.DataAccessPolicy
	Conversation string
}

// RunCollector runs the fixed full-access flow: a collector agent gathers
// IBM data with every tool, then a presenter agent summarizes it.
func (s *Service) RunCollector(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("scenario_run_id", runID))
	logger.Info("starting collector scenario")

	policy := models.UnrestrictedPolicy()

	toolset, err := s.buildToolset(policy, "IBM")
	if err != nil {
		return nil, err
	}

	collectorID, presenterID, threadID, err := s.createAgentsAndThread(ctx, toolset,
		"Collects financial data from Neon and Alpha Vantage.",
		"You are an AI researcher focused on collecting financial data. Use your tools to query the Neon Postgres database and fetch IBM stock data from Alpha Vantage.")
	if err != nil {
		return nil, err
	}

	if _, err := s.agents.Invoke(ctx, threadID, collectorID,
		"Collect IBM financial records and latest stock data."); err != nil {
		return nil, fmt.Errorf("collector run failed: %w", err)
	}

	if _, err := s.agents.Invoke(ctx, threadID, presenterID,
		"Summarize the financial data collected earlier."); err != nil {
		return nil, fmt.Errorf("presenter run failed: %w", err)
	}

	return s.report(ctx, threadID, runID, "", policy)
}

// RunLimited resolves the policy for username from the role file and runs
// the policy-gated flow.
func (s *Service) RunLimited(ctx context.Context, username string, roles models.RoleSet) (*Report, error) {
	runID := uuid.NewString()
	logger := s.logger.With(
		zap.String("scenario_run_id", runID),
		zap.String("username", username))

	policy, err := s.resolver.Resolve(roles)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve policy for %s: %w", username, err)
	}

	logger.Info("resolved policy",
		zap.Strings("roles", roles.Labels()),
		zap.String("row_filter", string(policy.RowFilter)),
		zap.Bool("external_api_enabled", policy.ExternalAPIEnabled))

	toolset, err := s.buildToolset(policy, "")
	if err != nil {
		return nil, err
	}

	collectorID, presenterID, threadID, err := s.createAgentsAndThread(ctx, toolset,
		"Collects IBM financial data from Neon, APIs, and the web.",
		"Use your tools to collect financial and stock data related to IBM.")
	if err != nil {
		return nil, err
	}

	// Internet search task, through the API gate.
	if policy.ExternalAPIEnabled {
		if _, err := s.agents.Invoke(ctx, threadID, collectorID,
			"Search for IBM's Q4 financial results from the web."); err != nil {
			return nil, fmt.Errorf("search run failed: %w", err)
		}
	} else {
		logger.Info("skipping web search task")
	}

	// Finance database task, phrased per the policy's query variant.
	if _, err := s.agents.Invoke(ctx, threadID, collectorID,
		fmt.Sprintf("%s from the Neon database.", queryTask(policy))); err != nil {
		return nil, fmt.Errorf("finance run failed: %w", err)
	}

	// Stock API task, through the API gate.
	if policy.ExternalAPIEnabled {
		if _, err := s.agents.Invoke(ctx, threadID, collectorID,
			"Fetch IBM's latest stock data from Alpha Vantage."); err != nil {
			return nil, fmt.Errorf("stock run failed: %w", err)
		}
	} else {
		logger.Info("skipping stock API task")
	}

	// Presenter task. Sensitive fields were masked before they entered the
	// thread, so the summarizer never sees them.
	if _, err := s.agents.Invoke(ctx, threadID, presenterID,
		"Summarize the collected financial data into a clean report."); err != nil {
		return nil, fmt.Errorf("presenter run failed: %w", err)
	}

	return s.report(ctx, threadID, runID, username, policy)
}

func (s *Service) createAgentsAndThread(ctx context.Context, toolset *agent.ToolSet, collectorDescription, collectorInstructions string) (collectorID, presenterID, threadID string, err error) {
	suffix := time.Now().Format("200601021504")

	collectorID, err = s.agents.CreateAgent(ctx, agent.Definition{
		Model:        s.model,
		Name:         "data-collector-" + suffix,
		Description:  collectorDescription,
		Instructions: collectorInstructions,
		Toolset:      toolset,
	})
	if err != nil {
		return "", "", "", fmt.Errorf("failed to create collector agent: %w", err)
	}

	presenterID, err = s.agents.CreateAgent(ctx, agent.Definition{
		Model:        s.model,
		Name:         "data-presenter-" + suffix,
		Description:  "Formats and summarizes collected financial data.",
		Instructions: "You are a summarization assistant. Format and present financial data insights in a concise, readable way.",
	})
	if err != nil {
		return "", "", "", fmt.Errorf("failed to create presenter agent: %w", err)
	}

	threadID, err = s.agents.CreateThread(ctx)
	if err != nil {
		return "", "", "", err
	}
	return collectorID, presenterID, threadID, nil
}

func (s *Service) report(ctx context.Context, threadID, runID, username string, policy models.DataAccessPolicy) (*Report, error) {
	messages, err := s.agents.ListMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return &Report{
		RunID:        runID,
		Username:     username,
		Policy:       policy,
		Conversation: s.presenter.RenderConversation(messages),
	}, nil
}

// queryTask phrases the finance task for the policy's query variant.
func queryTask(policy models.DataAccessPolicy) string {
	switch {
	case len(policy.ColumnAllowList) > 0:
		return "Query limited finance data"
	case policy.RowFilter == models.RowFilterRestrictedOnly:
		return "Query row level restricted finance data"
	default:
		return "Query full finance data"
	}
}

// queryToolName names the finance tool the way the policy's variant is known
// to the model.
func queryToolName(policy models.DataAccessPolicy) string {
	switch {
	case len(policy.ColumnAllowList) > 0:
		return "query_limited_finance_data"
	case policy.RowFilter == models.RowFilterRestrictedOnly:
		return "query_row_level_finance_data"
	default:
		return "query_finance_data"
	}
}

// buildToolset wires the collector tools. Every handler closes over the
// resolved policy: the finance tool applies projection, predicate, and
// masking; the external tools enforce the API gate even if the model calls
// them unprompted. A non-empty company narrows the finance tool to that
// company's rows.
func (s *Service) buildToolset(policy models.DataAccessPolicy, company string) (*agent.ToolSet, error) {
	toolset := agent.NewToolSet()

	searchSchema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query"}
		}
	}`)

	if err := toolset.Add(agent.FunctionTool{
		Name:        "search_ibm_news",
		Description: "Search IBM financial news on the web.",
		Parameters:  searchSchema,
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			if !policy.ExternalAPIEnabled {
				return APINotAvailableSentinel, nil
			}
			query := "IBM Q4 earnings"
			var parsed struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(args, &parsed); err == nil && parsed.Query != "" {
				query = parsed.Query
			}
			return s.search.Search(ctx, query)
		},
	}); err != nil {
		return nil, err
	}

	if err := toolset.Add(agent.FunctionTool{
		Name:        queryToolName(policy),
		Description: fmt.Sprintf("%s from the Neon Postgres database.", queryTask(policy)),
		Parameters:  agent.NoArgsSchema,
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var records []models.FinanceRecord
			var err error
			if company != "" {
				records, err = s.finance.QueryByCompany(ctx, policy, company)
			} else {
				records, err = s.finance.Query(ctx, policy)
			}
			if err != nil {
				return "", err
			}
			return s.presenter.RenderRecords(records, policy), nil
		},
	}); err != nil {
		return nil, err
	}

	if err := toolset.Add(agent.FunctionTool{
		Name:        "fetch_ibm_stock",
		Description: "Fetch IBM's latest stock quote from Alpha Vantage.",
		Parameters:  agent.NoArgsSchema,
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			if !policy.ExternalAPIEnabled {
				return APINotAvailableSentinel, nil
			}
			return s.quotes.GlobalQuote(ctx, "IBM")
		},
	}); err != nil {
		return nil, err
	}

	return toolset, nil
}
