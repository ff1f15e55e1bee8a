package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/config"
	"go.uber.org/zap"
)

// tokenScope is the Azure AI resource scope for agent calls.
const tokenScope = "https://ai.azure.com/.default"

// AzureAgent implements ConversationAgent against the Azure AI Agents REST
// API, authenticating with the default Azure credential chain.
type AzureAgent struct {
	config     config.AzureConfig
	credential azcore.TokenCredential
	httpClient *http.Client
	logger     *zap.Logger

	// toolsets keyed by agent ID, used to dispatch requires_action calls.
	toolsets map[string]*ToolSet
}

// NewAzureAgent creates an adapter using DefaultAzureCredential.
func NewAzureAgent(cfg config.AzureConfig, logger *zap.Logger) (*AzureAgent, error) {
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build azure credential: %w", err)
	}
	return NewAzureAgentWithCredential(cfg, credential, logger), nil
}

// NewAzureAgentWithCredential creates an adapter with an explicit credential.
func NewAzureAgentWithCredential(cfg config.AzureConfig, credential azcore.TokenCredential, logger *zap.Logger) *AzureAgent {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}
	return &AzureAgent{
		config:     cfg,
		credential: credential,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		toolsets:   make(map[string]*ToolSet),
	}
}

// Wire payloads.

type toolDefinition struct {
	Type     string              `json:"type"`
	Function *functionDefinition `json:"function,omitempty"`
}

type functionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type createAgentRequest struct {
	Model        string           `json:"model"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Instructions string           `json:"instructions,omitempty"`
	Tools        []toolDefinition `json:"tools,omitempty"`
}

type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

type runResponse struct {
	ID             string          `json:"id"`
	AssistantID    string          `json:"assistant_id"`
	Status         RunStatus       `json:"status"`
	RequiredAction *requiredAction `json:"required_action,omitempty"`
	LastError      *runError       `json:"last_error,omitempty"`
}

type runError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type requiredAction struct {
	Type              string             `json:"type"`
	SubmitToolOutputs *submitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

type submitToolOutputs struct {
	ToolCalls []toolCall `json:"tool_calls"`
}

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

type submitToolOutputsRequest struct {
	ToolOutputs []toolOutput `json:"tool_outputs"`
}

type idResponse struct {
	ID string `json:"id"`
}

type messageList struct {
	Data []messageResponse `json:"data"`
}

type messageResponse struct {
	Role        string           `json:"role"`
	AssistantID string           `json:"assistant_id"`
	CreatedAt   int64            `json:"created_at"`
	Content     []messageContent `json:"content"`
}

type messageContent struct {
	Type string       `json:"type"`
	Text *messageText `json:"text,omitempty"`
}

type messageText struct {
	Value string `json:"value"`
}

// CreateAgent registers an agent definition and remembers its toolset for
// tool-call dispatch during runs.
func (a *AzureAgent) CreateAgent(ctx context.Context, def Definition) (string, error) {
	req := createAgentRequest{
		Model:        def.Model,
		Name:         def.Name,
		Description:  def.Description,
		Instructions: def.Instructions,
	}
	if def.Toolset != nil {
		for _, tool := range def.Toolset.Tools() {
			req.Tools = append(req.Tools, toolDefinition{
				Type: "function",
				Function: &functionDefinition{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
	}

	var resp idResponse
	if err := a.do(ctx, http.MethodPost, "/assistants", req, &resp); err != nil {
		return "", fmt.Errorf("failed to create agent %s: %w", def.Name, err)
	}

	if def.Toolset != nil {
		a.toolsets[resp.ID] = def.Toolset
	}

	a.logger.Info("agent created",
		zap.String("agent_id", resp.ID),
		zap.String("name", def.Name),
		zap.String("model", def.Model))

	return resp.ID, nil
}

// CreateThread starts a new conversation thread.
func (a *AzureAgent) CreateThread(ctx context.Context) (string, error) {
	var resp idResponse
	if err := a.do(ctx, http.MethodPost, "/threads", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	a.logger.Info("thread created", zap.String("thread_id", resp.ID))
	return resp.ID, nil
}

// Invoke posts a user message and processes a run until it is terminal,
// dispatching registered function tools when the run requires action.
func (a *AzureAgent) Invoke(ctx context.Context, threadID, agentID, prompt string) (*RunResult, error) {
	msgPath := fmt.Sprintf("/threads/%s/messages", threadID)
	if err := a.do(ctx, http.MethodPost, msgPath, createMessageRequest{Role: "user", Content: prompt}, nil); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	var run runResponse
	runsPath := fmt.Sprintf("/threads/%s/runs", threadID)
	if err := a.do(ctx, http.MethodPost, runsPath, createRunRequest{AssistantID: agentID}, &run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	run, err := a.processRun(ctx, threadID, run)
	if err != nil {
		return nil, err
	}

	result := &RunResult{ID: run.ID, Status: run.Status}
	if run.LastError != nil {
		result.LastError = fmt.Sprintf("%s: %s", run.LastError.Code, run.LastError.Message)
	}

	a.logger.Info("run processed",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)))

	return result, nil
}

// processRun polls the run until terminal, handling tool-call actions.
func (a *AzureAgent) processRun(ctx context.Context, threadID string, run runResponse) (runResponse, error) {
	runPath := fmt.Sprintf("/threads/%s/runs/%s", threadID, run.ID)

	for !run.Status.Terminal() {
		if run.Status == RunStatusRequiresAction {
			if err := a.handleRequiredAction(ctx, threadID, run); err != nil {
				return run, err
			}
		} else {
			select {
			case <-ctx.Done():
				return run, ctx.Err()
			case <-time.After(a.config.PollInterval):
			}
		}

		if err := a.do(ctx, http.MethodGet, runPath, nil, &run); err != nil {
			return run, fmt.Errorf("failed to poll run %s: %w", run.ID, err)
		}
	}

	return run, nil
}

func (a *AzureAgent) handleRequiredAction(ctx context.Context, threadID string, run runResponse) error {
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		return fmt.Errorf("run %s requires action but carries none", run.ID)
	}

	toolset := a.toolsets[run.AssistantID]

	outputs := make([]toolOutput, 0, len(run.RequiredAction.SubmitToolOutputs.ToolCalls))
	for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		output, err := a.dispatchToolCall(ctx, toolset, call)
		if err != nil {
			// Tool failures are reported back to the model as output text,
			// matching how the hosted SDK surfaces them.
			a.logger.Warn("tool call failed",
				zap.String("tool", call.Function.Name),
				zap.Error(err))
			output = fmt.Sprintf("Error: %v", err)
		}
		outputs = append(outputs, toolOutput{ToolCallID: call.ID, Output: output})
	}

	path := fmt.Sprintf("/threads/%s/runs/%s/submit_tool_outputs", threadID, run.ID)
	if err := a.do(ctx, http.MethodPost, path, submitToolOutputsRequest{ToolOutputs: outputs}, nil); err != nil {
		return fmt.Errorf("failed to submit tool outputs: %w", err)
	}
	return nil
}

func (a *AzureAgent) dispatchToolCall(ctx context.Context, toolset *ToolSet, call toolCall) (string, error) {
	if toolset == nil {
		return "", fmt.Errorf("no toolset registered for run")
	}
	args := json.RawMessage(call.Function.Arguments)
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	a.logger.Debug("dispatching tool call",
		zap.String("tool", call.Function.Name),
		zap.String("tool_call_id", call.ID))
	return toolset.Dispatch(ctx, call.Function.Name, args)
}

// ListMessages returns the thread's messages oldest-first.
func (a *AzureAgent) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	var list messageList
	path := fmt.Sprintf("/threads/%s/messages", threadID)
	if err := a.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]ThreadMessage, 0, len(list.Data))
	for _, msg := range list.Data {
		content := ""
		for _, part := range msg.Content {
			if part.Type == "text" && part.Text != nil {
				content = part.Text.Value
				break
			}
		}
		messages = append(messages, ThreadMessage{
			Role:      msg.Role,
			Content:   content,
			AgentID:   msg.AssistantID,
			CreatedAt: time.Unix(msg.CreatedAt, 0),
		})
	}

	// The API returns newest-first; present in time order.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return messages, nil
}

// do issues one authenticated request against the project endpoint.
func (a *AzureAgent) do(ctx context.Context, method, path string, body, out interface{}) error {
	endpoint := fmt.Sprintf("%s%s?api-version=%s", a.config.ProjectEndpoint, path, a.config.APIVersion)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := a.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
	if err != nil {
		return fmt.Errorf("failed to acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("agent service returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
