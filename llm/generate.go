/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"

	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/internal/utils"
)

// GenerationError is any failure of the structured generation call: upstream
// fault, reply without a JSON payload, or a payload violating the schema of
// out. It is never retried beyond the transport-level retries below; the
// caller decides whether to re-run the whole workflow.
type GenerationError struct {
	Reason string
	Cause  error
}

func (e *GenerationError) Error() string {
	return e.Reason
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

var _ Generator = (*StructuredGenerator)(nil)

// StructuredGenerator turns a ChatModel into a Generator: it appends the JSON
// schema of the expected output to the prompt, calls the model, extracts the
// JSON payload from the reply and unmarshals it.
type StructuredGenerator struct {
	model   ChatModel
	retries int           // transport retries, default 3
	timeout time.Duration // per-attempt timeout, default 600s
}

// StructuredGeneratorOptions configures NewStructuredGenerator.
type StructuredGeneratorOptions struct {
	Retries int           `json:"retries"`
	Timeout time.Duration `json:"timeout"`
}

func NewStructuredGenerator(model ChatModel, opts StructuredGeneratorOptions) *StructuredGenerator {
	retries := opts.Retries
	if retries == 0 {
		retries = 3
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 600 * time.Second
	}
	return &StructuredGenerator{
		model:   model,
		retries: retries,
		timeout: timeout,
	}
}

// Generate implements Generator.
func (g *StructuredGenerator) Generate(ctx context.Context, prompt string, out any) error {
	schemaJSON, err := SchemaJSON(out)
	if err != nil {
		return &GenerationError{Reason: fmt.Sprintf("build output schema: %v", err), Cause: err}
	}
	full := prompt + outputInstruction + string(schemaJSON)
	log.Debug("[User] %s", full)

	content, err := g.call(ctx, full)
	if err != nil {
		return &GenerationError{Reason: fmt.Sprintf("model call failed: %v", err), Cause: err}
	}

	payload, err := utils.ExtractJSONBlock(content)
	if err != nil {
		return &GenerationError{Reason: fmt.Sprintf("malformed model output: %v", err), Cause: err}
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &GenerationError{Reason: fmt.Sprintf("model output violates schema: %v", err), Cause: err}
	}
	return nil
}

const outputInstruction = "\n\n---\n\n" +
	"Respond with a single JSON object only, no prose and no markdown fence, " +
	"conforming to this JSON Schema:\n"

func (g *StructuredGenerator) call(ctx context.Context, input string) (string, error) {
	inputMsgs := []*schema.Message{schema.UserMessage(input)}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			log.Info("Retrying LLM call (attempt %d/%d)...", attempt+1, g.retries+1)
			// Exponential backoff: wait 1s, 2s, 4s...
			waitTime := time.Duration(1<<uint(attempt-1)) * time.Second
			if waitTime > 10*time.Second {
				waitTime = 10 * time.Second // Cap at 10 seconds
			}
			time.Sleep(waitTime)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		out, err := g.model.Generate(attemptCtx, inputMsgs)
		cancel()
		if err == nil {
			return out.Content, nil
		}

		lastErr = err
		if !isRetryable(err) {
			log.Error("Non-retryable error occurred: %v", err)
			return "", utils.WrapError(err, "LLM call failed")
		}
		log.Info("Retryable error occurred (attempt %d/%d): %v", attempt+1, g.retries+1, err)
	}
	return "", utils.WrapErrorf(lastErr, "LLM call failed after %d attempts", g.retries+1)
}

// isRetryable matches transport-level faults worth another attempt.
func isRetryable(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "operation timed out") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "read tcp") ||
		strings.Contains(errStr, "write tcp")
}

// SchemaJSON reflects the JSON schema of out (a pointer to a struct) into its
// serialized form for prompt embedding.
func SchemaJSON(out any) ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	s := r.Reflect(out)
	return utils.MarshalJSONBytes(s)
}
