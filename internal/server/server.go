package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/internal/optimizer"
	"github.com/iwvelando/deal-analyzer/internal/telemetry"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"github.com/iwvelando/deal-analyzer/pkg/optimization"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	metricsSchema = mustCompileSchema("schemas/metrics-request.json")
	compareSchema = mustCompileSchema("schemas/compare-request.json")
)

func mustCompileSchema(path string) *jsonschema.Schema {
	file, err := schemaFiles.Open(path)
	if err != nil {
		panic(fmt.Sprintf("failed to open embedded schema %s: %v", path, err))
	}
	defer file.Close()

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(path, file); err != nil {
		panic(fmt.Sprintf("failed to add schema resource %s: %v", path, err))
	}
	schema, err := compiler.Compile(path)
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema %s: %v", path, err))
	}
	return schema
}

type handler struct {
	logger        *zap.Logger
	calculator    *deal.Calculator
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the deal API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		calculator:    deal.NewCalculator(logger),
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
	}

	mux := http.NewServeMux()

	// Single deal metrics
	mux.HandleFunc("/api/deals/metrics", h.handleMetrics)

	// Strategy comparison across deal types and purchase methods
	mux.HandleFunc("/api/deals/compare", h.handleCompare)

	// Deal file upload
	mux.HandleFunc("/api/deals/upload", h.handleUpload)

	// Deal file serialization for editor downloads
	mux.HandleFunc("/api/deals/export", h.handleExport)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return h.instrument(mux)
}

type requestOptions struct {
	Schedule deal.Flag               `json:"schedule"`
	ProForma *deal.Assumptions       `json:"proForma"`
	Optimize *config.OptimizerConfig `json:"optimize"`
}

type metricsRequest struct {
	DealType       string         `json:"dealType"`
	PurchaseMethod string         `json:"purchaseMethod"`
	Input          deal.Input     `json:"input"`
	Options        requestOptions `json:"options"`
}

type metricsResponse struct {
	Metrics  deal.Metrics      `json:"metrics"`
	Display  map[string]string `json:"display"`
	Schedule []loans.Payment   `json:"schedule,omitempty"`
	ProForma *deal.ProForma    `json:"proForma,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Duration string            `json:"duration"`

	Optimization *optimization.Summary `json:"optimization,omitempty"`
}

type combinationRequest struct {
	DealType       string `json:"dealType"`
	PurchaseMethod string `json:"purchaseMethod"`
}

type compareRequest struct {
	Input        deal.Input           `json:"input"`
	Combinations []combinationRequest `json:"combinations"`
}

type compareResult struct {
	Metrics deal.Metrics      `json:"metrics"`
	Display map[string]string `json:"display"`
}

type compareResponse struct {
	Results  []compareResult `json:"results"`
	Warnings []string        `json:"warnings,omitempty"`
	Duration string          `json:"duration"`
}

type uploadResponse struct {
	Deals    []output.DealResult `json:"deals"`
	CSV      string              `json:"csv"`
	Warnings []string            `json:"warnings,omitempty"`
	Duration string              `json:"duration"`
}

func (h *handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMetrics"
	if !h.allowMethod(w, r, http.MethodPost, op) {
		return
	}

	start := time.Now()
	var req metricsRequest
	if status, err := h.decodeEnvelope(w, r, metricsSchema, &req); err != nil {
		h.respondError(w, r, status, err.Error(), op)
		return
	}

	dealTypeSelector := firstNonEmpty(req.DealType, req.Input.DealType)
	if dealTypeSelector == "" {
		h.respondError(w, r, http.StatusBadRequest, "dealType is required", op)
		return
	}
	methodSelector := firstNonEmpty(req.PurchaseMethod, req.Input.PurchaseMethod)

	dealType, _ := deal.ParseDealType(dealTypeSelector)
	method, _ := deal.ParsePurchaseMethod(methodSelector)

	metrics := h.calculator.Compute(req.Input, dealType, method)
	telemetry.RecordCalculation(metrics)

	response := metricsResponse{
		Metrics:  metrics,
		Display:  output.DisplayMap(metrics),
		Warnings: validation.ValidateDeal("", dealTypeSelector, methodSelector, req.Input),
	}
	if bool(req.Options.Schedule) && metrics.Supported() {
		response.Schedule = h.calculator.Schedule(req.Input, method)
	}
	if req.Options.ProForma != nil && metrics.Category == deal.CategoryRental {
		projection := h.calculator.Project(req.Input, dealType, method, *req.Options.ProForma)
		response.ProForma = &projection
	}
	if req.Options.Optimize != nil {
		summary, err := optimizer.Solve(h.logger, req.Input, dealType, method, *req.Options.Optimize)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
		telemetry.RecordOptimization(summary.Target, summary.Converged)
		response.Optimization = &summary
	}
	telemetry.RecordWarnings(len(response.Warnings))

	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("deal metrics computed",
		zap.String("op", op),
		zap.String("requestId", RequestIDFromContext(r.Context())),
		zap.String("dealType", string(dealType)),
		zap.String("purchaseMethod", string(method)),
		zap.Int("warnings", len(response.Warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if !h.allowMethod(w, r, http.MethodPost, op) {
		return
	}

	start := time.Now()
	var req compareRequest
	if status, err := h.decodeEnvelope(w, r, compareSchema, &req); err != nil {
		h.respondError(w, r, status, err.Error(), op)
		return
	}

	var warnings []string
	combinations := make([]deal.Combination, 0, len(req.Combinations))
	for _, c := range req.Combinations {
		dealType, dealOK := deal.ParseDealType(c.DealType)
		method, methodOK := deal.ParsePurchaseMethod(c.PurchaseMethod)
		if !dealOK {
			warnings = append(warnings, fmt.Sprintf("Unknown deal type '%s'", c.DealType))
		}
		if !methodOK {
			warnings = append(warnings, fmt.Sprintf("Unknown purchase method '%s', priced as a conventional loan", c.PurchaseMethod))
		}
		combinations = append(combinations, deal.Combination{DealType: dealType, PurchaseMethod: method})
	}
	if len(combinations) == 0 {
		combinations = deal.StrategyMatrix()
	}
	if fields := req.Input.UnparsedFields(); len(fields) > 0 {
		warnings = append(warnings, fmt.Sprintf("Non-numeric values treated as 0: %s", strings.Join(fields, ", ")))
	}

	metrics := h.calculator.Compare(req.Input, combinations)
	results := make([]compareResult, 0, len(metrics))
	for _, m := range metrics {
		telemetry.RecordCalculation(m)
		results = append(results, compareResult{Metrics: m, Display: output.DisplayMap(m)})
	}
	telemetry.RecordWarnings(len(warnings))

	elapsed := time.Since(start)
	h.logger.Info("deal strategies compared",
		zap.String("op", op),
		zap.String("requestId", RequestIDFromContext(r.Context())),
		zap.Int("combinations", len(results)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, compareResponse{
		Results:  results,
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	if !h.allowMethod(w, r, http.MethodPost, op) {
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing deal file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read deal file: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	warnings := cfg.ValidateConfiguration()
	results := cfg.Evaluate(h.logger)

	runner, err := optimizer.NewRunner(h.logger, cfg)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	solved, err := runner.Run()
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("optimizer failed: %v", err), op)
		return
	}
	solved.Apply(results)

	for i := range results {
		results[i].Display = output.Display(results[i].Metrics)
		telemetry.RecordCalculation(results[i].Metrics)
		for _, summary := range results[i].Optimizations {
			telemetry.RecordOptimization(summary.Target, summary.Converged)
		}
	}
	telemetry.RecordWarnings(len(warnings))

	var csvBuf bytes.Buffer
	if err := output.WriteCSV(&csvBuf, results); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("deal file evaluated",
		zap.String("op", op),
		zap.String("requestId", RequestIDFromContext(r.Context())),
		zap.Int("deals", len(results)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, uploadResponse{
		Deals:    results,
		CSV:      csvBuf.String(),
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if !h.allowMethod(w, r, http.MethodPost, op) {
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize)).Decode(&payload); err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode deal file: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to encode deal file: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(yamlBytes))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"configYaml": string(yamlBytes),
		"warnings":   cfg.ValidateConfiguration(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet, "server.handleVersion") {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet, "server.handleHealth") {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeEnvelope validates the request body against schema and then decodes
// it into dst. The returned status is meaningful only when err is non-nil.
func (h *handler) decodeEnvelope(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst interface{}) (int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request exceeds limit of %d bytes", h.maxUploadSize)
		}
		return http.StatusBadRequest, fmt.Errorf("failed to read request: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal(body, &document); err != nil {
		return http.StatusBadRequest, fmt.Errorf("request body is not valid JSON: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return http.StatusBadRequest, fmt.Errorf("invalid request: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err)
	}
	return 0, nil
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output", "proForma", "deals"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) allowMethod(w http.ResponseWriter, r *http.Request, method, op string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	h.respondError(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), op)
	return false
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("requestId", RequestIDFromContext(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("deal request failed", fields...)
	} else {
		h.logger.Warn("deal request rejected", fields...)
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("error.message", msg))

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
