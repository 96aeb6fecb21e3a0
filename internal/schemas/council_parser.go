package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"sustainability-council/internal/model"
	"sustainability-council/shared/utils"

	"github.com/xeipuuv/gojsonschema"
)

// ErrContractViolation - ответ модели не соответствует контракту (не JSON или не по схеме).
var ErrContractViolation = errors.New("model reply violates council contract")

var (
	compiledOnce   sync.Once
	compiledSchema *gojsonschema.Schema
	compileErr     error
)

func councilSchema() (*gojsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(CouncilResponseSchema()))
	})
	return compiledSchema, compileErr
}

// ParseCouncilResponse проверяет ответ модели по схеме и декодирует его.
// Это единственное место, где разбирается вывод модели для совета.
func ParseCouncilResponse(raw string) (*model.CouncilResponse, error) {
	payload := stripCodeFence(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrContractViolation)
	}
	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("%w: reply is not valid JSON", ErrContractViolation)
	}

	schema, err := councilSchema()
	if err != nil {
		return nil, fmt.Errorf("compile council schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrContractViolation, strings.Join(errs, "; "))
	}

	var resp model.CouncilResponse
	if err := utils.DecodeStrict([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	return &resp, nil
}

// stripCodeFence убирает обертку ```json ... ```, которую иногда добавляют локальные модели.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
