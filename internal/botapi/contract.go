package botapi

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed botapi.yaml
var contractSpec []byte

// contractChecker сверяет ответы бота с OpenAPI-описанием.
// Расхождения только логируются: вызывающий код получает данные как есть.
type contractChecker struct {
	doc     *openapi3.T
	options *openapi3filter.Options
	logger  *slog.Logger
}

func newContractChecker(logger *slog.Logger) (*contractChecker, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(contractSpec)
	if err != nil {
		return nil, fmt.Errorf("разбор botapi.yaml: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("валидация botapi.yaml: %w", err)
	}
	return &contractChecker{
		doc: doc,
		options: &openapi3filter.Options{
			ExcludeRequestBody:    true,
			IncludeResponseStatus: false,
			MultiError:            true,
		},
		logger: logger,
	}, nil
}

// route находит операцию по шаблону пути и методу.
func (cc *contractChecker) route(pattern, method string) (*routers.Route, bool) {
	pathItem := cc.doc.Paths.Find(pattern)
	if pathItem == nil {
		return nil, false
	}
	op := pathItem.GetOperation(method)
	if op == nil {
		return nil, false
	}
	return &routers.Route{
		Spec:      cc.doc,
		Path:      pattern,
		PathItem:  pathItem,
		Method:    method,
		Operation: op,
	}, true
}

// check валидирует ответ и пишет предупреждение при несоответствии.
// Возвращает ошибку валидации (nil — ответ соответствует описанию).
func (cc *contractChecker) check(ctx context.Context, req *http.Request, pattern string, status int, header http.Header, body []byte) error {
	route, ok := cc.route(pattern, req.Method)
	if !ok {
		cc.logger.Warn("Операция отсутствует в контракте API бота",
			slog.String("method", req.Method),
			slog.String("path", pattern),
		)
		return fmt.Errorf("операция %s %s отсутствует в контракте", req.Method, pattern)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request: req,
			Route:   route,
			Options: cc.options,
		},
		Status:  status,
		Header:  header,
		Options: cc.options,
	}
	input.SetBodyBytes(body)

	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		cc.logger.Warn("Ответ API бота не соответствует контракту",
			slog.String("method", req.Method),
			slog.String("path", pattern),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
