package billingapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hirelens/billingkit/pkg/billing"
	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/proration"
	"github.com/hirelens/billingkit/pkg/quota"
	"github.com/hirelens/billingkit/pkg/report"
	"github.com/hirelens/billingkit/pkg/subscription"
	"github.com/hirelens/billingkit/pkg/tenant"
	"github.com/hirelens/billingkit/pkg/usage"
)

// envelope is the standard JSON response body.
type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (m *Module) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

// respondError maps domain sentinels onto HTTP statuses. Isolation
// errors surface as not-found so the API never confirms that a foreign
// tenant exists.
func (m *Module) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	msg := ""

	switch {
	case errors.Is(err, quota.ErrQuotaExceeded):
		status, code, msg = http.StatusTooManyRequests, "quota_exceeded", err.Error()
	case errors.Is(err, tenant.ErrNoScope):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, tenant.ErrInactiveTenant):
		status, code = http.StatusForbidden, "tenant_inactive"
	case errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, subscription.ErrSubscriptionNotFound),
		errors.Is(err, subscription.ErrNoCurrentSubscription),
		errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, usage.ErrSummaryNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, billing.ErrInvalidSignature),
		errors.Is(err, billing.ErrSignatureExpired):
		status, code = http.StatusBadRequest, "invalid_signature"
	case errors.Is(err, billing.ErrInvalidPayload),
		errors.Is(err, subscription.ErrUnknownPlan),
		errors.Is(err, subscription.ErrInvalidStatus),
		errors.Is(err, quota.ErrUnknownLimit),
		errors.Is(err, proration.ErrInvalidCycle):
		status, code, msg = http.StatusUnprocessableEntity, "validation_error", err.Error()
	case errors.Is(err, subscription.ErrInvalidTransition),
		errors.Is(err, subscription.ErrCurrentSlotTaken),
		errors.Is(err, subscription.ErrDowngradeNotPossible):
		status, code, msg = http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, subscription.ErrSystemScopeOnly),
		errors.Is(err, billing.ErrSystemScopeOnly),
		errors.Is(err, usage.ErrSystemScopeOnly),
		errors.Is(err, report.ErrSystemScopeOnly):
		status, code = http.StatusForbidden, "forbidden"
	default:
		m.log.ErrorContext(ctx, "request failed", slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &errorDetail{Code: code, Message: msg}})
}

func (m *Module) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		m.respondError(r.Context(), w, errors.Join(billing.ErrInvalidPayload, err))
		return false
	}
	return true
}
