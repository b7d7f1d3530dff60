package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/okian/personnel-insights/pkg/logger"
)

// PredictHandler handles POST /predict.
type PredictHandler struct {
	predictor    Predictor
	logger       logger.Logger
	maxBodyBytes int64
	legacy       bool
}

// NewPredictHandler creates a predict handler.
func NewPredictHandler(p Predictor, l logger.Logger, maxBodyBytes int64, legacy bool) *PredictHandler {
	return &PredictHandler{predictor: p, logger: l, maxBodyBytes: maxBodyBytes, legacy: legacy}
}

// HandlePredict reads one record and answers with both labels or {"error": ...}.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, NewKind(op, ErrMethodNotAllowed))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, WrapKind(op, ErrBodyTooLarge, err))
			return
		}
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	pred, err := h.predictor.PredictJSON(r.Context(), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Debug(r.Context(), "prediction served",
		logger.String("leadership_potential", pred.LeadershipPotential),
		logger.String("attrition_risk", pred.AttritionRisk),
	)
	writeJSON(w, http.StatusOK, pred)
}

func (h *PredictHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "prediction failed", logger.Int("status", status), logger.Error(err))
	} else {
		h.logger.Warn(r.Context(), "prediction rejected", logger.Int("status", status), logger.Error(err))
	}
	if h.legacy {
		status = http.StatusOK
	}
	writeError(w, status, err)
}
